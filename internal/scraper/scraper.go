// Package scraper 在没有配置摘要服务时兜底：直接抓取文章页面，
// 解析出标题、题图和正文，拼出与摘要服务同构的数据。
package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aravindchilpa/articalapi/internal/newsapi"
)

const (
	scrapeTimeout   = 15 * time.Second
	minParagraphLen = 10
	summaryMaxRunes = 200
)

// 正文段落的候选选择器，按命中概率排序；页面结构各异，尽力而为
var contentSelectors = []string{
	"article p",
	".article-body p",
	".article-content p",
	".content p",
	".post-content p",
	"main p",
}

// Extractor 抓取并解析单篇文章，实现 newsapi.ArticleSource。
type Extractor struct {
	userAgent string
}

// NewExtractor 构造抓取器。
func NewExtractor() *Extractor {
	return &Extractor{userAgent: "articalapi/1.0"}
}

// Article 抓取文章页面并解析出标题、题图、正文与摘要。
// 抓不到正文按上游失败处理，由装配层决定是否给出"无数据"响应。
func (e *Extractor) Article(ctx context.Context, articleURL string) (*newsapi.ArticleData, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", newsapi.ErrUpstream, err)
	}

	c := colly.NewCollector(colly.UserAgent(e.userAgent))
	c.SetRequestTimeout(scrapeTimeout)

	data := &newsapi.ArticleData{}

	c.OnHTML("html", func(el *colly.HTMLElement) {
		doc := el.DOM

		data.Title = extractTitle(doc)
		data.ImageURL = strings.TrimSpace(doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))
		data.FullText = extractParagraphs(doc)

		// 摘要优先取页面自带的 description，否则截正文开头
		summary := strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
		if summary == "" {
			summary = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
		}
		if summary == "" {
			summary = truncateRunes(data.FullText, summaryMaxRunes)
		}
		data.Summary = summary
	})

	if err := c.Visit(articleURL); err != nil {
		log.Printf("scrape article failed: %v", err)
		return nil, fmt.Errorf("%w: scrape: %v", newsapi.ErrUpstream, err)
	}

	return data, nil
}

func extractTitle(doc *goquery.Selection) string {
	if t := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", "")); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractParagraphs(doc *goquery.Selection) string {
	var paragraphs []string
	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func truncateRunes(s string, limit int) string {
	rs := []rune(strings.TrimSpace(s))
	if len(rs) <= limit {
		return string(rs)
	}
	return string(rs[:limit]) + "…"
}
