// Package assembler 把上游的原始新闻批次加工成对外的规范批次：
// 标题走模型改写（失败按位回退原标题）、图片地址换成加密令牌、
// 整批统一挂上分页游标。还负责单篇文章的摘要装配。
package assembler

import (
	"context"
	"fmt"
	"log"

	"github.com/aravindchilpa/articalapi/internal/newsapi"
	"github.com/aravindchilpa/articalapi/internal/rewrite"
	"github.com/aravindchilpa/articalapi/internal/token"
)

// NoData 是摘要服务拿不到正文或标题时返回的固定占位文案。
// 这是刻意的用户可见降级，不是错误。
const NoData = "暂无数据"

// NewsItem 是对外输出的单条新闻。Image 是经过令牌包装的公开代理地址，
// 客户端拿不到源站；MinNewsID 是整批共享的下一页游标。
type NewsItem struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Image     string `json:"image"`
	MinNewsID string `json:"minNewsId"`
	HashID    string `json:"hashId"`
	URL       string `json:"url"`
}

// ArticleSummary 是单篇文章的摘要结果。
type ArticleSummary struct {
	Title    string `json:"title"`
	FullText string `json:"fullText"`
	Image    string `json:"image"`
	Summary  string `json:"summary"`
}

// Feed 抽象分页新闻源，便于测试替换。
type Feed interface {
	Latest(ctx context.Context) (*newsapi.Page, error)
	More(ctx context.Context, minNewsID string) (*newsapi.Page, error)
}

// Assembler 组合令牌编解码、改写适配器与上游客户端。
type Assembler struct {
	codec    *token.Codec
	rewriter rewrite.Rewriter
	feed     Feed
	article  newsapi.ArticleSource
}

// New 构造装配器。
func New(codec *token.Codec, rewriter rewrite.Rewriter, feed Feed, article newsapi.ArticleSource) *Assembler {
	return &Assembler{codec: codec, rewriter: rewriter, feed: feed, article: article}
}

// Latest 拉取并装配最新一页。上游失败直接返回错误，不产出批次。
func (a *Assembler) Latest(ctx context.Context) ([]NewsItem, error) {
	page, err := a.feed.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest page: %w", err)
	}
	return a.Assemble(ctx, page.News, page.MinNewsID), nil
}

// More 按游标拉取并装配下一页。
func (a *Assembler) More(ctx context.Context, minNewsID string) ([]NewsItem, error) {
	page, err := a.feed.More(ctx, minNewsID)
	if err != nil {
		return nil, fmt.Errorf("fetch page %q: %w", minNewsID, err)
	}
	cursor := page.MinNewsID
	if cursor == "" {
		cursor = minNewsID
	}
	return a.Assemble(ctx, page.News, cursor), nil
}

// Assemble 把原始批次规范化。顺序保持与上游一致；标题改写整体失败时
// 整批回退原标题，绝不因为改写挂了让整个请求失败。
func (a *Assembler) Assemble(ctx context.Context, raw []newsapi.RawItem, cursor string) []NewsItem {
	titles := make([]string, len(raw))
	for i, it := range raw {
		titles[i] = it.Title
	}

	rewritten, err := a.rewriter.RewriteTitles(ctx, titles)
	if err != nil {
		log.Printf("rewrite titles failed, falling back to originals: %v", err)
		rewritten = nil
	}

	items := make([]NewsItem, 0, len(raw))
	for i, it := range raw {
		title := it.Title
		// 对位取改写结果，缺位或空串都回退原标题
		if i < len(rewritten) && rewritten[i] != "" {
			title = rewritten[i]
		}

		image, err := a.codec.WrapURL(it.ImageURL)
		if err != nil {
			log.Printf("tokenize image url failed for %s: %v", it.HashID, err)
			image = ""
		}

		items = append(items, NewsItem{
			Index:     i,
			Title:     title,
			Content:   it.Content,
			Image:     image,
			MinNewsID: cursor,
			HashID:    it.HashID,
			URL:       it.URL,
		})
	}
	return items
}

// Summarize 装配单篇文章：标题与正文各自独立改写，任意一边失败只回退
// 那一个字段；协作方没给正文或标题时返回固定的"暂无数据"占位，
// 且不发起任何改写调用。
func (a *Assembler) Summarize(ctx context.Context, articleURL string) (*ArticleSummary, error) {
	data, err := a.article.Article(ctx, articleURL)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	if data.FullText == "" || data.Title == "" {
		return &ArticleSummary{Title: NoData, FullText: NoData, Image: "", Summary: NoData}, nil
	}

	title, err := a.rewriter.RewriteText(ctx, data.Title, rewrite.SiteTitle)
	if err != nil {
		log.Printf("rewrite article title failed, using original: %v", err)
		title = data.Title
	}

	fullText, err := a.rewriter.RewriteText(ctx, data.FullText, rewrite.SiteFullText)
	if err != nil {
		log.Printf("rewrite article text failed, using original: %v", err)
		fullText = data.FullText
	}

	image, err := a.codec.WrapURL(data.ImageURL)
	if err != nil {
		log.Printf("tokenize article image failed: %v", err)
		image = ""
	}

	return &ArticleSummary{
		Title:    title,
		FullText: fullText,
		Image:    image,
		Summary:  data.Summary,
	}, nil
}
