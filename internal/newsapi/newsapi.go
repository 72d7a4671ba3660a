// Package newsapi 封装两个上游协作方：分页新闻源与文章摘要服务。
// 两者都按不透明的 JSON 契约对待，这里只负责取数与失败归类。
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	maxResponseBytes = 2 << 20 // 2MB，新闻批次与摘要响应都不会超过
	clientTimeout    = 15 * time.Second
)

// ErrUpstream 表示上游不可达或响应不可解析。与程序内部缺陷区分开：
// 拿到它说明是外部失败，该请求报 500 但结果绝不能进缓存。
var ErrUpstream = errors.New("newsapi: upstream fetch failed")

// RawItem 是上游新闻源返回的单条原始新闻。
type RawItem struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	HashID   string `json:"hash_id"`
	URL      string `json:"url"`
}

// Page 是上游的一页新闻；MinNewsID 是整页共享的"下一页从哪开始"游标。
type Page struct {
	News      []RawItem `json:"news"`
	MinNewsID string    `json:"min_news_id"`
}

// Client 访问分页新闻源。
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient 构造新闻源客户端，baseURL 形如 https://feed.example.com。
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: clientTimeout},
	}
}

// Latest 拉取最新一页。
func (c *Client) Latest(ctx context.Context) (*Page, error) {
	return c.fetchPage(ctx, c.baseURL+"/news/latest")
}

// More 按游标拉取下一页。
func (c *Client) More(ctx context.Context, minNewsID string) (*Page, error) {
	return c.fetchPage(ctx, c.baseURL+"/news/more?minNewsId="+url.QueryEscape(minNewsID))
}

func (c *Client) fetchPage(ctx context.Context, fullURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	var page Page
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return &page, nil
}

// ArticleData 是摘要服务对单篇文章返回的数据。
type ArticleData struct {
	Title    string `json:"title"`
	FullText string `json:"full_text"`
	ImageURL string `json:"image_url"`
	Summary  string `json:"summary"`
}

// ArticleSource 抽象"按地址取一篇文章"的能力：
// 默认走摘要服务，未配置时退化为本地抓取解析（见 internal/scraper）。
type ArticleSource interface {
	Article(ctx context.Context, articleURL string) (*ArticleData, error)
}

// SummaryClient 访问固定的摘要协作方。
type SummaryClient struct {
	baseURL string
	httpc   *http.Client
}

// NewSummaryClient 构造摘要服务客户端。
func NewSummaryClient(baseURL string) *SummaryClient {
	return &SummaryClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: clientTimeout},
	}
}

// Article 取一篇文章的标题、全文、题图与摘要。
func (s *SummaryClient) Article(ctx context.Context, articleURL string) (*ArticleData, error) {
	fullURL := s.baseURL + "?url=" + url.QueryEscape(articleURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	var data ArticleData
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return &data, nil
}
