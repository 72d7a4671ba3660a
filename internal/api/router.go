// Package api 暴露 HTTP 接口：批次新闻、分页、单篇摘要、图片中转与历史查询。
// 批次接口都是缓存优先，未命中才回源装配；同键并发未命中用 singleflight
// 合并成一次装配，避免缓存击穿。
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/aravindchilpa/articalapi/internal/archive"
	"github.com/aravindchilpa/articalapi/internal/assembler"
	"github.com/aravindchilpa/articalapi/internal/cache"
	"github.com/aravindchilpa/articalapi/internal/relay"
)

// Server 聚合各内部组件；archive 可以为 nil（未配置 Postgres）。
type Server struct {
	store   cache.Store
	asm     *assembler.Assembler
	relay   *relay.Relay
	archive *archive.Archive
	group   singleflight.Group
}

// NewServer 构造 API 服务。
func NewServer(store cache.Store, asm *assembler.Assembler, rl *relay.Relay, ar *archive.Archive) *Server {
	return &Server{store: store, asm: asm, relay: rl, archive: ar}
}

// RegisterRoutes 注册全部路由。
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/news", s.getNews)
	r.POST("/news-more", s.postNewsMore)
	r.POST("/summarize", s.postSummarize)
	r.GET("/image-urls", s.getImage)
	r.GET("/news-history", s.getHistory)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getNews(c *gin.Context) {
	bs, err := s.newsBatch(c.Request.Context(), cache.LatestKey(), s.asm.Latest)
	if err != nil {
		log.Printf("assemble latest news failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch news"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", bs)
}

func (s *Server) postNewsMore(c *gin.Context) {
	var body struct {
		MinNewsID string `json:"minNewsId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.MinNewsID == "" {
		c.String(http.StatusBadRequest, "minNewsId is required")
		return
	}

	key := cache.MoreKey(body.MinNewsID)
	bs, err := s.newsBatch(c.Request.Context(), key, func(ctx context.Context) ([]assembler.NewsItem, error) {
		return s.asm.More(ctx, body.MinNewsID)
	})
	if err != nil {
		log.Printf("assemble more news failed (cursor=%s): %v", body.MinNewsID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch news"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", bs)
}

// newsBatch 缓存优先取一批新闻。未命中时同键并发请求合并成一次上游装配；
// 装配失败不写缓存，成功结果异步旁路归档。
func (s *Server) newsBatch(ctx context.Context, key string, fetch func(context.Context) ([]assembler.NewsItem, error)) ([]byte, error) {
	if bs, ok := s.store.Get(ctx, key); ok {
		return bs, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// 航班结果由所有等待方共享，不能随发起请求的取消一起取消，
		// 上游客户端自带超时来兜底
		fctx := context.WithoutCancel(ctx)

		// 进入临界区后再查一次：前一个航班可能刚写完缓存
		if bs, ok := s.store.Get(fctx, key); ok {
			return bs, nil
		}
		items, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		bs, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		s.store.Set(fctx, key, bs, cache.DefaultTTL)
		if s.archive != nil {
			go func() {
				if err := s.archive.SaveBatch(items); err != nil {
					log.Printf("archive batch failed: %v", err)
				}
			}()
		}
		return bs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Server) postSummarize(c *gin.Context) {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.URL == "" {
		c.String(http.StatusBadRequest, "url is required")
		return
	}

	sum, err := s.asm.Summarize(c.Request.Context(), body.URL)
	if err != nil {
		log.Printf("summarize failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize article"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) getImage(c *gin.Context) {
	tok := c.Query("url")
	if tok == "" {
		c.String(http.StatusInternalServerError, "image fetch failed")
		return
	}

	body, contentType, err := s.relay.Open(c.Request.Context(), tok)
	if err != nil {
		// 细节已在 relay 层落日志，对客户端只给笼统失败
		c.String(http.StatusInternalServerError, "image fetch failed")
		return
	}
	defer body.Close()

	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// 客户端断开属正常情况，复制停止即可
		log.Printf("relay copy interrupted: %v", err)
	}
}

func (s *Server) getHistory(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive not enabled"})
		return
	}
	list, err := s.archive.ListByDate(c.Query("date"), 50)
	if err != nil {
		log.Printf("list history failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}
	c.JSON(http.StatusOK, list)
}
