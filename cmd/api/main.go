package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/aravindchilpa/articalapi/internal/api"
	"github.com/aravindchilpa/articalapi/internal/archive"
	"github.com/aravindchilpa/articalapi/internal/assembler"
	"github.com/aravindchilpa/articalapi/internal/cache"
	"github.com/aravindchilpa/articalapi/internal/config"
	"github.com/aravindchilpa/articalapi/internal/newsapi"
	"github.com/aravindchilpa/articalapi/internal/relay"
	"github.com/aravindchilpa/articalapi/internal/rewrite"
	"github.com/aravindchilpa/articalapi/internal/scheduler"
	"github.com/aravindchilpa/articalapi/internal/scraper"
	"github.com/aravindchilpa/articalapi/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	key, err := token.ParseKeyHex(cfg.ImageTokenKey)
	if err != nil {
		log.Fatalf("parse IMAGE_TOKEN_KEY failed: %v", err)
	}
	codec, err := token.NewCodec(key, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("init token codec failed: %v", err)
	}

	prompts, err := rewrite.LoadPrompts(cfg.RewriteConfigPath)
	if err != nil {
		log.Fatalf("load rewrite prompts failed: %v", err)
	}

	var rewriter rewrite.Rewriter
	switch cfg.RewriteProvider {
	case "gemini":
		g, err := rewrite.NewGeminiRewriter(context.Background(), cfg.GeminiAPIKey, prompts)
		if err != nil {
			log.Fatalf("init gemini rewriter failed: %v", err)
		}
		defer g.Close()
		rewriter = g
	default:
		rewriter = rewrite.NewOpenAIRewriter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, prompts)
	}

	// 摘要服务没配置时退化为本地抓取解析
	var article newsapi.ArticleSource
	if cfg.SummaryAPIURL != "" {
		article = newsapi.NewSummaryClient(cfg.SummaryAPIURL)
	} else {
		log.Println("SUMMARY_API_URL not set, using local scraper for summarize")
		article = scraper.NewExtractor()
	}

	var store cache.Store
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(cfg.RedisAddr)
	} else {
		store = cache.NewMemory()
	}

	var ar *archive.Archive
	if cfg.PostgresDSN != "" {
		ar, err = archive.New(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("init archive failed: %v", err)
		}
	}

	asm := assembler.New(codec, rewriter, newsapi.NewClient(cfg.NewsAPIURL), article)

	if cfg.RefreshCron != "" {
		s, err := scheduler.New(cfg.RefreshCron, asm, store)
		if err != nil {
			log.Fatalf("init refresh scheduler failed: %v", err)
		}
		s.Start()
	}

	r := gin.Default()
	srv := api.NewServer(store, asm, relay.New(codec), ar)
	srv.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
