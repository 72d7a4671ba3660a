package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/aravindchilpa/articalapi/internal/assembler"
	"github.com/aravindchilpa/articalapi/internal/config"
	"github.com/aravindchilpa/articalapi/internal/newsapi"
	"github.com/aravindchilpa/articalapi/internal/rewrite"
	"github.com/aravindchilpa/articalapi/internal/token"
)

// 一个只执行一次装配的命令行入口：拉取最新一页并把结果打到标准输出，
// 适合手动验证上游契约与改写配置。
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

	asm := assembler.New(codec, rewriter, newsapi.NewClient(cfg.NewsAPIURL), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	items, err := asm.Latest(ctx)
	if err != nil {
		log.Fatalf("assemble latest batch failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		log.Fatalf("encode result failed: %v", err)
	}
}
