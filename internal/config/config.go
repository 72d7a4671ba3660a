// Package config 从环境变量加载服务配置。
package config

import (
	"fmt"
	"log"
	"os"
)

type Config struct {
	AppPort string

	// 上游协作方
	NewsAPIURL    string // 分页新闻源，必填
	SummaryAPIURL string // 摘要服务；留空时用本地抓取兜底

	// 图片令牌
	ImageTokenKey string // 64 位 hex（32 字节 AES-256 密钥），必填
	PublicBaseURL string // 令牌公开地址前缀，例如 https://api.example.com

	// 缓存与存档（可选）
	RedisAddr   string // 设了就用 Redis 做批次缓存，否则用内存
	PostgresDSN string // 设了就启用历史归档

	// 改写
	RewriteProvider   string // openai | gemini
	RewriteConfigPath string // 调用点 {model, prompt} 的 YAML 配置，可空
	OpenAIAPIKey      string
	OpenAIBaseURL     string // 兼容网关地址，可空
	GeminiAPIKey      string

	// 最新批次的定时预热，留空则不启用
	RefreshCron string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		NewsAPIURL:        os.Getenv("NEWS_API_URL"),
		SummaryAPIURL:     os.Getenv("SUMMARY_API_URL"),
		ImageTokenKey:     os.Getenv("IMAGE_TOKEN_KEY"),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		RewriteProvider:   getEnv("REWRITE_PROVIDER", "openai"),
		RewriteConfigPath: os.Getenv("REWRITE_CONFIG_PATH"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		RefreshCron:       os.Getenv("REFRESH_CRON"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("config loaded: port=%s provider=%s redis=%t archive=%t",
		cfg.AppPort, cfg.RewriteProvider, cfg.RedisAddr != "", cfg.PostgresDSN != "")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.NewsAPIURL == "" {
		return fmt.Errorf("NEWS_API_URL is required")
	}
	if c.ImageTokenKey == "" {
		return fmt.Errorf("IMAGE_TOKEN_KEY is required")
	}
	if c.RewriteProvider != "openai" && c.RewriteProvider != "gemini" {
		return fmt.Errorf("REWRITE_PROVIDER must be 'openai' or 'gemini'")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
