package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiRewriter 通过 Google Gemini 做改写，与 OpenAI 提供方遵循同一失败契约。
type GeminiRewriter struct {
	client  *genai.Client
	prompts Prompts
}

// NewGeminiRewriter 构造 Gemini 提供方。
func NewGeminiRewriter(ctx context.Context, apiKey string, prompts Prompts) (*GeminiRewriter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("rewrite: create gemini client: %w", err)
	}
	return &GeminiRewriter{client: client, prompts: prompts}, nil
}

// Close 释放底层连接。
func (r *GeminiRewriter) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func (r *GeminiRewriter) RewriteText(ctx context.Context, text, site string) (string, error) {
	s := r.prompts.site(site)
	return r.generate(ctx, s.Model, fmt.Sprintf(s.Prompt, text))
}

func (r *GeminiRewriter) RewriteTitles(ctx context.Context, titles []string) ([]string, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	s := r.prompts.site(SiteTitles)
	out, err := r.generate(ctx, s.Model, fmt.Sprintf(s.Prompt, joinTitles(titles)))
	if err != nil {
		return nil, err
	}
	return splitTitleLines(out, len(titles)), nil
}

func (r *GeminiRewriter) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := r.client.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrRewrite, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini: empty response", ErrRewrite)
	}
	out := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	if out == "" {
		return "", fmt.Errorf("%w: gemini: empty content", ErrRewrite)
	}
	return out, nil
}
