package rewrite

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIRewriter 通过 OpenAI 兼容的 chat-completion 接口做改写。
// baseURL 可以指向任何兼容网关。
type OpenAIRewriter struct {
	client  *openai.Client
	prompts Prompts
}

// NewOpenAIRewriter 构造 OpenAI 提供方；baseURL 为空时用官方地址。
func NewOpenAIRewriter(apiKey, baseURL string, prompts Prompts) *OpenAIRewriter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIRewriter{
		client:  openai.NewClientWithConfig(cfg),
		prompts: prompts,
	}
}

func (r *OpenAIRewriter) RewriteText(ctx context.Context, text, site string) (string, error) {
	s := r.prompts.site(site)
	out, err := r.chat(ctx, s.Model, fmt.Sprintf(s.Prompt, text))
	if err != nil {
		return "", err
	}
	return out, nil
}

func (r *OpenAIRewriter) RewriteTitles(ctx context.Context, titles []string) ([]string, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	s := r.prompts.site(SiteTitles)
	out, err := r.chat(ctx, s.Model, fmt.Sprintf(s.Prompt, joinTitles(titles)))
	if err != nil {
		return nil, err
	}
	return splitTitleLines(out, len(titles)), nil
}

// chat 发送单轮对话请求；调用失败或空响应统一归为 ErrRewrite。
func (r *OpenAIRewriter) chat(ctx context.Context, model, prompt string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrRewrite, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: empty choices", ErrRewrite)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("%w: openai: empty content", ErrRewrite)
	}
	return out, nil
}
