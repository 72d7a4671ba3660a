// Package rewrite 封装文本改写能力：单条改写、整批标题改写，
// 统一的失败契约（整体失败返回 ErrRewrite，不产出部分结果）。
// 具体提供方有 OpenAI 兼容接口与 Gemini 两种，由配置选择。
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrRewrite 表示改写调用整体失败（网络错误或空响应）。
// 调用方在有兜底值的位置吞掉它、用原文替代；没有兜底值才向上冒泡。
var ErrRewrite = errors.New("rewrite: call failed")

// 改写调用点，对应配置里的一组 {model, prompt}
const (
	SiteTitle    = "title"     // 单条标题改写
	SiteTitles   = "titles"    // 整批标题改写
	SiteFullText = "full_text" // 文章全文改写
)

// Rewriter 是改写适配器的统一接口。
// RewriteTitles 只发一次批量调用，响应按行对位拆分；
// 返回的行数可能少于输入条数，由调用方按位兜底。
type Rewriter interface {
	RewriteText(ctx context.Context, text, site string) (string, error)
	RewriteTitles(ctx context.Context, titles []string) ([]string, error)
}

// Site 是某个调用点的模型与提示词模板，模板里用 %s 占位待改写文本。
type Site struct {
	Model  string `yaml:"model"`
	Prompt string `yaml:"prompt"`
}

// Prompts 按调用点组织提示词配置，模型与提示词均可通过文件注入，不写死在代码里。
type Prompts struct {
	Sites map[string]Site `yaml:"sites"`
}

// DefaultPrompts 是编译进来的默认配置，配置文件只覆盖给出的调用点。
func DefaultPrompts() Prompts {
	return Prompts{Sites: map[string]Site{
		SiteTitle: {
			Model:  "gpt-4o-mini",
			Prompt: "把下面这条新闻标题改写得更通顺、更有吸引力，保留原意，只输出改写后的标题，不要任何解释：\n%s",
		},
		SiteTitles: {
			Model:  "gpt-4o-mini",
			Prompt: "下面是一组新闻标题，每行一条。逐条改写得更通顺、更有吸引力，保留原意。按输入顺序输出，每行一条，不要编号，不要任何解释：\n%s",
		},
		SiteFullText: {
			Model:  "gpt-4o-mini",
			Prompt: "把下面这篇新闻正文改写为流畅的原创表述，保留全部事实信息，只输出改写后的正文：\n%s",
		},
	}}
}

// LoadPrompts 读取 YAML 配置并与默认值合并；path 为空时直接用默认值。
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("rewrite: read prompts config: %w", err)
	}
	var file Prompts
	if err := yaml.Unmarshal(data, &file); err != nil {
		return prompts, fmt.Errorf("rewrite: parse prompts config: %w", err)
	}
	for site, s := range file.Sites {
		cur := prompts.Sites[site]
		if s.Model != "" {
			cur.Model = s.Model
		}
		if s.Prompt != "" {
			cur.Prompt = s.Prompt
		}
		prompts.Sites[site] = cur
	}
	return prompts, nil
}

func (p Prompts) site(name string) Site {
	if s, ok := p.Sites[name]; ok {
		return s
	}
	return p.Sites[SiteTitle]
}

// joinTitles 把标题拼成批量改写的输入，一行一条，顺序即对位关系。
func joinTitles(titles []string) string {
	return strings.Join(titles, "\n")
}

// splitTitleLines 把批量改写的响应拆回标题序列：去掉行首编号，
// 最多保留 n 条。只丢弃首尾的空行，中间的空行按位保留为空串，
// 这样第 i 行永远对应第 i 条输入，空位由调用方兜底为原标题。
// 模型少给了行数就少返回，同样由调用方按位兜底。
func splitTitleLines(resp string, n int) []string {
	lines := strings.Split(resp, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	out := make([]string, 0, n)
	for _, line := range lines[start:end] {
		out = append(out, stripLeadingNumber(strings.TrimSpace(line)))
		if len(out) == n {
			break
		}
	}
	return out
}

// stripLeadingNumber 去掉 "1. " / "1、" / "1) " 这类行首编号。
func stripLeadingNumber(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return line
	}
	switch line[i] {
	case '.', ')', ':':
		return strings.TrimSpace(line[i+1:])
	}
	// 中文顿号编号
	if strings.HasPrefix(line[i:], "、") {
		return strings.TrimSpace(line[i+len("、"):])
	}
	return line
}
