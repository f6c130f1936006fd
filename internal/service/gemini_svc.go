package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 提供方接口 ====================

// GenerateOptions 单次生成参数
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// TextStream 流式生成的文本片段序列
// 惰性、有限、不可重放；Next 返回 io.EOF 表示流正常结束
type TextStream interface {
	Next() (string, error)
}

// TextProvider 文本生成提供方接口
// 生成引擎只依赖此接口，具体实现（Gemini）在组装时注入
type TextProvider interface {
	GenerateOnce(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string) (TextStream, error)
}

// ==================== Gemini 实现 ====================

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	ApiKey    string
	TextModel string
}

// GeminiProvider 基于 Gemini SDK 的文本生成实现
// 客户端在进程启动时创建一次，所有请求复用同一连接
type GeminiProvider struct {
	cfg    *GeminiConfig
	client *genai.Client
}

// NewGeminiProvider 创建 Gemini 提供方
func NewGeminiProvider(ctx context.Context, cfg *GeminiConfig) (*GeminiProvider, error) {
	if cfg.ApiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 未配置")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("Gemini 初始化失败: %v", err)
	}

	return &GeminiProvider{cfg: cfg, client: client}, nil
}

// Close 释放底层连接
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// GenerateOnce 非流式单次生成，返回完整文本
func (p *GeminiProvider) GenerateOnce(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	m := p.client.GenerativeModel(p.cfg.TextModel)
	if opts.Temperature > 0 {
		m.SetTemperature(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(opts.MaxOutputTokens)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeLLMCallFailed, "Gemini 调用失败")
	}

	text := firstText(resp)
	if text == "" {
		return "", apperr.New(apperr.CodeLLMCallFailed, "Gemini 返回为空")
	}
	return text, nil
}

// GenerateStream 流式生成
func (p *GeminiProvider) GenerateStream(ctx context.Context, prompt string) (TextStream, error) {
	m := p.client.GenerativeModel(p.cfg.TextModel)
	iter := m.GenerateContentStream(ctx, genai.Text(prompt))
	return &geminiStream{iter: iter}, nil
}

// geminiStream 将 SDK 的迭代器适配为 TextStream
type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Next() (string, error) {
	resp, err := s.iter.Next()
	if err == iterator.Done {
		return "", io.EOF
	}
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeLLMCallFailed, "Gemini 流式调用失败")
	}
	return firstText(resp), nil
}

// firstText 取出响应中第一段文本内容
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok && txt != "" {
				return string(txt)
			}
		}
	}
	return ""
}
