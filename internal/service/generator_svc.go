package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"oceanai_dev_v1/internal/model"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 生成服务 ====================

// GeneratorService 文档内容生成服务
// 负责 提示词构造 -> 模型调用 -> 响应清洗 -> 结构化解析 全流程
type GeneratorService struct {
	provider TextProvider
}

// NewGeneratorService 创建生成服务
func NewGeneratorService(provider TextProvider) *GeneratorService {
	return &GeneratorService{provider: provider}
}

// GenerateDocument 按主题一次性生成完整文档内容
func (s *GeneratorService) GenerateDocument(ctx context.Context, topic string, docType model.DocumentType) (*model.DocumentContent, error) {
	if !docType.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidParam, "不支持的文档类型: %s", docType)
	}

	raw, err := s.provider.GenerateOnce(ctx, buildGeneratePrompt(topic, docType), GenerateOptions{})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeGenerationFailed, "文档生成失败")
	}

	content, err := s.parseStructured(raw, docType)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeGenerationFailed, "文档生成失败")
	}
	return content, nil
}

// RefineContent 按用户指令改写已有内容，结果保持原文档类型
// 模型返回的结构与原类型不符时视为改写失败，不做静默转换
func (s *GeneratorService) RefineContent(ctx context.Context, currentContent string, instruction string, docType model.DocumentType) (*model.DocumentContent, error) {
	if !docType.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidParam, "不支持的文档类型: %s", docType)
	}
	if strings.TrimSpace(currentContent) == "" {
		return nil, apperr.New(apperr.CodeNoContent, "项目尚无可改写的内容")
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, apperr.New(apperr.CodeInvalidParam, "改写指令不能为空")
	}

	raw, err := s.provider.GenerateOnce(ctx, buildRefinePrompt(currentContent, instruction, docType), GenerateOptions{})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeRefineFailed, "内容改写失败")
	}

	content, err := s.parseStructured(raw, docType)
	if err != nil {
		if apperr.Is(err, apperr.CodeKindMismatch) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.CodeRefineFailed, "内容改写失败")
	}
	return content, nil
}

// parseStructured 清洗原始响应并解析为期望类型的结构化内容
// 键缺失按空列表处理，键存在但类型不符判定为结构不匹配
func (s *GeneratorService) parseStructured(raw string, docType model.DocumentType) (*model.DocumentContent, error) {
	cleaned := CleanJSONResponse(raw)

	var payload struct {
		Sections json.RawMessage `json:"sections"`
		Slides   json.RawMessage `json:"slides"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeParseFailed, "模型响应不是合法 JSON")
	}

	switch docType {
	case model.DocTypeWord:
		if len(payload.Sections) == 0 && len(payload.Slides) > 0 {
			return nil, apperr.New(apperr.CodeKindMismatch, "模型返回了幻灯片结构，期望章节结构")
		}
		sections := []model.Section{}
		if len(payload.Sections) > 0 {
			if err := json.Unmarshal(payload.Sections, &sections); err != nil {
				return nil, apperr.Wrap(err, apperr.CodeParseFailed, "章节结构解析失败")
			}
		}
		return model.NewWordContent(sections), nil
	case model.DocTypeSlide:
		if len(payload.Slides) == 0 && len(payload.Sections) > 0 {
			return nil, apperr.New(apperr.CodeKindMismatch, "模型返回了章节结构，期望幻灯片结构")
		}
		slides := []model.Slide{}
		if len(payload.Slides) > 0 {
			if err := json.Unmarshal(payload.Slides, &slides); err != nil {
				return nil, apperr.Wrap(err, apperr.CodeParseFailed, "幻灯片结构解析失败")
			}
		}
		return model.NewSlideContent(slides), nil
	default:
		return nil, apperr.Newf(apperr.CodeInvalidParam, "不支持的文档类型: %s", docType)
	}
}

// ==================== 提示词 ====================

func buildGeneratePrompt(topic string, docType model.DocumentType) string {
	if docType == model.DocTypeWord {
		return fmt.Sprintf(`Create a comprehensive document on the topic: "%s"

Generate a document with 3-5 well-structured sections. Each section should have:
- A clear section title
- 2-3 paragraphs of content (each paragraph 3-4 sentences)

Respond in JSON format:
{
    "sections": [
        {
            "title": "Section Title",
            "content": [
                "First paragraph text...",
                "Second paragraph text...",
                "Third paragraph text..."
            ]
        },
        ...
    ]
}

Make the content informative, well-written, and relevant to the topic.`, topic)
	}

	return fmt.Sprintf(`Create a PowerPoint presentation on the topic: "%s"

Generate 5 slides with:
- Clear slide titles
- 3-5 bullet points per slide

Respond in JSON format:
{
    "slides": [
        {
            "title": "Slide Title",
            "bullets": [
                "Bullet point 1",
                "Bullet point 2",
                "Bullet point 3"
            ]
        },
        ...
    ]
}

Make the content engaging, informative, and well-structured for a presentation.`, topic)
}

func buildRefinePrompt(currentContent string, instruction string, docType model.DocumentType) string {
	return fmt.Sprintf(`Refine the following %s document based on this instruction: "%s"

Current content:
%s

Apply the refinement and return the updated content in the same JSON format as the original.
Make sure to maintain the structure but improve it according to the refinement prompt.`,
		strings.ToUpper(string(docType)), instruction, currentContent)
}

// ==================== 响应清洗 ====================

// CleanJSONResponse 清洗模型返回的 JSON 文本
// 去除 Markdown 代码块围栏，并截取首个 { 到末个 } 之间的内容
// 对已清洗文本重复调用结果不变
func CleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = content[7:]
	} else if strings.HasPrefix(content, "```") {
		content = content[3:]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}

	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end >= start {
		content = content[start : end+1]
	}
	return content
}
