package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"oceanai_dev_v1/internal/model"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 测试用 Provider ====================

// fakeProvider 返回预置响应的文本提供方
type fakeProvider struct {
	response   string
	chunks     []string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeProvider) GenerateOnce(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, prompt string) (TextStream, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &fakeStream{chunks: f.chunks}, nil
}

type fakeStream struct {
	chunks []string
	pos    int
	err    error
}

func (s *fakeStream) Next() (string, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// ==================== 响应清洗 ====================

func TestCleanJSONResponse_Fenced(t *testing.T) {
	raw := "```json\n{\"sections\": []}\n```"
	got := CleanJSONResponse(raw)
	if got != `{"sections": []}` {
		t.Errorf("清洗结果 = %q", got)
	}
}

func TestCleanJSONResponse_BareFence(t *testing.T) {
	raw := "```\n{\"slides\": []}\n```"
	got := CleanJSONResponse(raw)
	if got != `{"slides": []}` {
		t.Errorf("清洗结果 = %q", got)
	}
}

func TestCleanJSONResponse_SurroundingProse(t *testing.T) {
	raw := "Here is your document:\n{\"sections\": [{\"title\": \"A\", \"content\": []}]}\nHope this helps!"
	got := CleanJSONResponse(raw)
	if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
		t.Errorf("应截取到花括号边界: %q", got)
	}
	if strings.Contains(got, "Hope") {
		t.Errorf("不应保留尾部文本: %q", got)
	}
}

func TestCleanJSONResponse_Idempotent(t *testing.T) {
	raw := "```json\n{\"sections\": []}\n```"
	once := CleanJSONResponse(raw)
	twice := CleanJSONResponse(once)
	if once != twice {
		t.Errorf("重复清洗结果应不变: %q vs %q", once, twice)
	}
}

func TestCleanJSONResponse_NoBraces(t *testing.T) {
	got := CleanJSONResponse("  plain text  ")
	if got != "plain text" {
		t.Errorf("无花括号时仅去除空白: %q", got)
	}
}

// ==================== 文档生成 ====================

func TestGenerateDocument_Word(t *testing.T) {
	provider := &fakeProvider{
		response: "```json\n{\"sections\": [{\"title\": \"Overview\", \"content\": [\"para one\", \"para two\"]}]}\n```",
	}
	svc := NewGeneratorService(provider)

	content, err := svc.GenerateDocument(context.Background(), "Renewable Energy", model.DocTypeWord)
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}

	if content.Type != model.DocTypeWord {
		t.Errorf("类型 = %s, 期望 docx", content.Type)
	}
	if len(content.Sections) != 1 || content.Sections[0].Title != "Overview" {
		t.Errorf("章节解析不正确: %+v", content.Sections)
	}
	if len(content.Sections[0].Paragraphs) != 2 {
		t.Errorf("段落数量 = %d, 期望 2", len(content.Sections[0].Paragraphs))
	}
	if !strings.Contains(provider.lastPrompt, `"Renewable Energy"`) {
		t.Error("提示词应包含主题")
	}
	if !strings.Contains(provider.lastPrompt, "3-5 well-structured sections") {
		t.Error("Word 生成应使用章节提示词")
	}
}

func TestGenerateDocument_Slide(t *testing.T) {
	provider := &fakeProvider{
		response: `{"slides": [{"title": "Intro", "bullets": ["a", "b", "c"]}]}`,
	}
	svc := NewGeneratorService(provider)

	content, err := svc.GenerateDocument(context.Background(), "AI Trends", model.DocTypeSlide)
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}

	if content.Type != model.DocTypeSlide {
		t.Errorf("类型 = %s, 期望 pptx", content.Type)
	}
	if len(content.Slides) != 1 || len(content.Slides[0].Bullets) != 3 {
		t.Errorf("幻灯片解析不正确: %+v", content.Slides)
	}
	if !strings.Contains(provider.lastPrompt, "Generate 5 slides") {
		t.Error("演示文稿生成应使用幻灯片提示词")
	}
}

func TestGenerateDocument_MissingKeyIsEmpty(t *testing.T) {
	provider := &fakeProvider{response: `{}`}
	svc := NewGeneratorService(provider)

	content, err := svc.GenerateDocument(context.Background(), "topic", model.DocTypeWord)
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}
	if !content.IsEmpty() {
		t.Errorf("缺失键名应得到空内容: %+v", content)
	}
}

func TestGenerateDocument_UnparseableFails(t *testing.T) {
	provider := &fakeProvider{response: "I cannot produce JSON today."}
	svc := NewGeneratorService(provider)

	_, err := svc.GenerateDocument(context.Background(), "topic", model.DocTypeWord)
	if err == nil {
		t.Fatal("不可解析的响应应返回错误")
	}
	if !apperr.Is(err, apperr.CodeGenerationFailed) {
		t.Errorf("错误码 = %s, 期望生成失败", apperr.CodeOf(err))
	}
}

func TestGenerateDocument_InvalidType(t *testing.T) {
	svc := NewGeneratorService(&fakeProvider{})

	_, err := svc.GenerateDocument(context.Background(), "topic", model.DocumentType("xlsx"))
	if err == nil {
		t.Fatal("未知类型应返回错误")
	}
	if !apperr.Is(err, apperr.CodeInvalidParam) {
		t.Errorf("错误码 = %s, 期望参数错误", apperr.CodeOf(err))
	}
}

// ==================== 内容改写 ====================

func TestRefineContent_KeepsType(t *testing.T) {
	provider := &fakeProvider{
		response: `{"sections": [{"title": "Refined", "content": ["better text"]}]}`,
	}
	svc := NewGeneratorService(provider)

	current := `{"type":"docx","sections":[{"title":"Old","content":["old text"]}]}`
	content, err := svc.RefineContent(context.Background(), current, "make it formal", model.DocTypeWord)
	if err != nil {
		t.Fatalf("RefineContent() error = %v", err)
	}

	if content.Type != model.DocTypeWord {
		t.Errorf("改写结果类型 = %s, 应保持 docx", content.Type)
	}
	if content.Sections[0].Title != "Refined" {
		t.Errorf("改写内容不正确: %+v", content.Sections)
	}
	if !strings.Contains(provider.lastPrompt, "DOCX") {
		t.Error("改写提示词应包含大写文档类型")
	}
	if !strings.Contains(provider.lastPrompt, `"make it formal"`) {
		t.Error("改写提示词应包含用户指令")
	}
}

func TestRefineContent_KindMismatch(t *testing.T) {
	// 模型把章节文档改写成了幻灯片结构
	provider := &fakeProvider{
		response: `{"slides": [{"title": "Wrong", "bullets": ["x"]}]}`,
	}
	svc := NewGeneratorService(provider)

	current := `{"type":"docx","sections":[{"title":"Old","content":["text"]}]}`
	_, err := svc.RefineContent(context.Background(), current, "improve", model.DocTypeWord)
	if err == nil {
		t.Fatal("结构不匹配应返回错误，不应静默转换类型")
	}
	if !apperr.Is(err, apperr.CodeKindMismatch) {
		t.Errorf("错误码 = %s, 期望结构不匹配", apperr.CodeOf(err))
	}
}

func TestRefineContent_EmptyCurrentContent(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewGeneratorService(provider)

	_, err := svc.RefineContent(context.Background(), "   ", "improve", model.DocTypeWord)
	if err == nil {
		t.Fatal("无内容时改写应失败")
	}
	if !apperr.Is(err, apperr.CodeNoContent) {
		t.Errorf("错误码 = %s, 期望无内容", apperr.CodeOf(err))
	}
	if provider.calls != 0 {
		t.Error("校验失败时不应调用模型")
	}
}

func TestRefineContent_EmptyInstruction(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewGeneratorService(provider)

	_, err := svc.RefineContent(context.Background(), `{"type":"docx","sections":[]}`, "", model.DocTypeWord)
	if err == nil {
		t.Fatal("空指令应失败")
	}
	if provider.calls != 0 {
		t.Error("校验失败时不应调用模型")
	}
}
