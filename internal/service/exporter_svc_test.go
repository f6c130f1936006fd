package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"oceanai_dev_v1/internal/model"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 测试用 SlidesPort ====================

// fakeSlides 在内存里模拟演示文稿的页面操作
type fakeSlides struct {
	pages []SlidePage // 当前页面顺序

	copyErr      error
	replaceErr   error
	duplicateErr error

	nextID       int
	replacements []map[string]string // 每次 ReplaceText 的记录
	replaceScope [][]string          // 每次 ReplaceText 的页面范围
	deleted      []string            // 被删除的幻灯片
	artifactGone bool                // 临时文件是否已清理
	exported     bool
}

func (f *fakeSlides) CopyTemplate(ctx context.Context, title string, templateID string) (string, error) {
	if f.copyErr != nil {
		return "", f.copyErr
	}
	return "pres-1", nil
}

func (f *fakeSlides) ListSlides(ctx context.Context, presentationID string) ([]SlidePage, error) {
	return f.pages, nil
}

func (f *fakeSlides) DuplicateSlide(ctx context.Context, presentationID string, slideID string, insertionIndex int) (string, error) {
	if f.duplicateErr != nil {
		return "", f.duplicateErr
	}
	f.nextID++
	newID := fmt.Sprintf("copy-%d", f.nextID)

	// 找到源页并在目标位置插入副本
	var src SlidePage
	for _, p := range f.pages {
		if p.ObjectID == slideID {
			src = p
			break
		}
	}
	dup := SlidePage{ObjectID: newID, TextRuns: append([]string(nil), src.TextRuns...)}

	pages := append([]SlidePage(nil), f.pages[:insertionIndex]...)
	pages = append(pages, dup)
	pages = append(pages, f.pages[insertionIndex:]...)
	f.pages = pages
	return newID, nil
}

func (f *fakeSlides) ReplaceText(ctx context.Context, presentationID string, replacements map[string]string, slideIDs []string) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replacements = append(f.replacements, replacements)
	f.replaceScope = append(f.replaceScope, slideIDs)
	return nil
}

func (f *fakeSlides) DeleteSlide(ctx context.Context, presentationID string, slideID string) error {
	f.deleted = append(f.deleted, slideID)
	pages := f.pages[:0]
	for _, p := range f.pages {
		if p.ObjectID != slideID {
			pages = append(pages, p)
		}
	}
	f.pages = pages
	return nil
}

func (f *fakeSlides) Export(ctx context.Context, presentationID string) ([]byte, error) {
	f.exported = true
	return []byte("pptx-bytes"), nil
}

func (f *fakeSlides) ExportPDF(ctx context.Context, presentationID string) ([]byte, error) {
	f.exported = true
	return []byte("pdf-bytes"), nil
}

func (f *fakeSlides) DeleteArtifact(ctx context.Context, presentationID string) {
	f.artifactGone = true
}

func templatePages() []SlidePage {
	return []SlidePage{
		{ObjectID: "title-slide", TextRuns: []string{"{{MAIN_TITLE}}", "{{SUBTITLE}}"}},
		{ObjectID: "agenda", TextRuns: []string{"Agenda"}},
		{ObjectID: "content-tpl", TextRuns: []string{"{{SLIDE_TITLE}}", "{{SLIDE_CONTENT}}"}},
		{ObjectID: "thanks", TextRuns: []string{"Thank you"}},
	}
}

// ==================== 模板页定位 ====================

func TestFindContentSlide_ScoreTwoWins(t *testing.T) {
	idx := findContentSlide(templatePages())
	if idx != 2 {
		t.Errorf("定位下标 = %d, 期望 2 (同时含标题和内容占位符)", idx)
	}
}

func TestFindContentSlide_ContentOnly(t *testing.T) {
	pages := []SlidePage{
		{ObjectID: "a", TextRuns: []string{"cover"}},
		{ObjectID: "b", TextRuns: []string{"{{SLIDE_CONTENT}}"}},
	}
	if idx := findContentSlide(pages); idx != 1 {
		t.Errorf("定位下标 = %d, 期望 1", idx)
	}
}

func TestFindContentSlide_EarliestWinsOnTie(t *testing.T) {
	pages := []SlidePage{
		{ObjectID: "a", TextRuns: []string{"cover"}},
		{ObjectID: "b", TextRuns: []string{"{{SLIDE_CONTENT}}"}},
		{ObjectID: "c", TextRuns: []string{"{{SLIDE_CONTENT}}"}},
	}
	if idx := findContentSlide(pages); idx != 1 {
		t.Errorf("同分应取靠前的页: %d", idx)
	}
}

func TestFindContentSlide_FallbackSmallDeck(t *testing.T) {
	pages := []SlidePage{
		{ObjectID: "a", TextRuns: []string{"x"}},
		{ObjectID: "b", TextRuns: []string{"y"}},
		{ObjectID: "c", TextRuns: []string{"z"}},
	}
	if idx := findContentSlide(pages); idx != 1 {
		t.Errorf("小模板兜底下标 = %d, 期望 1", idx)
	}
}

func TestFindContentSlide_FallbackLargeDeck(t *testing.T) {
	pages := []SlidePage{
		{ObjectID: "a"}, {ObjectID: "b"}, {ObjectID: "c"}, {ObjectID: "d"}, {ObjectID: "e"},
	}
	if idx := findContentSlide(pages); idx != 3 {
		t.Errorf("大模板兜底下标 = %d, 期望 3", idx)
	}
}

// ==================== 幻灯片合成 ====================

func newTestExporter(slides SlidesPort) *ExporterService {
	return NewExporterService(&ExporterConfig{SlidesTemplateID: "tpl-1"}, slides)
}

func TestSynthesize_FullFlow(t *testing.T) {
	fake := &fakeSlides{pages: templatePages()}
	exporter := newTestExporter(fake)

	content := model.NewSlideContent([]model.Slide{
		{Title: "First", Bullets: []string{"a", "b"}},
		{Title: "Second", Bullets: []string{"c"}},
		{Title: "Third", Bullets: nil},
	})

	data, err := exporter.ExportFile(context.Background(), "Quarterly Review", content)
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if string(data) != "pptx-bytes" {
		t.Errorf("导出内容不正确: %q", data)
	}

	// 标题页替换: 主标题 + 固定副标题，且只作用于标题页
	first := fake.replacements[0]
	if first[placeholderMainTitle] != "Quarterly Review" {
		t.Errorf("主标题替换 = %q", first[placeholderMainTitle])
	}
	if first[placeholderSubtitle] != "Generated by OceanAI" {
		t.Errorf("副标题替换 = %q", first[placeholderSubtitle])
	}
	if len(fake.replaceScope[0]) != 1 || fake.replaceScope[0][0] != "title-slide" {
		t.Errorf("标题替换范围 = %v", fake.replaceScope[0])
	}

	// 每页各一次替换，范围限定在新复制的页面
	if len(fake.replacements) != 4 {
		t.Fatalf("替换次数 = %d, 期望 1 次标题 + 3 次内容", len(fake.replacements))
	}
	second := fake.replacements[1]
	if second[placeholderSlideTitle] != "First" {
		t.Errorf("第一页标题替换 = %q", second[placeholderSlideTitle])
	}
	if second[placeholderSlideContent] != "a\nb" {
		t.Errorf("要点应以换行拼接: %q", second[placeholderSlideContent])
	}
	// 空要点列表替换为空串
	if fake.replacements[3][placeholderSlideContent] != "" {
		t.Errorf("无要点的页应替换为空串: %q", fake.replacements[3][placeholderSlideContent])
	}

	// 模板页被删除，副本保留且连续排列
	if len(fake.deleted) != 1 || fake.deleted[0] != "content-tpl" {
		t.Errorf("应删除模板内容页: %v", fake.deleted)
	}
	wantOrder := []string{"title-slide", "agenda", "copy-1", "copy-2", "copy-3", "thanks"}
	for i, p := range fake.pages {
		if p.ObjectID != wantOrder[i] {
			t.Fatalf("最终页面顺序 = %v, 期望 %v", fake.pages, wantOrder)
		}
	}

	// 临时文件已清理
	if !fake.artifactGone {
		t.Error("导出成功后仍应删除 Drive 临时文件")
	}
}

func TestSynthesize_TooFewSlides(t *testing.T) {
	fake := &fakeSlides{pages: []SlidePage{{ObjectID: "only-one"}}}
	exporter := newTestExporter(fake)

	content := model.NewSlideContent([]model.Slide{{Title: "A"}})
	_, err := exporter.ExportFile(context.Background(), "T", content)
	if err == nil {
		t.Fatal("模板少于 2 页应失败")
	}
	if !apperr.Is(err, apperr.CodeTemplateShape) {
		t.Errorf("错误码 = %s, 期望模板形状错误", apperr.CodeOf(err))
	}
	if fake.exported {
		t.Error("失败时不应导出")
	}
	if !fake.artifactGone {
		t.Error("失败时也应清理 Drive 临时文件")
	}
}

func TestSynthesize_MidFailureCleansUp(t *testing.T) {
	fake := &fakeSlides{pages: templatePages(), duplicateErr: errors.New("quota exceeded")}
	exporter := newTestExporter(fake)

	content := model.NewSlideContent([]model.Slide{{Title: "A"}})
	_, err := exporter.ExportFile(context.Background(), "T", content)
	if err == nil {
		t.Fatal("复制页面失败应返回错误")
	}
	if !fake.artifactGone {
		t.Error("中途失败也应清理 Drive 临时文件")
	}
	if fake.exported {
		t.Error("失败后不应导出")
	}
}

func TestSynthesize_NoTemplateConfigured(t *testing.T) {
	exporter := NewExporterService(&ExporterConfig{}, &fakeSlides{pages: templatePages()})

	content := model.NewSlideContent([]model.Slide{{Title: "A"}})
	_, err := exporter.ExportFile(context.Background(), "T", content)
	if err == nil {
		t.Fatal("未配置模板 ID 应失败")
	}
	if !apperr.Is(err, apperr.CodeSynthesisFailed) {
		t.Errorf("错误码 = %s", apperr.CodeOf(err))
	}
}

func TestExportFile_EmptyContent(t *testing.T) {
	exporter := newTestExporter(&fakeSlides{})

	_, err := exporter.ExportFile(context.Background(), "T", model.NewSlideContent(nil))
	if err == nil {
		t.Fatal("空内容应失败")
	}
	if !apperr.Is(err, apperr.CodeNoContent) {
		t.Errorf("错误码 = %s, 期望无内容", apperr.CodeOf(err))
	}
}

func TestExportPDFPreview_WordRejected(t *testing.T) {
	exporter := newTestExporter(&fakeSlides{})

	content := model.NewWordContent([]model.Section{{Title: "A", Paragraphs: []string{"x"}}})
	_, err := exporter.ExportPDFPreview(context.Background(), "T", content)
	if err == nil {
		t.Fatal("Word 项目不支持 PDF 预览")
	}
}

func TestExportPDFPreview_Slide(t *testing.T) {
	fake := &fakeSlides{pages: templatePages()}
	exporter := newTestExporter(fake)

	content := model.NewSlideContent([]model.Slide{{Title: "A", Bullets: []string{"x"}}})
	data, err := exporter.ExportPDFPreview(context.Background(), "T", content)
	if err != nil {
		t.Fatalf("ExportPDFPreview() error = %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Errorf("预览内容 = %q", data)
	}
}

// ==================== Word 导出 ====================

func TestExportFile_Docx(t *testing.T) {
	exporter := newTestExporter(nil)

	content := model.NewWordContent([]model.Section{
		{Title: "Introduction", Paragraphs: []string{"First paragraph.", "Second paragraph."}},
		{Title: "Conclusion", Paragraphs: []string{"Final thoughts."}},
	})

	data, err := exporter.ExportFile(context.Background(), "My Report", content)
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}

	// 产物应是合法 zip 且包含必要部件
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("导出产物不是合法 zip: %v", err)
	}

	var docXML string
	found := map[string]bool{}
	for _, f := range zr.File {
		found[f.Name] = true
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("打开 document.xml 失败: %v", err)
			}
			raw, _ := io.ReadAll(rc)
			rc.Close()
			docXML = string(raw)
		}
	}

	for _, part := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml"} {
		if !found[part] {
			t.Errorf("缺少部件 %s", part)
		}
	}

	if !strings.Contains(docXML, "My Report") {
		t.Error("正文应包含文档标题")
	}
	if !strings.Contains(docXML, "Introduction") || !strings.Contains(docXML, "Final thoughts.") {
		t.Error("正文应包含章节标题与段落")
	}
}

func TestBuildDocumentXML_EscapesText(t *testing.T) {
	xml := buildDocumentXML("A & B", []model.Section{
		{Title: "<script>", Paragraphs: []string{`say "hi"`}},
	})

	if strings.Contains(xml, "A & B<") || !strings.Contains(xml, "A &amp; B") {
		t.Errorf("标题未转义: %s", xml)
	}
	if strings.Contains(xml, "<script>") {
		t.Errorf("章节标题未转义: %s", xml)
	}
}

// ==================== 导出文件名 ====================

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("My Report", model.DocTypeWord); got != "My Report.docx" {
		t.Errorf("ExportFilename() = %q", got)
	}
	if got := ExportFilename("  ", model.DocTypeSlide); got != "document.pptx" {
		t.Errorf("空标题兜底 = %q", got)
	}
}
