package service

import (
	"context"
	"fmt"
	"strings"

	"oceanai_dev_v1/internal/model"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 文件导出服务 ====================

// 模板占位符约定
const (
	placeholderMainTitle    = "{{MAIN_TITLE}}"
	placeholderSubtitle     = "{{SUBTITLE}}"
	placeholderSlideTitle   = "{{SLIDE_TITLE}}"
	placeholderSlideContent = "{{SLIDE_CONTENT}}"

	defaultSubtitle = "Generated by OceanAI"
)

// ExporterConfig 导出服务配置
type ExporterConfig struct {
	SlidesTemplateID string // Google Slides 模板文件 ID
}

// ExporterService 将结构化内容导出为实际文件
type ExporterService struct {
	cfg    *ExporterConfig
	slides SlidesPort
}

// NewExporterService 创建导出服务
func NewExporterService(cfg *ExporterConfig, slides SlidesPort) *ExporterService {
	return &ExporterService{cfg: cfg, slides: slides}
}

// ExportFile 按文档类型导出文件字节
func (s *ExporterService) ExportFile(ctx context.Context, title string, content *model.DocumentContent) ([]byte, error) {
	if content == nil || content.IsEmpty() {
		return nil, apperr.New(apperr.CodeNoContent, "项目尚无可导出的内容")
	}

	switch content.Type {
	case model.DocTypeWord:
		return buildDocx(title, content.Sections)
	case model.DocTypeSlide:
		return s.synthesizeSlides(ctx, title, content.Slides)
	default:
		return nil, apperr.Newf(apperr.CodeInvalidParam, "不支持的文档类型: %s", content.Type)
	}
}

// ExportPDFPreview 将幻灯片内容合成后导出为 PDF，用于前端预览
func (s *ExporterService) ExportPDFPreview(ctx context.Context, title string, content *model.DocumentContent) ([]byte, error) {
	if content == nil || content.IsEmpty() {
		return nil, apperr.New(apperr.CodeNoContent, "项目尚无可预览的内容")
	}
	if content.Type != model.DocTypeSlide {
		return nil, apperr.New(apperr.CodeInvalidParam, "仅幻灯片项目支持 PDF 预览")
	}
	return s.synthesize(ctx, title, content.Slides, SlidesPort.ExportPDF)
}

// ==================== 幻灯片合成 ====================

// synthesizeSlides 基于模板合成演示文稿并导出为 PPTX
func (s *ExporterService) synthesizeSlides(ctx context.Context, title string, slides []model.Slide) ([]byte, error) {
	return s.synthesize(ctx, title, slides, SlidesPort.Export)
}

// synthesize 基于模板合成演示文稿并按指定格式导出
// 流程: 复制模板 -> 定位内容模板页 -> 替换标题页 -> 逐页复制注入 -> 删除模板页 -> 导出
// 无论成功失败，Drive 中的临时文件最终都会删除
func (s *ExporterService) synthesize(ctx context.Context, title string, slides []model.Slide, export func(SlidesPort, context.Context, string) ([]byte, error)) ([]byte, error) {
	if s.slides == nil || s.cfg.SlidesTemplateID == "" {
		return nil, apperr.New(apperr.CodeSynthesisFailed, "幻灯片模板未配置 (GOOGLE_SLIDES_TEMPLATE_ID)")
	}

	presentationID, err := s.slides.CopyTemplate(ctx, title, s.cfg.SlidesTemplateID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeSynthesisFailed, "幻灯片合成失败")
	}
	// 临时文件必须清理，失败路径也不例外
	defer s.slides.DeleteArtifact(context.WithoutCancel(ctx), presentationID)

	if err := s.populateSlides(ctx, presentationID, title, slides); err != nil {
		return nil, err
	}

	data, err := export(s.slides, ctx, presentationID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeExportFailed, "幻灯片导出失败")
	}
	return data, nil
}

// populateSlides 在已复制的演示文稿上完成标题替换与逐页注入
func (s *ExporterService) populateSlides(ctx context.Context, presentationID string, title string, slides []model.Slide) error {
	pages, err := s.slides.ListSlides(ctx, presentationID)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeSynthesisFailed, "幻灯片合成失败")
	}
	if len(pages) < 2 {
		return apperr.New(apperr.CodeTemplateShape, "模板至少需要 2 页幻灯片")
	}

	// 首页固定为标题页
	titleSlideID := pages[0].ObjectID
	contentIndex := findContentSlide(pages)
	contentSlideID := pages[contentIndex].ObjectID

	err = s.slides.ReplaceText(ctx, presentationID, map[string]string{
		placeholderMainTitle: title,
		placeholderSubtitle:  defaultSubtitle,
	}, []string{titleSlideID})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeSynthesisFailed, "标题页替换失败")
	}

	for i, slide := range slides {
		if ctx.Err() != nil {
			return apperr.Wrap(ctx.Err(), apperr.CodeSynthesisFailed, "幻灯片合成被取消")
		}

		// 第 i 页插入到模板页之后的第 i 个位置，保证生成页连续有序
		insertionIndex := contentIndex + 1 + i
		newSlideID, err := s.slides.DuplicateSlide(ctx, presentationID, contentSlideID, insertionIndex)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeSynthesisFailed, "复制内容页失败")
		}

		err = s.slides.ReplaceText(ctx, presentationID, map[string]string{
			placeholderSlideTitle:   slide.Title,
			placeholderSlideContent: strings.Join(slide.Bullets, "\n"),
		}, []string{newSlideID})
		if err != nil {
			return apperr.Wrap(err, apperr.CodeSynthesisFailed, "内容页替换失败")
		}
	}

	// 模板内容页本身不出现在成品中
	if err := s.slides.DeleteSlide(ctx, presentationID, contentSlideID); err != nil {
		return apperr.Wrap(err, apperr.CodeSynthesisFailed, "删除模板页失败")
	}
	return nil
}

// findContentSlide 定位内容模板页的下标
// 逐页检查文本: 含 {{SLIDE_CONTENT}} 计 1 分，含 {{SLIDE_TITLE}} 计 1 分；
// 取分数最高的页，同分取靠前者，满分 2 分即停止；
// 一页都没命中时兜底: 页数大于 3 取下标 3，否则取下标 1
func findContentSlide(pages []SlidePage) int {
	bestIndex := -1
	bestScore := 0

	for i, page := range pages {
		score := 0
		hasContent := false
		hasTitle := false
		for _, run := range page.TextRuns {
			if strings.Contains(run, placeholderSlideContent) {
				hasContent = true
			}
			if strings.Contains(run, placeholderSlideTitle) {
				hasTitle = true
			}
		}
		if hasContent {
			score++
		}
		if hasTitle {
			score++
		}
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
		if bestScore == 2 {
			break
		}
	}

	if bestIndex != -1 {
		return bestIndex
	}
	if len(pages) > 3 {
		return 3
	}
	return 1
}

// ==================== Word 导出 ====================

// buildDocx 将章节内容写成 docx 文件字节
func buildDocx(title string, sections []model.Section) ([]byte, error) {
	data, err := writeDocxArchive(title, sections)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeExportFailed, "Word 文档导出失败")
	}
	return data, nil
}

// ExportFilename 导出文件名: 项目标题 + 类型扩展名
func ExportFilename(title string, docType model.DocumentType) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s.%s", name, docType)
}

// ContentTypeFor 导出文件对应的 MIME 类型
func ContentTypeFor(docType model.DocumentType) string {
	if docType == model.DocTypeWord {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return mimePPTX
}
