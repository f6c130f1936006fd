package service

import (
	"context"

	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 项目服务 ====================

// ProjectService 项目 CRUD 与生成流程编排
type ProjectService struct {
	projectRepo repository.ProjectRepository
	generator   *GeneratorService
	exporter    *ExporterService
}

// NewProjectService 创建项目服务
func NewProjectService(projectRepo repository.ProjectRepository, generator *GeneratorService, exporter *ExporterService) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		generator:   generator,
		exporter:    exporter,
	}
}

// CreateProject 创建项目
// 文档类型在创建时确定，后续不可修改
func (s *ProjectService) CreateProject(ctx context.Context, ownerID int64, title, topic string, docType model.DocumentType) (*model.Project, error) {
	if title == "" || topic == "" {
		return nil, apperr.New(apperr.CodeInvalidParam, "标题和主题不能为空")
	}
	if !docType.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidParam, "不支持的文档类型: %s", docType)
	}

	project := &model.Project{
		Title:        title,
		Topic:        topic,
		DocumentType: docType,
		OwnerID:      ownerID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "创建项目失败")
	}
	return project, nil
}

// ListProjects 列出用户的所有项目
func (s *ProjectService) ListProjects(ctx context.Context, ownerID int64) ([]model.Project, error) {
	projects, err := s.projectRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询项目失败")
	}
	return projects, nil
}

// GetProject 获取项目，不存在或不属于该用户时返回未找到
func (s *ProjectService) GetProject(ctx context.Context, id, ownerID int64) (*model.Project, error) {
	project, err := s.projectRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询项目失败")
	}
	if project == nil {
		return nil, apperr.New(apperr.CodeProjectNotFound, "项目不存在")
	}
	return project, nil
}

// DeleteProject 删除项目
func (s *ProjectService) DeleteProject(ctx context.Context, id, ownerID int64) error {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, project.ID); err != nil {
		return apperr.Wrap(err, apperr.CodeDatabaseError, "删除项目失败")
	}
	return nil
}

// ==================== 内容生成 ====================

// GenerateContent 一次性生成项目内容并落库
func (s *ProjectService) GenerateContent(ctx context.Context, id, ownerID int64) (*model.Project, error) {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	content, err := s.generator.GenerateDocument(ctx, project.Topic, project.DocumentType)
	if err != nil {
		return nil, err
	}

	return s.saveContent(ctx, project, content)
}

// GenerateContentStream 流式生成项目内容
// chunk 事件原样转发；收到 complete 后先落库再转发，前端收到 complete 时内容已持久化
func (s *ProjectService) GenerateContentStream(ctx context.Context, id, ownerID int64) (<-chan StreamEvent, error) {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	upstream, err := s.generator.GenerateDocumentStream(ctx, project.Topic, project.DocumentType)
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		for ev := range upstream {
			if ev.Type == StreamEventComplete {
				if _, err := s.saveContent(ctx, project, ev.Content); err != nil {
					ev = StreamEvent{Type: StreamEventError, Err: err}
				}
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// RefineContent 按用户指令改写项目内容并落库
func (s *ProjectService) RefineContent(ctx context.Context, id, ownerID int64, instruction string) (*model.Project, error) {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !project.HasContent() {
		return nil, apperr.New(apperr.CodeNoContent, "项目尚无可改写的内容，请先生成")
	}

	content, err := s.generator.RefineContent(ctx, project.GeneratedContent, instruction, project.DocumentType)
	if err != nil {
		return nil, err
	}

	return s.saveContent(ctx, project, content)
}

// UpdateContent 手动更新项目内容 (前端编辑器保存)
// 内容必须是合法的结构化 JSON，且类型与项目一致
func (s *ProjectService) UpdateContent(ctx context.Context, id, ownerID int64, rawContent string) (*model.Project, error) {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	content, err := model.ParseContent(rawContent)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInvalidParam, "内容格式不合法")
	}
	if content.Type != project.DocumentType {
		return nil, apperr.Newf(apperr.CodeInvalidParam, "内容类型 %s 与项目类型 %s 不符", content.Type, project.DocumentType)
	}

	return s.saveContent(ctx, project, content)
}

// saveContent 将结构化内容编码后写回项目
func (s *ProjectService) saveContent(ctx context.Context, project *model.Project, content *model.DocumentContent) (*model.Project, error) {
	encoded, err := content.Encode()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternalError, "内容编码失败")
	}
	if err := s.projectRepo.UpdateContent(ctx, project.ID, encoded); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "保存内容失败")
	}
	project.GeneratedContent = encoded
	return project, nil
}

// ==================== 导出 ====================

// ExportResult 导出结果
type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportProject 导出项目为文件
func (s *ProjectService) ExportProject(ctx context.Context, id, ownerID int64) (*ExportResult, error) {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	content, err := s.loadContent(project)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.ExportFile(ctx, project.Title, content)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Data:        data,
		Filename:    ExportFilename(project.Title, project.DocumentType),
		ContentType: ContentTypeFor(project.DocumentType),
	}, nil
}

// PreviewPDF 幻灯片项目的 PDF 预览
func (s *ProjectService) PreviewPDF(ctx context.Context, id, ownerID int64) ([]byte, error) {
	project, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	content, err := s.loadContent(project)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportPDFPreview(ctx, project.Title, content)
}

// loadContent 解析项目已保存的内容
func (s *ProjectService) loadContent(project *model.Project) (*model.DocumentContent, error) {
	if !project.HasContent() {
		return nil, apperr.New(apperr.CodeNoContent, "项目尚无内容，请先生成")
	}
	content, err := model.ParseContent(project.GeneratedContent)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternalError, "已保存内容解析失败")
	}
	return content, nil
}
