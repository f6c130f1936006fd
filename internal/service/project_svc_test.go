package service

import (
	"context"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	apperr "oceanai_dev_v1/pkg/errors"
)

func setupProjectTestService(t *testing.T, provider TextProvider) *ProjectService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.SysUser{}, &model.Project{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	generator := NewGeneratorService(provider)
	exporter := NewExporterService(&ExporterConfig{}, nil)
	return NewProjectService(repository.NewProjectRepository(db), generator, exporter)
}

func mustCreateProject(t *testing.T, svc *ProjectService, docType model.DocumentType) *model.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), 1, "季度报告", "Renewable Energy", docType)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return project
}

func TestCreateProject_Validation(t *testing.T) {
	svc := setupProjectTestService(t, &fakeProvider{})
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, 1, "", "topic", model.DocTypeWord); err == nil {
		t.Error("空标题应失败")
	}
	if _, err := svc.CreateProject(ctx, 1, "t", "topic", "xlsx"); !apperr.Is(err, apperr.CodeInvalidParam) {
		t.Errorf("非法类型错误码 = %s", apperr.CodeOf(err))
	}
}

func TestGenerateContent_Persists(t *testing.T) {
	provider := &fakeProvider{response: `{"sections":[{"title":"概述","content":["第一段"]}]}`}
	svc := setupProjectTestService(t, provider)
	ctx := context.Background()

	project := mustCreateProject(t, svc, model.DocTypeWord)

	updated, err := svc.GenerateContent(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if !updated.HasContent() {
		t.Fatal("生成后应有内容")
	}

	// 重新查库确认已持久化
	reloaded, err := svc.GetProject(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if !strings.Contains(reloaded.GeneratedContent, `"type":"docx"`) {
		t.Errorf("落库内容 = %q", reloaded.GeneratedContent)
	}
}

func TestGenerateContentStream_PersistsBeforeComplete(t *testing.T) {
	payload := `{"slides":[{"title":"One","bullets":["a"]}]}`
	provider := &fakeProvider{chunks: []string{payload}}
	svc := setupProjectTestService(t, provider)
	ctx := context.Background()

	project := mustCreateProject(t, svc, model.DocTypeSlide)

	events, err := svc.GenerateContentStream(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("GenerateContentStream() error = %v", err)
	}

	for ev := range events {
		if ev.Type == StreamEventError {
			t.Fatalf("不期望的错误事件: %v", ev.Err)
		}
		if ev.Type == StreamEventComplete {
			// 收到 complete 时内容必须已经落库
			reloaded, err := svc.GetProject(ctx, project.ID, 1)
			if err != nil {
				t.Fatalf("GetProject() error = %v", err)
			}
			if !reloaded.HasContent() {
				t.Error("complete 事件到达前内容应已持久化")
			}
		}
	}
}

func TestRefineContent_RequiresExisting(t *testing.T) {
	svc := setupProjectTestService(t, &fakeProvider{})
	ctx := context.Background()

	project := mustCreateProject(t, svc, model.DocTypeWord)

	_, err := svc.RefineContent(ctx, project.ID, 1, "make it shorter")
	if !apperr.Is(err, apperr.CodeNoContent) {
		t.Errorf("无内容改写错误码 = %s", apperr.CodeOf(err))
	}
}

func TestUpdateContent_TypeGuard(t *testing.T) {
	svc := setupProjectTestService(t, &fakeProvider{})
	ctx := context.Background()

	project := mustCreateProject(t, svc, model.DocTypeWord)

	// 类型与项目不符
	_, err := svc.UpdateContent(ctx, project.ID, 1, `{"type":"pptx","slides":[]}`)
	if !apperr.Is(err, apperr.CodeInvalidParam) {
		t.Errorf("类型不符错误码 = %s", apperr.CodeOf(err))
	}

	// 合法更新
	updated, err := svc.UpdateContent(ctx, project.ID, 1, `{"type":"docx","sections":[{"title":"A","content":["x"]}]}`)
	if err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}
	if !updated.HasContent() {
		t.Error("更新后应有内容")
	}
}

func TestGetProject_OwnerScoped(t *testing.T) {
	svc := setupProjectTestService(t, &fakeProvider{})
	ctx := context.Background()

	project := mustCreateProject(t, svc, model.DocTypeWord)

	_, err := svc.GetProject(ctx, project.ID, 2)
	if !apperr.Is(err, apperr.CodeProjectNotFound) {
		t.Errorf("他人访问错误码 = %s", apperr.CodeOf(err))
	}
}

func TestExportProject_NoContent(t *testing.T) {
	svc := setupProjectTestService(t, &fakeProvider{})
	ctx := context.Background()

	project := mustCreateProject(t, svc, model.DocTypeWord)

	_, err := svc.ExportProject(ctx, project.ID, 1)
	if !apperr.Is(err, apperr.CodeNoContent) {
		t.Errorf("无内容导出错误码 = %s", apperr.CodeOf(err))
	}
}
