package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oceanai_dev_v1/internal/model"
)

func setupProjectTestDB(t *testing.T) ProjectRepository {
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
	return NewProjectRepository(db)
}

func newTestProject(ownerID int64, title string) *model.Project {
	return &model.Project{
		Title:        title,
		Topic:        "Renewable Energy",
		DocumentType: model.DocTypeWord,
		OwnerID:      ownerID,
	}
}

func TestProjectRepository_CreateAndGet(t *testing.T) {
	repo := setupProjectTestDB(t)
	ctx := context.Background()

	project := newTestProject(1, "报告一")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if project.ID == 0 {
		t.Fatal("创建后应生成 ID")
	}

	got, err := repo.GetByIDAndOwner(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("GetByIDAndOwner() error = %v", err)
	}
	if got == nil || got.Title != "报告一" || got.DocumentType != model.DocTypeWord {
		t.Errorf("查询结果 = %+v", got)
	}
}

func TestProjectRepository_OwnerScoping(t *testing.T) {
	repo := setupProjectTestDB(t)
	ctx := context.Background()

	project := newTestProject(1, "私有项目")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// 其他用户查不到，也不报错
	got, err := repo.GetByIDAndOwner(ctx, project.ID, 2)
	if err != nil {
		t.Fatalf("GetByIDAndOwner() error = %v", err)
	}
	if got != nil {
		t.Error("不应查到他人的项目")
	}
}

func TestProjectRepository_ListByOwner(t *testing.T) {
	repo := setupProjectTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"一", "二"} {
		if err := repo.Create(ctx, newTestProject(1, title)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := repo.Create(ctx, newTestProject(2, "别人的")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	projects, err := repo.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("项目数 = %d, 期望 2", len(projects))
	}
	for _, p := range projects {
		if p.OwnerID != 1 {
			t.Errorf("列表混入他人项目: %+v", p)
		}
	}
}

func TestProjectRepository_UpdateContent(t *testing.T) {
	repo := setupProjectTestDB(t)
	ctx := context.Background()

	project := newTestProject(1, "报告")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if project.HasContent() {
		t.Error("新项目不应有内容")
	}

	contentJSON := `{"type":"docx","sections":[{"title":"A","content":["x"]}]}`
	if err := repo.UpdateContent(ctx, project.ID, contentJSON); err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}

	got, err := repo.GetByIDAndOwner(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("GetByIDAndOwner() error = %v", err)
	}
	if got.GeneratedContent != contentJSON {
		t.Errorf("内容 = %q", got.GeneratedContent)
	}
	if !got.HasContent() {
		t.Error("更新后 HasContent 应为 true")
	}
}

func TestProjectRepository_Delete(t *testing.T) {
	repo := setupProjectTestDB(t)
	ctx := context.Background()

	project := newTestProject(1, "待删除")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := repo.GetByIDAndOwner(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("GetByIDAndOwner() error = %v", err)
	}
	if got != nil {
		t.Error("删除后不应再查到项目")
	}
}
