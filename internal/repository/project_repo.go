package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"oceanai_dev_v1/internal/model"
)

// ==================== ProjectRepository 项目仓库 ====================

// ProjectRepository 项目仓库接口
// 所有查询都带 ownerID 过滤，杜绝越权访问他人项目
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Project, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	UpdateContent(ctx context.Context, id int64, contentJSON string) error
	Delete(ctx context.Context, id int64) error
}

// ==================== 实现 ====================

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目仓库
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepository) UpdateContent(ctx context.Context, id int64, contentJSON string) error {
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		Update("generated_content", contentJSON).Error
}

func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Project{}, id).Error
}
