package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"oceanai_dev_v1/internal/model"
)

// ==================== DocumentRepository 文档仓库 ====================

// DocumentRepository 上传文档仓库接口
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Document, error)
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Document, error)
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id int64) error

	// ListStoredFilenames 所有文档的存储文件名，供清理任务比对孤儿文件
	ListStoredFilenames(ctx context.Context) ([]string, error)
}

// ==================== 实现 ====================

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓库
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *documentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *documentRepository) ListStoredFilenames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Pluck("filename", &names).Error
	return names, err
}
