package dto

import (
	"encoding/json"
	"time"

	"oceanai_dev_v1/internal/model"
)

// ==================== 项目 ====================

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Topic        string `json:"topic" binding:"required,max=500"`
	DocumentType string `json:"document_type" binding:"required,oneof=docx pptx"`
}

// RefineRequest 内容改写请求
type RefineRequest struct {
	RefinementPrompt string `json:"refinement_prompt" binding:"required,max=2000"`
}

// UpdateContentRequest 手动更新内容请求
// Content 为完整的结构化内容 JSON
type UpdateContentRequest struct {
	Content json.RawMessage `json:"content" binding:"required"`
}

// ProjectInfo 项目响应
type ProjectInfo struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Topic            string          `json:"topic"`
	DocumentType     string          `json:"document_type"`
	GeneratedContent json.RawMessage `json:"generated_content,omitempty"`
	HasContent       bool            `json:"has_content"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToProjectInfo 模型转响应
// 已生成内容是 JSON 文本，直接内联进响应，避免前端二次解析
func ToProjectInfo(p *model.Project) *ProjectInfo {
	if p == nil {
		return nil
	}
	info := &ProjectInfo{
		ID:           p.ID,
		Title:        p.Title,
		Topic:        p.Topic,
		DocumentType: string(p.DocumentType),
		HasContent:   p.HasContent(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.HasContent() {
		info.GeneratedContent = json.RawMessage(p.GeneratedContent)
	}
	return info
}

// ToProjectInfoList 模型列表转响应列表
func ToProjectInfoList(projects []model.Project) []*ProjectInfo {
	list := make([]*ProjectInfo, 0, len(projects))
	for i := range projects {
		list = append(list, ToProjectInfo(&projects[i]))
	}
	return list
}
