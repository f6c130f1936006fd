package dto

import (
	"encoding/json"
	"time"

	"oceanai_dev_v1/internal/model"
)

// ==================== 文档 ====================

// DocumentListRequest 文档列表请求
type DocumentListRequest struct {
	Page     int `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// DocumentInfo 文档响应
type DocumentInfo struct {
	ID               int64           `json:"id"`
	OriginalFilename string          `json:"original_filename"`
	FileURL          string          `json:"file_url"`
	FileType         string          `json:"file_type"`
	FileSize         int64           `json:"file_size"`
	Status           string          `json:"status"`
	ProcessingError  string          `json:"processing_error,omitempty"`
	AiSummary        string          `json:"ai_summary,omitempty"`
	AiKeywords       []string        `json:"ai_keywords,omitempty"`
	AiSentiment      string          `json:"ai_sentiment,omitempty"`
	AiConfidence     float64         `json:"ai_confidence"`
	AiAnalysisData   json.RawMessage `json:"ai_analysis_data,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToDocumentInfo 模型转响应
func ToDocumentInfo(d *model.Document) *DocumentInfo {
	if d == nil {
		return nil
	}
	return &DocumentInfo{
		ID:               d.ID,
		OriginalFilename: d.OriginalFilename,
		FileURL:          d.FileURL,
		FileType:         d.FileType,
		FileSize:         d.FileSize,
		Status:           d.Status,
		ProcessingError:  d.ProcessingError,
		AiSummary:        d.AiSummary,
		AiKeywords:       d.AiKeywords,
		AiSentiment:      d.AiSentiment,
		AiConfidence:     d.AiConfidence,
		AiAnalysisData:   json.RawMessage(d.AiAnalysisData),
		ProcessedAt:      d.ProcessedAt,
		CreatedAt:        d.CreatedAt,
	}
}

// ToDocumentInfoList 模型列表转响应列表
func ToDocumentInfoList(docs []model.Document) []*DocumentInfo {
	list := make([]*DocumentInfo, 0, len(docs))
	for i := range docs {
		list = append(list, ToDocumentInfo(&docs[i]))
	}
	return list
}
