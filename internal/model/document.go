package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// 文档处理状态
const (
	DocStatusUploaded   = "uploaded"
	DocStatusProcessing = "processing"
	DocStatusProcessed  = "processed"
	DocStatusError      = "error"
)

// Document 上传文档及其 AI 分析结果
type Document struct {
	BaseModel
	Filename         string `gorm:"size:255;not null" json:"filename"` // 存储文件名 (uuid)
	OriginalFilename string `gorm:"size:255;not null" json:"original_filename"`
	FileURL          string `gorm:"size:500;not null" json:"file_url"`
	FileType         string `gorm:"size:10;not null" json:"file_type"` // pdf, docx, txt
	FileSize         int64  `gorm:"not null" json:"file_size"`         // 字节数

	// 提取的正文
	ExtractedText string `gorm:"type:text" json:"extracted_text,omitempty"`

	// --- AI 分析结果 ---
	AiSummary      string         `gorm:"type:text" json:"ai_summary"`
	AiKeywords     pq.StringArray `gorm:"type:text[]" json:"ai_keywords"`
	AiSentiment    string         `gorm:"size:20" json:"ai_sentiment"` // positive, negative, neutral
	AiConfidence   float64        `gorm:"default:0" json:"ai_confidence"`
	AiAnalysisData datatypes.JSON `gorm:"type:jsonb" json:"ai_analysis_data"`

	// --- 元数据 ---
	OwnerID         int64      `gorm:"index;not null" json:"owner_id"`
	Owner           *SysUser   `gorm:"foreignKey:OwnerID" json:"-"`
	Status          string     `gorm:"size:20;default:'uploaded';index" json:"status"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at"`
}

func (Document) TableName() string {
	return "documents"
}
