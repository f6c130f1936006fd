package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 文档服务 ====================

// 后台处理单个文档的时间上限
const processTimeout = 2 * time.Minute

// DocumentService 上传文档的入库与后台分析流水线
type DocumentService struct {
	docRepo repository.DocumentRepository
	files   *FileService
	analyze *AnalyzeService
}

// NewDocumentService 创建文档服务
func NewDocumentService(docRepo repository.DocumentRepository, files *FileService, analyze *AnalyzeService) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		files:   files,
		analyze: analyze,
	}
}

// UploadDocument 保存上传文件并创建记录，随后异步执行提取与分析
func (s *DocumentService) UploadDocument(ctx context.Context, ownerID int64, filename string, data []byte) (*model.Document, error) {
	saved, err := s.files.SaveUpload(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Filename:         saved.StoredName,
		OriginalFilename: saved.OriginalName,
		FileURL:          saved.URL,
		FileType:         saved.FileType,
		FileSize:         saved.FileSize,
		OwnerID:          ownerID,
		Status:           model.DocStatusUploaded,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		// 入库失败时回收已保存的文件
		_ = s.files.DeleteStored(ctx, saved.StoredName)
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "创建文档记录失败")
	}

	// 提取与分析在后台执行，上传接口立即返回
	go s.processDocument(doc.ID, ownerID)

	return doc, nil
}

// processDocument 后台流水线: 提取正文 -> AI 分析 -> 写回结果
// 任何一步失败都把状态置为 error 并记录原因
func (s *DocumentService) processDocument(docID, ownerID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	doc, err := s.docRepo.GetByIDAndOwner(ctx, docID, ownerID)
	if err != nil || doc == nil {
		log.Printf("处理文档 %d 失败: 记录不可用 (%v)", docID, err)
		return
	}

	doc.Status = model.DocStatusProcessing
	if err := s.docRepo.Update(ctx, doc); err != nil {
		log.Printf("处理文档 %d 失败: %v", docID, err)
		return
	}

	data, err := s.files.ReadStored(ctx, doc.Filename)
	if err != nil {
		s.markFailed(ctx, doc, err)
		return
	}

	text, err := s.files.ExtractText(data, doc.FileType)
	if err != nil {
		s.markFailed(ctx, doc, err)
		return
	}
	doc.ExtractedText = text

	// 分析内部自带降级，不会返回错误
	result := s.analyze.AnalyzeDocument(ctx, text)

	analysisData, err := json.Marshal(result.Data)
	if err != nil {
		analysisData = []byte("{}")
	}

	now := time.Now()
	doc.AiSummary = result.Summary
	doc.AiKeywords = result.Keywords
	doc.AiSentiment = result.Sentiment
	doc.AiConfidence = result.Confidence
	doc.AiAnalysisData = analysisData
	doc.Status = model.DocStatusProcessed
	doc.ProcessingError = ""
	doc.ProcessedAt = &now

	if err := s.docRepo.Update(ctx, doc); err != nil {
		log.Printf("保存文档 %d 分析结果失败: %v", docID, err)
	}
}

// markFailed 把文档标记为处理失败
func (s *DocumentService) markFailed(ctx context.Context, doc *model.Document, cause error) {
	doc.Status = model.DocStatusError
	doc.ProcessingError = cause.Error()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		log.Printf("更新文档 %d 失败状态出错: %v", doc.ID, err)
	}
}

// ListDocuments 分页列出用户文档
func (s *DocumentService) ListDocuments(ctx context.Context, ownerID int64, offset, limit int) ([]model.Document, error) {
	docs, err := s.docRepo.ListByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询文档失败")
	}
	return docs, nil
}

// GetDocument 获取单个文档
func (s *DocumentService) GetDocument(ctx context.Context, id, ownerID int64) (*model.Document, error) {
	doc, err := s.docRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询文档失败")
	}
	if doc == nil {
		return nil, apperr.New(apperr.CodeDocumentNotFound, "文档不存在")
	}
	return doc, nil
}

// DeleteDocument 删除文档记录及其存储文件
func (s *DocumentService) DeleteDocument(ctx context.Context, id, ownerID int64) error {
	doc, err := s.GetDocument(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, doc.ID); err != nil {
		return apperr.Wrap(err, apperr.CodeDatabaseError, "删除文档失败")
	}
	// 文件删除失败不回滚记录删除，交给清理任务兜底
	if err := s.files.DeleteStored(ctx, doc.Filename); err != nil {
		log.Printf("删除文档 %d 的存储文件失败: %v", doc.ID, err)
	}
	return nil
}

// ReanalyzeDocument 重新触发文档分析
func (s *DocumentService) ReanalyzeDocument(ctx context.Context, id, ownerID int64) (*model.Document, error) {
	doc, err := s.GetDocument(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	go s.processDocument(doc.ID, ownerID)
	return doc, nil
}
