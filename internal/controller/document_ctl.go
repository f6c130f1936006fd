package controller

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"oceanai_dev_v1/internal/api/dto"
	"oceanai_dev_v1/internal/middleware"
	"oceanai_dev_v1/internal/service"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== DocumentController 文档控制器 ====================

// DocumentController 上传文档控制器
type DocumentController struct {
	documentService *service.DocumentService
}

// NewDocumentController 创建文档控制器
func NewDocumentController(documentService *service.DocumentService) *DocumentController {
	return &DocumentController{documentService: documentService}
}

// documentID 解析路径中的文档 ID
func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.New(apperr.CodeInvalidParam, "文档 ID 必须是正整数"))
		return 0, false
	}
	return id, true
}

// Upload 上传文档
// @Summary 上传文档并触发 AI 分析
// @Tags Document
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "文档文件 (pdf/docx/doc/txt)"
// @Success 201 {object} dto.DocumentInfo
// @Failure 400 {object} map[string]interface{}
// @Router /documents/upload [post]
func (ctl *DocumentController) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidParam, "缺少上传文件"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Wrap(err, apperr.CodeInvalidParam, "读取上传文件失败"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, apperr.Wrap(err, apperr.CodeInvalidParam, "读取上传文件失败"))
		return
	}

	doc, err := ctl.documentService.UploadDocument(c.Request.Context(), middleware.GetUserID(c), fileHeader.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "上传成功，分析进行中", dto.ToDocumentInfo(doc))
}

// List 文档列表
// @Summary 文档列表
// @Tags Document
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {array} dto.DocumentInfo
// @Router /documents [get]
func (ctl *DocumentController) List(c *gin.Context) {
	var req dto.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	docs, err := ctl.documentService.ListDocuments(
		c.Request.Context(),
		middleware.GetUserID(c),
		(req.Page-1)*req.PageSize,
		req.PageSize,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", dto.ToDocumentInfoList(docs))
}

// Get 文档详情
// @Summary 文档详情
// @Tags Document
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档 ID"
// @Success 200 {object} dto.DocumentInfo
// @Failure 404 {object} map[string]interface{}
// @Router /documents/{id} [get]
func (ctl *DocumentController) Get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	doc, err := ctl.documentService.GetDocument(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", dto.ToDocumentInfo(doc))
}

// Delete 删除文档
// @Summary 删除文档
// @Tags Document
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /documents/{id} [delete]
func (ctl *DocumentController) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := ctl.documentService.DeleteDocument(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "删除成功", nil)
}

// Reanalyze 重新分析文档
// @Summary 重新触发文档 AI 分析
// @Tags Document
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档 ID"
// @Success 200 {object} dto.DocumentInfo
// @Failure 404 {object} map[string]interface{}
// @Router /documents/{id}/reanalyze [post]
func (ctl *DocumentController) Reanalyze(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	if !checkGenCooldown(c, middleware.TaskTypeAnalyze) {
		return
	}

	doc, err := ctl.documentService.ReanalyzeDocument(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "分析已触发", dto.ToDocumentInfo(doc))
}
