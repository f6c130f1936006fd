package controller

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"oceanai_dev_v1/internal/api/dto"
	"oceanai_dev_v1/internal/middleware"
	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/service"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== ProjectController 项目控制器 ====================

// ProjectController 项目控制器
type ProjectController struct {
	projectService *service.ProjectService
}

// NewProjectController 创建项目控制器
func NewProjectController(projectService *service.ProjectService) *ProjectController {
	return &ProjectController{projectService: projectService}
}

// projectID 解析路径中的项目 ID
func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.New(apperr.CodeInvalidParam, "项目 ID 必须是正整数"))
		return 0, false
	}
	return id, true
}

// ==================== CRUD ====================

// Create 创建项目
// @Summary 创建项目
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.ProjectInfo
// @Failure 400 {object} map[string]interface{}
// @Router /projects [post]
func (ctl *ProjectController) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := ctl.projectService.CreateProject(
		c.Request.Context(),
		middleware.GetUserID(c),
		req.Title,
		req.Topic,
		model.DocumentType(req.DocumentType),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "创建成功", dto.ToProjectInfo(project))
}

// List 项目列表
// @Summary 项目列表
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ProjectInfo
// @Router /projects [get]
func (ctl *ProjectController) List(c *gin.Context) {
	projects, err := ctl.projectService.ListProjects(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", dto.ToProjectInfoList(projects))
}

// Get 项目详情
// @Summary 项目详情
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Success 200 {object} dto.ProjectInfo
// @Failure 404 {object} map[string]interface{}
// @Router /projects/{id} [get]
func (ctl *ProjectController) Get(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := ctl.projectService.GetProject(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", dto.ToProjectInfo(project))
}

// Delete 删除项目
// @Summary 删除项目
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /projects/{id} [delete]
func (ctl *ProjectController) Delete(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := ctl.projectService.DeleteProject(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "删除成功", nil)
}

// ==================== 内容生成 ====================

// checkGenCooldown 生成类接口冷却检查
func checkGenCooldown(c *gin.Context, taskType middleware.TaskType) bool {
	key := middleware.UserTaskKey(middleware.GetUserID(c), taskType)
	result := middleware.GetLimiter().Check(key, middleware.GetInterval(taskType))
	if !result.Allowed {
		respondError(c, apperr.Newf(apperr.CodeTooMany, "操作过于频繁，请 %.0f 秒后重试", result.RetryAfter.Seconds()))
		return false
	}
	return true
}

// Generate 一次性生成内容
// @Summary 生成项目内容
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Success 200 {object} dto.ProjectInfo
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /projects/{id}/generate [post]
func (ctl *ProjectController) Generate(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	if !checkGenCooldown(c, middleware.TaskTypeGenerate) {
		return
	}

	project, err := ctl.projectService.GenerateContent(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "生成成功", dto.ToProjectInfo(project))
}

// GenerateStream 流式生成内容 (SSE)
// 前端用 EventSource 订阅，Token 通过 query 参数传递
// @Summary 流式生成项目内容
// @Tags Project
// @Produce text/event-stream
// @Param id path int true "项目 ID"
// @Param token query string true "Access Token"
// @Success 200 {string} string "SSE 事件流"
// @Failure 404 {object} map[string]interface{}
// @Router /projects/{id}/generate/stream [get]
func (ctl *ProjectController) GenerateStream(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	if !checkGenCooldown(c, middleware.TaskTypeGenerate) {
		return
	}

	events, err := ctl.projectService.GenerateContentStream(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}

		switch ev.Type {
		case service.StreamEventChunk:
			c.SSEvent("message", gin.H{"chunk": ev.Chunk})
		case service.StreamEventComplete:
			c.SSEvent("message", gin.H{"status": "complete", "content": ev.Content})
		case service.StreamEventError:
			c.SSEvent("message", gin.H{"error": ev.Err.Error()})
		}
		return true
	})
}

// Refine 按指令改写内容
// @Summary 改写项目内容
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Param request body dto.RefineRequest true "改写指令"
// @Success 200 {object} dto.ProjectInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /projects/{id}/refine [post]
func (ctl *ProjectController) Refine(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req dto.RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if !checkGenCooldown(c, middleware.TaskTypeRefine) {
		return
	}

	project, err := ctl.projectService.RefineContent(c.Request.Context(), id, middleware.GetUserID(c), req.RefinementPrompt)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "改写成功", dto.ToProjectInfo(project))
}

// UpdateContent 手动更新内容
// @Summary 手动更新项目内容
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Param request body dto.UpdateContentRequest true "完整内容 JSON"
// @Success 200 {object} dto.ProjectInfo
// @Failure 400 {object} map[string]interface{}
// @Router /projects/{id}/content [patch]
func (ctl *ProjectController) UpdateContent(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req dto.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := ctl.projectService.UpdateContent(c.Request.Context(), id, middleware.GetUserID(c), string(req.Content))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "更新成功", dto.ToProjectInfo(project))
}

// ==================== 导出 ====================

// Export 导出文件
// @Summary 导出项目文件
// @Tags Project
// @Produce application/octet-stream
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /projects/{id}/export [get]
func (ctl *ProjectController) Export(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	result, err := ctl.projectService.ExportProject(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// PreviewPDF 幻灯片 PDF 预览
// @Summary 幻灯片 PDF 预览
// @Tags Project
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "项目 ID"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Router /projects/{id}/preview-pdf [get]
func (ctl *ProjectController) PreviewPDF(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	data, err := ctl.projectService.PreviewPDF(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="preview.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
