package router

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"oceanai_dev_v1/internal/controller"
	"oceanai_dev_v1/internal/middleware"

	_ "oceanai_dev_v1/docs"
)

// Controllers 控制器集合
type Controllers struct {
	Auth     *controller.AuthController
	Project  *controller.ProjectController
	Document *controller.DocumentController
}

// SetupRouter 创建引擎并注册所有路由
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()

	// 跨域: 本地前端开发端口 + 部署域名
	allowOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		allowOrigins = append(allowOrigins, frontend)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/register", ctls.Auth.Register)
			auth.POST("/login", ctls.Auth.Login)
			auth.POST("/refresh", ctls.Auth.RefreshToken)
			auth.GET("/me", middleware.JWTAuth(), ctls.Auth.Profile)
		}

		// project 项目组 (全部需要登录)
		projects := api.Group("/projects", middleware.JWTAuth())
		{
			projects.POST("", ctls.Project.Create)
			projects.GET("", ctls.Project.List)
			projects.GET("/:id", ctls.Project.Get)
			projects.DELETE("/:id", ctls.Project.Delete)

			projects.POST("/:id/generate", ctls.Project.Generate)
			// EventSource 不能带请求头，Token 走 query 参数
			projects.GET("/:id/generate/stream", ctls.Project.GenerateStream)
			projects.POST("/:id/refine", ctls.Project.Refine)
			projects.PATCH("/:id/content", ctls.Project.UpdateContent)

			projects.GET("/:id/export", ctls.Project.Export)
			projects.GET("/:id/preview-pdf", ctls.Project.PreviewPDF)
		}

		// document 文档组 (全部需要登录)
		documents := api.Group("/documents", middleware.JWTAuth())
		{
			documents.POST("/upload", ctls.Document.Upload)
			documents.GET("", ctls.Document.List)
			documents.GET("/:id", ctls.Document.Get)
			documents.DELETE("/:id", ctls.Document.Delete)
			documents.POST("/:id/reanalyze", ctls.Document.Reanalyze)
		}
	}

	return r
}
