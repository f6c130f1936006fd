package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"oceanai_dev_v1/internal/controller"
	"oceanai_dev_v1/internal/middleware"
	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	"oceanai_dev_v1/internal/router"
	"oceanai_dev_v1/internal/service"
	"oceanai_dev_v1/internal/task"
	"oceanai_dev_v1/pkg/database"
)

// @title OceanAI 文档生成平台 API
// @version 1.0
// @description AI 驱动的 Word / PPT 文档生成与分析后端
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)
	defer deps.Close()

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers

	gemini *service.GeminiProvider
}

// Close 释放持有的外部连接
func (d *Dependencies) Close() {
	if d.gemini != nil {
		_ = d.gemini.Close()
	}
}

// Repositories 仓库集合
type Repositories struct {
	User     repository.UserRepository
	Project  repository.ProjectRepository
	Document repository.DocumentRepository
}

// Services 服务集合
type Services struct {
	Auth      *service.AuthService
	Generator *service.GeneratorService
	Analyze   *service.AnalyzeService
	Exporter  *service.ExporterService
	File      *service.FileService
	Project   *service.ProjectService
	Document  *service.DocumentService
	Storage   service.StorageProvider
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL", "")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Shanghai",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "oceanai"),
			getEnv("DB_PORT", "5432"),
		)
	}

	return database.InitDB(dsn, getEnv("GIN_MODE", "") != "release",
		&model.SysUser{},
		&model.Project{},
		&model.Document{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- JWT 配置 --------
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		cfg := middleware.DefaultJWTConfig()
		cfg.SecretKey = secret
		middleware.SetJWTConfig(cfg)
	}

	// -------- Repo 层 --------
	repos := &Repositories{
		User:     repository.NewUserRepository(db),
		Project:  repository.NewProjectRepository(db),
		Document: repository.NewDocumentRepository(db),
	}

	// -------- 外部服务 --------
	gemini, err := service.NewGeminiProvider(context.Background(), &service.GeminiConfig{
		ApiKey:    getEnv("GEMINI_API_KEY", ""),
		TextModel: getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
	})
	if err != nil {
		log.Fatalf("Gemini 初始化失败: %v", err)
	}

	storage := initStorage()
	slides := initSlides()

	// -------- 业务服务 --------
	services := &Services{
		Storage:   storage,
		Generator: service.NewGeneratorService(gemini),
		Analyze:   service.NewAnalyzeService(gemini),
		Auth:      service.NewAuthService(repos.User),
	}
	services.Exporter = service.NewExporterService(&service.ExporterConfig{
		SlidesTemplateID: getEnv("GOOGLE_SLIDES_TEMPLATE_ID", ""),
	}, slides)
	services.File = service.NewFileService(storage)
	services.Project = service.NewProjectService(repos.Project, services.Generator, services.Exporter)
	services.Document = service.NewDocumentService(repos.Document, services.File, services.Analyze)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:     controller.NewAuthController(services.Auth),
		Project:  controller.NewProjectController(services.Project),
		Document: controller.NewDocumentController(services.Document),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		gemini:      gemini,
	}
}

// initStorage 初始化文件存储
func initStorage() service.StorageProvider {
	storage, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "local"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:   getEnv("STORAGE_BASE_URL", ""),
	})
	if err != nil {
		log.Fatalf("存储初始化失败: %v", err)
	}
	return storage
}

// initSlides 初始化 Google Slides 服务
// 凭证缺失时只告警，幻灯片导出接口会返回配置错误
func initSlides() service.SlidesPort {
	slides, err := service.NewGoogleSlidesService(&service.GoogleSlidesConfig{
		ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		RefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
	})
	if err != nil {
		log.Printf("警告: Google Slides 服务未启用: %v", err)
		return nil
	}
	return slides
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	cleanupTask := task.NewCleanupTask(deps.Repos.Document, deps.Services.Storage)
	cleanupTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
