package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Upload 上传文件，返回存储文件名和访问URL
	Upload(ctx context.Context, data []byte, filename string, contentType string) (storedName string, url string, err error)

	// Read 按存储文件名读取文件内容
	Read(ctx context.Context, storedName string) ([]byte, error)

	// Delete 按存储文件名删除文件
	Delete(ctx context.Context, storedName string) error

	// ListStoredNames 列出当前存储中的所有文件名 (清理任务用)
	ListStoredNames(ctx context.Context) ([]string, error)

	// GetSignedURL 获取签名下载URL (私有存储时使用)
	GetSignedURL(ctx context.Context, storedName string, expires time.Duration) (string, error)
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (S3兼容存储)
	BasePath  string // 基础路径前缀 / 本地存储目录
	BaseURL   string // 本地存储的访问URL前缀
}

// ==================== 工厂方法 ====================

func NewStorageProvider(cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== S3 实现 ====================

type S3Storage struct {
	client   *s3.Client
	bucket   string
	region   string
	basePath string
}

func NewS3Storage(cfg *StorageConfig) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		basePath: cfg.BasePath,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, string, error) {
	storedName := generateStoredName(filename)
	key := s.key(storedName)

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("上传S3失败: %v", err)
	}

	return storedName, s.publicURL(key), nil
}

func (s *S3Storage) Read(ctx context.Context, storedName string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(storedName)),
	})
	if err != nil {
		return nil, fmt.Errorf("读取S3失败: %v", err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("读取S3失败: %v", err)
	}
	return buf.Bytes(), nil
}

func (s *S3Storage) Delete(ctx context.Context, storedName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(storedName)),
	})
	return err
}

func (s *S3Storage) ListStoredNames(ctx context.Context) ([]string, error) {
	var names []string
	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.basePath),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("列举S3失败: %v", err)
		}
		for _, obj := range out.Contents {
			names = append(names, filepath.Base(aws.ToString(obj.Key)))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return names, nil
}

func (s *S3Storage) GetSignedURL(ctx context.Context, storedName string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	presignedURL, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(storedName)),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return presignedURL.URL, nil
}

func (s *S3Storage) key(storedName string) string {
	if s.basePath != "" {
		return fmt.Sprintf("%s/%s", s.basePath, storedName)
	}
	return storedName
}

func (s *S3Storage) publicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ==================== 本地存储 ====================

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %v", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, string, error) {
	storedName := generateStoredName(filename)
	if err := os.WriteFile(filepath.Join(s.basePath, storedName), data, 0o644); err != nil {
		return "", "", fmt.Errorf("写入本地文件失败: %v", err)
	}
	return storedName, fmt.Sprintf("%s/%s", s.baseURL, storedName), nil
}

func (s *LocalStorage) Read(ctx context.Context, storedName string) ([]byte, error) {
	// 只允许纯文件名，防止路径穿越
	if storedName != filepath.Base(storedName) {
		return nil, fmt.Errorf("非法文件名: %s", storedName)
	}
	return os.ReadFile(filepath.Join(s.basePath, storedName))
}

func (s *LocalStorage) Delete(ctx context.Context, storedName string) error {
	if storedName != filepath.Base(storedName) {
		return fmt.Errorf("非法文件名: %s", storedName)
	}
	err := os.Remove(filepath.Join(s.basePath, storedName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStorage) ListStoredNames(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("读取上传目录失败: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *LocalStorage) GetSignedURL(ctx context.Context, storedName string, expires time.Duration) (string, error) {
	return fmt.Sprintf("%s/%s", s.baseURL, storedName), nil // 本地存储无需签名
}

// ==================== 工具函数 ====================

// generateStoredName 生成不冲突的存储文件名，保留原扩展名
func generateStoredName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s%s", uuid.New().String(), ext)
}
