package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdfx "github.com/ledongthuc/pdf"

	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 文件服务 ====================

// 上传文件大小上限 10MB
const uploadMaxBytes = 10 * 1024 * 1024

// 允许上传的文档扩展名
var allowedUploadExts = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".doc":  {},
	".txt":  {},
}

// UploadedFile 已保存的上传文件信息
type UploadedFile struct {
	StoredName   string
	OriginalName string
	URL          string
	FileType     string
	FileSize     int64
}

// FileService 上传文件的校验、落盘与文本提取
type FileService struct {
	storage StorageProvider
}

// NewFileService 创建文件服务
func NewFileService(storage StorageProvider) *FileService {
	return &FileService{storage: storage}
}

// ValidateUpload 校验上传文件的扩展名与大小
func (s *FileService) ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedUploadExts[ext]; !ok {
		return apperr.Newf(apperr.CodeInvalidParam, "不支持的文件类型: %s (仅支持 pdf/docx/doc/txt)", ext)
	}
	if size > uploadMaxBytes {
		return apperr.Newf(apperr.CodeInvalidParam, "文件过大: %d 字节 (上限 %d)", size, uploadMaxBytes)
	}
	return nil
}

// SaveUpload 校验并保存上传文件
func (s *FileService) SaveUpload(ctx context.Context, filename string, data []byte) (*UploadedFile, error) {
	if err := s.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	storedName, url, err := s.storage.Upload(ctx, data, filename, "")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeStorageError, "文件保存失败")
	}

	return &UploadedFile{
		StoredName:   storedName,
		OriginalName: filename,
		URL:          url,
		FileType:     strings.TrimPrefix(ext, "."),
		FileSize:     int64(len(data)),
	}, nil
}

// ReadStored 读取已保存的文件内容
func (s *FileService) ReadStored(ctx context.Context, storedName string) ([]byte, error) {
	data, err := s.storage.Read(ctx, storedName)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeStorageError, "文件读取失败")
	}
	return data, nil
}

// DeleteStored 删除已保存的文件
func (s *FileService) DeleteStored(ctx context.Context, storedName string) error {
	if err := s.storage.Delete(ctx, storedName); err != nil {
		return apperr.Wrap(err, apperr.CodeStorageError, "文件删除失败")
	}
	return nil
}

// ExtractText 按文件类型提取纯文本
func (s *FileService) ExtractText(data []byte, fileType string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "pdf":
		return extractPDFText(data)
	case "docx", "doc":
		return extractDocxText(data)
	case "txt":
		return strings.TrimSpace(string(data)), nil
	default:
		return "", apperr.Newf(apperr.CodeInvalidParam, "不支持的文件类型: %s", fileType)
	}
}

// extractPDFText 提取 PDF 文本
func extractPDFText(data []byte) (string, error) {
	reader, err := pdfx.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("PDF 解析失败: %v", err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 单页失败不放弃整个文档
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			out.WriteString(t)
			out.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// extractDocxText 提取 docx 正文文本
// docx 是 zip 包，正文在 word/document.xml 的 w:t 节点里
func extractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx 解析失败: %v", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("docx 解析失败: %v", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("docx 解析失败: %v", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx 缺少 word/document.xml")
	}

	var out strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx 解析失败: %v", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "p":
				// 段落边界换行
				if out.Len() > 0 {
					out.WriteString("\n")
				}
			}
		case xml.EndElement:
			if el.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				out.Write(el)
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}
