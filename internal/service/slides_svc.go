package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	apperr "oceanai_dev_v1/pkg/errors"
	"oceanai_dev_v1/pkg/utils"
)

// ==================== 幻灯片远端接口 ====================

// SlidePage 演示文稿中一页幻灯片的文本视图
type SlidePage struct {
	ObjectID string
	TextRuns []string
}

// SlidesPort 幻灯片编辑与导出的远端能力
// 幻灯片合成引擎只依赖此接口，具体实现走 Google Slides / Drive
type SlidesPort interface {
	CopyTemplate(ctx context.Context, title string, templateID string) (string, error)
	ListSlides(ctx context.Context, presentationID string) ([]SlidePage, error)
	DuplicateSlide(ctx context.Context, presentationID string, slideID string, insertionIndex int) (string, error)
	ReplaceText(ctx context.Context, presentationID string, replacements map[string]string, slideIDs []string) error
	DeleteSlide(ctx context.Context, presentationID string, slideID string) error
	Export(ctx context.Context, presentationID string) ([]byte, error)
	ExportPDF(ctx context.Context, presentationID string) ([]byte, error)
	DeleteArtifact(ctx context.Context, presentationID string)
}

// ==================== Google Slides 实现 ====================

const (
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	googleSlidesAPI = "https://slides.googleapis.com/v1"
	googleDriveAPI  = "https://www.googleapis.com/drive/v3"

	slidesTokenCacheKey = "google_slides_access_token"

	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimePDF  = "application/pdf"
)

// GoogleSlidesConfig Google OAuth 配置
// 使用长期 Refresh Token 换取短期 Access Token
type GoogleSlidesConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GoogleSlidesService 基于 Google Slides / Drive REST API 的实现
type GoogleSlidesService struct {
	cfg    *GoogleSlidesConfig
	client *resty.Client
}

// NewGoogleSlidesService 创建 Google Slides 服务
func NewGoogleSlidesService(cfg *GoogleSlidesConfig) (*GoogleSlidesService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("Google OAuth 凭证未配置 (GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET / GOOGLE_REFRESH_TOKEN)")
	}
	return &GoogleSlidesService{
		cfg:    cfg,
		client: resty.New(),
	}, nil
}

// 辅助结构体：Token 响应
type googleTokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// accessToken 获取可用的 Access Token，优先走缓存
func (s *GoogleSlidesService) accessToken(ctx context.Context) (string, error) {
	if cached, ok := utils.GetCache(slidesTokenCacheKey); ok {
		return cached, nil
	}

	var tokenResp googleTokenResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     s.cfg.ClientID,
			"client_secret": s.cfg.ClientSecret,
			"refresh_token": s.cfg.RefreshToken,
		}).
		SetResult(&tokenResp).
		Post(googleTokenURL)

	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeSlidesAPI, "Google Token 请求发送失败")
	}
	if resp.StatusCode() != 200 || tokenResp.Error != "" {
		return "", apperr.Newf(apperr.CodeSlidesAPI, "Google 拒绝刷新 Token (Status %d): %s", resp.StatusCode(), resp.String())
	}

	// 留 5 分钟余量，避免拿到临期 Token
	ttl := tokenResp.ExpiresIn - 300
	if ttl < 60 {
		ttl = 60
	}
	utils.SetCacheTTL(slidesTokenCacheKey, tokenResp.AccessToken, time.Duration(ttl)*time.Second)
	return tokenResp.AccessToken, nil
}

// authedR 构造带授权头的请求
func (s *GoogleSlidesService) authedR(ctx context.Context) (*resty.Request, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token), nil
}

// CopyTemplate 在 Drive 中复制模板演示文稿，返回新文件 ID
func (s *GoogleSlidesService) CopyTemplate(ctx context.Context, title string, templateID string) (string, error) {
	req, err := s.authedR(ctx)
	if err != nil {
		return "", err
	}

	var res struct {
		ID string `json:"id"`
	}
	resp, err := req.
		SetBody(map[string]string{"name": title}).
		SetResult(&res).
		Post(fmt.Sprintf("%s/files/%s/copy", googleDriveAPI, templateID))

	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeSlidesAPI, "模板复制请求失败")
	}
	if resp.StatusCode() != 200 || res.ID == "" {
		return "", apperr.Newf(apperr.CodeSlidesAPI, "模板复制失败 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	return res.ID, nil
}

// 辅助结构体：presentations.get 响应中与文本相关的部分
type slidesGetResp struct {
	Slides []struct {
		ObjectID     string `json:"objectId"`
		PageElements []struct {
			Shape struct {
				Text struct {
					TextElements []struct {
						TextRun struct {
							Content string `json:"content"`
						} `json:"textRun"`
					} `json:"textElements"`
				} `json:"text"`
			} `json:"shape"`
		} `json:"pageElements"`
	} `json:"slides"`
}

// ListSlides 获取演示文稿的幻灯片列表及各页文本
func (s *GoogleSlidesService) ListSlides(ctx context.Context, presentationID string) ([]SlidePage, error) {
	req, err := s.authedR(ctx)
	if err != nil {
		return nil, err
	}

	var res slidesGetResp
	resp, err := req.
		SetQueryParam("fields", "slides(objectId,pageElements(shape(text(textElements(textRun(content))))))").
		SetResult(&res).
		Get(fmt.Sprintf("%s/presentations/%s", googleSlidesAPI, presentationID))

	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeSlidesAPI, "获取演示文稿失败")
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.Newf(apperr.CodeSlidesAPI, "获取演示文稿失败 (Status %d): %s", resp.StatusCode(), resp.String())
	}

	pages := make([]SlidePage, 0, len(res.Slides))
	for _, slide := range res.Slides {
		page := SlidePage{ObjectID: slide.ObjectID}
		for _, el := range slide.PageElements {
			for _, te := range el.Shape.Text.TextElements {
				if te.TextRun.Content != "" {
					page.TextRuns = append(page.TextRuns, te.TextRun.Content)
				}
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// batchUpdate 执行 presentations.batchUpdate
func (s *GoogleSlidesService) batchUpdate(ctx context.Context, presentationID string, requests []map[string]interface{}, result interface{}) error {
	if len(requests) == 0 {
		return nil
	}

	req, err := s.authedR(ctx)
	if err != nil {
		return err
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.
		SetBody(map[string]interface{}{"requests": requests}).
		Post(fmt.Sprintf("%s/presentations/%s:batchUpdate", googleSlidesAPI, presentationID))

	if err != nil {
		return apperr.Wrap(err, apperr.CodeSlidesAPI, "batchUpdate 请求失败")
	}
	if resp.StatusCode() != 200 {
		return apperr.Newf(apperr.CodeSlidesAPI, "batchUpdate 失败 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// DuplicateSlide 复制指定幻灯片并移动到目标位置，返回新幻灯片 ID
func (s *GoogleSlidesService) DuplicateSlide(ctx context.Context, presentationID string, slideID string, insertionIndex int) (string, error) {
	var res struct {
		Replies []struct {
			DuplicateObject struct {
				ObjectID string `json:"objectId"`
			} `json:"duplicateObject"`
		} `json:"replies"`
	}

	err := s.batchUpdate(ctx, presentationID, []map[string]interface{}{
		{"duplicateObject": map[string]interface{}{"objectId": slideID}},
	}, &res)
	if err != nil {
		return "", err
	}
	if len(res.Replies) == 0 || res.Replies[0].DuplicateObject.ObjectID == "" {
		return "", apperr.New(apperr.CodeSlidesAPI, "复制幻灯片未返回新页面 ID")
	}
	newSlideID := res.Replies[0].DuplicateObject.ObjectID

	err = s.batchUpdate(ctx, presentationID, []map[string]interface{}{
		{"updateSlidesPosition": map[string]interface{}{
			"slideObjectIds": []string{newSlideID},
			"insertionIndex": insertionIndex,
		}},
	}, nil)
	if err != nil {
		return "", err
	}
	return newSlideID, nil
}

// ReplaceText 批量替换占位符文本，slideIDs 非空时仅作用于指定页面
func (s *GoogleSlidesService) ReplaceText(ctx context.Context, presentationID string, replacements map[string]string, slideIDs []string) error {
	requests := make([]map[string]interface{}, 0, len(replacements))
	for placeholder, text := range replacements {
		replaceAll := map[string]interface{}{
			"containsText": map[string]interface{}{
				"text":      placeholder,
				"matchCase": true,
			},
			"replaceText": text,
		}
		if len(slideIDs) > 0 {
			replaceAll["pageObjectIds"] = slideIDs
		}
		requests = append(requests, map[string]interface{}{"replaceAllText": replaceAll})
	}
	return s.batchUpdate(ctx, presentationID, requests, nil)
}

// DeleteSlide 删除指定幻灯片
func (s *GoogleSlidesService) DeleteSlide(ctx context.Context, presentationID string, slideID string) error {
	return s.batchUpdate(ctx, presentationID, []map[string]interface{}{
		{"deleteObject": map[string]interface{}{"objectId": slideID}},
	}, nil)
}

// export 按指定 MIME 类型导出 Drive 文件
func (s *GoogleSlidesService) export(ctx context.Context, presentationID string, mimeType string) ([]byte, error) {
	req, err := s.authedR(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.
		SetQueryParam("mimeType", mimeType).
		Get(fmt.Sprintf("%s/files/%s/export", googleDriveAPI, presentationID))

	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeSlidesAPI, "导出请求失败")
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.Newf(apperr.CodeSlidesAPI, "导出失败 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

// Export 导出为 PPTX 文件字节
func (s *GoogleSlidesService) Export(ctx context.Context, presentationID string) ([]byte, error) {
	return s.export(ctx, presentationID, mimePPTX)
}

// ExportPDF 导出为 PDF 文件字节
func (s *GoogleSlidesService) ExportPDF(ctx context.Context, presentationID string) ([]byte, error) {
	return s.export(ctx, presentationID, mimePDF)
}

// DeleteArtifact 删除 Drive 中的临时演示文稿，失败只记录日志
func (s *GoogleSlidesService) DeleteArtifact(ctx context.Context, presentationID string) {
	req, err := s.authedR(ctx)
	if err != nil {
		log.Printf("警告: 清理临时演示文稿 %s 失败: %v", presentationID, err)
		return
	}

	resp, err := req.Delete(fmt.Sprintf("%s/files/%s", googleDriveAPI, presentationID))
	if err != nil {
		log.Printf("警告: 清理临时演示文稿 %s 失败: %v", presentationID, err)
		return
	}
	if resp.StatusCode() != 204 && resp.StatusCode() != 200 {
		log.Printf("警告: 清理临时演示文稿 %s 失败 (Status %d)", presentationID, resp.StatusCode())
	}
}
