package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oceanai_dev_v1/internal/middleware"
	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	"oceanai_dev_v1/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 请求构造辅助 ====================

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.SysUser{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	ctl := NewAuthController(service.NewAuthService(repository.NewUserRepository(db)))

	router := gin.New()
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", ctl.Register)
		auth.POST("/login", ctl.Login)
		auth.POST("/refresh", ctl.RefreshToken)
		auth.GET("/me", middleware.JWTAuth(), ctl.Profile)
	}
	return router
}

func performRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return resp
}

var registerBody = map[string]interface{}{
	"username": "alice",
	"email":    "alice@example.com",
	"password": "secret123",
}

// ==================== 注册 / 登录 ====================

func TestRegisterEndpoint(t *testing.T) {
	router := setupAuthRouter(t)

	w := performRequest(router, "POST", "/api/auth/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := parseEnvelope(t, w)
	assert.EqualValues(t, 0, resp["code"])
	user := resp["data"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	// 密码不能出现在响应里
	assert.NotContains(t, w.Body.String(), "secret123")

	// 重复注册返回冲突
	w = performRequest(router, "POST", "/api/auth/register", registerBody, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterEndpoint_InvalidParams(t *testing.T) {
	router := setupAuthRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "空请求体", body: nil},
		{name: "缺少邮箱", body: map[string]interface{}{"username": "bob", "password": "secret123"}},
		{name: "非法邮箱", body: map[string]interface{}{"username": "bob", "email": "not-an-email", "password": "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/api/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginAndProfileEndpoint(t *testing.T) {
	router := setupAuthRouter(t)

	performRequest(router, "POST", "/api/auth/register", registerBody, "")

	w := performRequest(router, "POST", "/api/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseEnvelope(t, w)
	data := resp["data"].(map[string]interface{})
	token, _ := data["access_token"].(string)
	assert.NotEmpty(t, token)

	// 带 Token 访问资料
	w = performRequest(router, "GET", "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	resp = parseEnvelope(t, w)
	user := resp["data"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])

	// 不带 Token 拒绝
	w = performRequest(router, "GET", "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	router := setupAuthRouter(t)

	performRequest(router, "POST", "/api/auth/register", registerBody, "")

	w := performRequest(router, "POST", "/api/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "wrong-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := setupAuthRouter(t)

	performRequest(router, "POST", "/api/auth/register", registerBody, "")
	w := performRequest(router, "POST", "/api/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "secret123",
	}, "")
	data := parseEnvelope(t, w)["data"].(map[string]interface{})

	w = performRequest(router, "POST", "/api/auth/refresh", map[string]interface{}{
		"refresh_token": data["refresh_token"],
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "POST", "/api/auth/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
