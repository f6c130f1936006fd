package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oceanai_dev_v1/internal/middleware"
	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	apperr "oceanai_dev_v1/pkg/errors"
)

func setupAuthTestService(t *testing.T) *AuthService {
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
	return NewAuthService(repository.NewUserRepository(db))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("注册后应生成用户 ID")
	}
	if user.Role != "user" || user.Status != model.UserStatusActive {
		t.Errorf("默认角色/状态不正确: %s/%d", user.Role, user.Status)
	}
	if user.Password == "secret123" {
		t.Error("密码不应明文存储")
	}

	logged, pair, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("登录用户 ID = %d", logged.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "Bearer" {
		t.Errorf("Token 对不完整: %+v", pair)
	}

	claims, err := middleware.ParseToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("解析 Access Token 失败: %v", err)
	}
	if claims.UserID != user.ID || claims.Subject != "access" {
		t.Errorf("Token 载荷不正确: %+v", claims)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := setupAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "  ", "a@b.com", "secret123", ""); err == nil {
		t.Error("空用户名应失败")
	}
	if _, err := svc.Register(ctx, "bob", "b@b.com", "12345", ""); err == nil {
		t.Error("短密码应失败")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc := setupAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "alice", "other@example.com", "secret123", "")
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Errorf("重复用户名错误码 = %s", apperr.CodeOf(err))
	}

	_, err = svc.Register(ctx, "bob", "alice@example.com", "secret123", "")
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Errorf("重复邮箱错误码 = %s", apperr.CodeOf(err))
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	svc := setupAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, _, err := svc.Login(ctx, "alice", "wrong-pass")
	if !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Errorf("错误密码错误码 = %s", apperr.CodeOf(err))
	}

	// 用户不存在和密码错误返回同样的提示
	_, _, err2 := svc.Login(ctx, "nobody", "whatever")
	if !apperr.Is(err2, apperr.CodeUnauthorized) {
		t.Errorf("未知用户错误码 = %s", apperr.CodeOf(err2))
	}
	if err.Error() != err2.Error() {
		t.Error("两种失败的提示信息应一致，避免账号探测")
	}
}

func TestRefreshToken(t *testing.T) {
	svc := setupAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, pair, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	renewed, err := svc.RefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if renewed.AccessToken == "" || renewed.RefreshToken == "" {
		t.Error("刷新后应返回完整 Token 对")
	}

	// Access Token 不能当 Refresh Token 用
	if _, err := svc.RefreshToken(ctx, pair.AccessToken); !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Errorf("Access Token 刷新错误码 = %s", apperr.CodeOf(err))
	}

	if _, err := svc.RefreshToken(ctx, "garbage"); !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Errorf("非法 Token 刷新错误码 = %s", apperr.CodeOf(err))
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	svc := setupAuthTestService(t)

	_, err := svc.GetProfile(context.Background(), 999)
	if !apperr.Is(err, apperr.CodeUserNotFound) {
		t.Errorf("错误码 = %s", apperr.CodeOf(err))
	}
}
