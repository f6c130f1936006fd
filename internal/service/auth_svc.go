package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"oceanai_dev_v1/internal/middleware"
	"oceanai_dev_v1/internal/model"
	"oceanai_dev_v1/internal/repository"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 认证服务 ====================

// AuthService 注册 / 登录 / Token 刷新
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// TokenPair 登录成功后下发的 Token 对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register 注册新用户
func (s *AuthService) Register(ctx context.Context, username, email, password, fullName string) (*model.SysUser, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, apperr.New(apperr.CodeInvalidParam, "用户名和邮箱不能为空")
	}
	if len(password) < 6 {
		return nil, apperr.New(apperr.CodeInvalidParam, "密码长度至少 6 位")
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询用户失败")
	}
	if exists {
		return nil, apperr.New(apperr.CodeConflict, "用户名已被占用")
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询用户失败")
	}
	if exists {
		return nil, apperr.New(apperr.CodeConflict, "邮箱已被注册")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternalError, "密码加密失败")
	}

	user := &model.SysUser{
		Username: username,
		Email:    email,
		Password: string(hashed),
		FullName: fullName,
		Role:     "user",
		Status:   model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "创建用户失败")
	}
	return user, nil
}

// Login 用户名密码登录，成功返回 Token 对
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.SysUser, *TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询用户失败")
	}
	if user == nil {
		// 不区分用户不存在和密码错误，避免探测
		return nil, nil, apperr.New(apperr.CodeUnauthorized, "用户名或密码错误")
	}
	if user.Status != model.UserStatusActive {
		return nil, nil, apperr.New(apperr.CodeForbidden, "账号已被禁用")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, apperr.New(apperr.CodeUnauthorized, "用户名或密码错误")
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, nil, apperr.Wrap(err, apperr.CodeInternalError, "生成 Token 失败")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		// 登录时间更新失败不影响登录
		_ = err
	}

	return user, &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}, nil
}

// RefreshToken 用 Refresh Token 换新的 Token 对
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil {
		return nil, apperr.New(apperr.CodeUnauthorized, "Refresh Token 无效或已过期")
	}
	if claims.Subject != "refresh" {
		return nil, apperr.New(apperr.CodeUnauthorized, "Token 类型错误")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询用户失败")
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, apperr.New(apperr.CodeUnauthorized, "账号不可用")
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternalError, "生成 Token 失败")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}, nil
}

// GetProfile 获取用户资料
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*model.SysUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询用户失败")
	}
	if user == nil {
		return nil, apperr.New(apperr.CodeUserNotFound, "用户不存在")
	}
	return user, nil
}
