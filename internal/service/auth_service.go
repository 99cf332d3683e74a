package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/cache"
	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// 令牌作用域：顾客令牌与员工令牌使用不同密钥
const (
	TokenScopeUser  = "user"
	TokenScopeStaff = "staff"
)

// AuthService 认证服务
type AuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// JWTClaims JWT 声明
type JWTClaims struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	Scope        string `json:"scope"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(password, username string) error {
	var policy config.PasswordPolicyConfig
	if s != nil && s.cfg != nil {
		policy = s.cfg.Security.PasswordPolicy
	}
	return validatePassword(policy, password, username)
}

func (s *AuthService) jwtConfig(scope string) config.JWTConfig {
	if scope == TokenScopeStaff {
		return s.cfg.JWT
	}
	return s.cfg.UserJWT
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(user *models.User, scope string) (string, time.Time, error) {
	jwtCfg := s.jwtConfig(scope)
	now := time.Now()
	expiresAt := now.Add(jwtCfg.TTL())

	claims := JWTClaims{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		Scope:        scope,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token，作用域不匹配视为无效
func (s *AuthService) ParseJWT(tokenString, scope string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtConfig(scope).SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.Scope == scope {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// ResolveAuthState 读取鉴权快照，缓存未命中时回源数据库
func (s *AuthService) ResolveAuthState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, hit, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.Warnw("auth_state_cache_read_failed", "user_id", userID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	state = cache.BuildUserAuthState(user)
	_ = cache.SetUserAuthState(ctx, state)
	return state, nil
}

// Register 顾客注册，成功后直接签发顾客令牌
func (s *AuthService) Register(input RegisterInput) (*models.User, string, time.Time, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, "", time.Time{}, ErrInvalidInput
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := s.ValidatePassword(input.Password, username); err != nil {
		return nil, "", time.Time{}, err
	}
	if err := s.ensureUnique(username, email, 0); err != nil {
		return nil, "", time.Time{}, err
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         constants.RoleCustomer,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		IsActive:     true,
		LastLoginAt:  &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", time.Time{}, ErrUsernameTaken
		}
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.GenerateJWT(user, TokenScopeUser)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	logger.Infow("user_registered", "user_id", user.ID, "username", user.Username)
	return user, token, expiresAt, nil
}

// Login 用户名或邮箱登录；staff 为 true 时只允许员工角色并签发员工令牌
func (s *AuthService) Login(login, password string, staff bool) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByLogin(login)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}
	scope := TokenScopeUser
	if staff {
		if !authz.IsStaffRole(user.Role) {
			return nil, "", time.Time{}, ErrPermissionDenied
		}
		scope = TokenScopeStaff
	}

	token, expiresAt, err := s.GenerateJWT(user, scope)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	user.LastLoginAt = &now
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, token, expiresAt, nil
}

// ChangePassword 登录态修改密码，旧令牌随版本递增失效
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.ValidatePassword(newPassword, user.Username); err != nil {
		return err
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.TokenVersion++
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return nil
}

// ensureUnique 校验用户名与邮箱未被其他用户占用
func (s *AuthService) ensureUnique(username, email string, selfID uint) error {
	return ensureUserUnique(s.userRepo, username, email, selfID)
}

func ensureUserUnique(repo repository.UserRepository, username, email string, selfID uint) error {
	if username != "" {
		exist, err := repo.GetByUsername(username)
		if err != nil {
			return err
		}
		if exist != nil && exist.ID != selfID {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		exist, err := repo.GetByEmail(email)
		if err != nil {
			return err
		}
		if exist != nil && exist.ID != selfID {
			return ErrEmailTaken
		}
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
