package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/verso-store/internal/cache"
	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/logger"

	"github.com/mojocn/base64Captcha"
)

const (
	captchaKeyPrefix = "captcha:"
	captchaMaxStore  = 10240
	captchaCharset   = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
)

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
	ExpiresIn   int    `json:"expires_in"`
}

// CaptchaService 登录图片验证码
// Redis 启用时答案存入 Redis，多实例共享；否则使用进程内存储
type CaptchaService struct {
	cfg config.CaptchaConfig

	mu    sync.Mutex
	store base64Captcha.Store
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	if cfg.Length <= 0 {
		cfg.Length = 5
	}
	if cfg.Width <= 0 {
		cfg.Width = 240
	}
	if cfg.Height <= 0 {
		cfg.Height = 80
	}
	if cfg.ExpireSeconds <= 0 {
		cfg.ExpireSeconds = 300
	}
	return &CaptchaService{cfg: cfg}
}

// Enabled 是否开启登录验证码
func (s *CaptchaService) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if !s.Enabled() {
		return nil, ErrCaptchaUnavailable
	}
	driver := base64Captcha.NewDriverString(
		s.cfg.Height,
		s.cfg.Width,
		s.cfg.NoiseCount,
		base64Captcha.OptionShowHollowLine,
		s.cfg.Length,
		captchaCharset,
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
	captcha := base64Captcha.NewCaptcha(driver, s.imageStore())
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{
		CaptchaID:   strings.TrimSpace(id),
		ImageBase64: strings.TrimSpace(b64s),
		ExpiresIn:   s.cfg.ExpireSeconds,
	}, nil
}

// Verify 校验验证码，未开启时直接通过；答案一次性有效
func (s *CaptchaService) Verify(payload CaptchaVerifyPayload) error {
	if !s.Enabled() {
		return nil
	}
	captchaID := strings.TrimSpace(payload.CaptchaID)
	captchaCode := strings.TrimSpace(payload.CaptchaCode)
	if captchaID == "" || captchaCode == "" {
		return ErrCaptchaRequired
	}
	if !s.imageStore().Verify(captchaID, captchaCode, true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) imageStore() base64Captcha.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store
	}
	expire := time.Duration(s.cfg.ExpireSeconds) * time.Second
	if cache.Enabled() {
		s.store = &redisCaptchaStore{ttl: expire}
	} else {
		s.store = base64Captcha.NewMemoryStore(captchaMaxStore, expire)
	}
	return s.store
}

// redisCaptchaStore 基于 Redis 的验证码答案存储
type redisCaptchaStore struct {
	ttl time.Duration
}

func (r *redisCaptchaStore) Set(id string, value string) error {
	return cache.SetString(context.Background(), captchaKeyPrefix+id, value, r.ttl)
}

func (r *redisCaptchaStore) Get(id string, clear bool) string {
	value, ok, err := cache.GetString(context.Background(), captchaKeyPrefix+id, clear)
	if err != nil {
		logger.Warnw("captcha_store_get_failed", "captcha_id", id, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

func (r *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	expected := r.Get(id, clear)
	if expected == "" {
		return false
	}
	return strings.EqualFold(expected, strings.TrimSpace(answer))
}
