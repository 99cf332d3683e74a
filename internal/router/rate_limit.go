package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verso-store/internal/cache"
	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/logger"

	"github.com/gin-gonic/gin"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则；超过次数后在 BlockSeconds 内拒绝请求
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
}

// LoginRateLimitRule 由安全配置生成登录限流规则
func LoginRateLimitRule(prefix string, cfg config.LoginRateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxAttempts,
		BlockSeconds:  cfg.BlockSeconds,
	}
}

// RateLimitMiddleware Redis 频率限制中间件，未启用 Redis 时放行
func RateLimitMiddleware(rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Enabled() || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("ratelimit:%s:%s", rule.Prefix, key)
		}
		blockKey := key + ":blocked"
		ctx := c.Request.Context()

		if _, blocked, err := cache.GetString(ctx, blockKey, false); err == nil && blocked {
			rejectRateLimited(c, ctx, blockKey)
			return
		}

		count, err := cache.Incr(ctx, key, time.Duration(rule.WindowSeconds)*time.Second)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
			response.Error(c, response.CodeInternal, "限流服务不可用")
			c.Abort()
			return
		}
		if count > int64(rule.MaxRequests) {
			if rule.BlockSeconds > 0 {
				_ = cache.SetString(ctx, blockKey, "1", time.Duration(rule.BlockSeconds)*time.Second)
				rejectRateLimited(c, ctx, blockKey)
				return
			}
			rejectRateLimited(c, ctx, key)
			return
		}

		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, ctx context.Context, key string) {
	waitSeconds := 1
	if ttl, err := cache.TTL(ctx, key); err == nil && ttl > time.Second {
		waitSeconds = int(ttl / time.Second)
	}
	response.Error(c, response.CodeTooManyRequests, fmt.Sprintf("请求过于频繁，请 %d 秒后重试", waitSeconds))
	c.Abort()
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	value, ok := payload[field]
	if !ok {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}
