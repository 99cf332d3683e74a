package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/config"
	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
			handlershared.HeaderCartSession,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// AuthMiddleware 令牌鉴权中间件
// scope 区分顾客令牌与员工令牌；optional 为 true 时未携带或无效令牌按匿名放行
func AuthMiddleware(authService *service.AuthService, scope string, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		reject := func(msg string) {
			if optional {
				c.Next()
				return
			}
			response.Unauthorized(c, msg)
			c.Abort()
		}
		if authService == nil {
			reject("鉴权服务不可用")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject("缺少 Authorization 头")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			reject("Authorization 头格式错误")
			return
		}

		claims, err := authService.ParseJWT(parts[1], scope)
		if err != nil || claims.UserID == 0 {
			reject("无效的 token")
			return
		}
		state, err := authService.ResolveAuthState(c.Request.Context(), claims.UserID)
		if err != nil || state == nil {
			reject("无效的 token")
			return
		}
		if !state.IsActive {
			reject("用户已禁用")
			return
		}
		if claims.TokenVersion != state.TokenVersion {
			reject("token 已失效，请重新登录")
			return
		}
		if scope == service.TokenScopeStaff && !authz.IsStaffRole(state.Role) {
			reject("无效的 token")
			return
		}

		c.Set(handlershared.ContextKeyUserID, state.UserID)
		c.Set(handlershared.ContextKeyUserRole, state.Role)
		c.Set(handlershared.ContextKeySuperuser, state.IsSuperuser)
		c.Next()
	}
}

// UserJWTAuthMiddleware 顾客令牌鉴权
func UserJWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return AuthMiddleware(authService, service.TokenScopeUser, false)
}

// OptionalUserJWTMiddleware 可选顾客令牌，匿名访客以购物车会话访问
func OptionalUserJWTMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return AuthMiddleware(authService, service.TokenScopeUser, true)
}

// StaffJWTAuthMiddleware 员工令牌鉴权
func StaffJWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return AuthMiddleware(authService, service.TokenScopeStaff, false)
}

// RequirePermission 按 Casbin 策略校验员工权限
func RequirePermission(authzService *authz.Service, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := handlershared.ActorFromContext(c)
		if !ok {
			response.Unauthorized(c, "未登录")
			c.Abort()
			return
		}
		if authzService == nil {
			logger.Errorw("authz_service_unavailable", "permission", perm)
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		allowed, err := authzService.Can(actor, perm)
		if err != nil {
			logger.Errorw("authz_enforce_failed",
				"user_id", actor.ID,
				"role", actor.Role,
				"permission", perm,
				"error", err,
			)
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("authz_permission_denied",
				"user_id", actor.ID,
				"role", actor.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"permission", perm,
			)
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		c.Next()
	}
}
