package shared

import (
	"strconv"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextKeyUserID      = "user_id"
	ContextKeyUserRole    = "user_role"
	ContextKeySuperuser   = "user_is_superuser"
	ContextKeyCartSession = "cart_session"
	HeaderCartSession     = "X-Cart-Session"
)

// GetContextUint 从上下文读取 uint 值，缺失时返回未登录错误。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "未登录", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "用户标识无效", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "用户标识无效", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "用户标识类型错误", nil)
		return 0, false
	}
}

// GetUserID 读取当前登录用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextKeyUserID)
}

// OptionalUserID 可选登录场景下读取用户 ID，未登录返回 0
func OptionalUserID(c *gin.Context) uint {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}

// ActorFromContext 组装当前操作者的权限主体
func ActorFromContext(c *gin.Context) (authz.Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return authz.Actor{}, false
	}
	actor := authz.Actor{ID: id}
	if role, ok := c.Get(ContextKeyUserRole); ok {
		actor.Role, _ = role.(string)
	}
	if superuser, ok := c.Get(ContextKeySuperuser); ok {
		actor.IsSuperuser, _ = superuser.(bool)
	}
	return actor, true
}

// ParseUintParam 解析路径中的 ID 参数，失败时直接响应
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "参数错误", nil)
		return 0, false
	}
	return uint(id), true
}
