package admin

import (
	"time"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/models"

	"github.com/gin-gonic/gin"
)

// StaffLoginRequest 员工登录请求
type StaffLoginRequest struct {
	Username       string                              `json:"username" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// StaffLoginResponse 员工登录响应
type StaffLoginResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   string       `json:"expires_at"`
	User        *models.User `json:"user"`
	Permissions []string     `json:"permissions"`
}

// Login 员工登录，签发员工作用域令牌
func (h *Handler) Login(c *gin.Context) {
	var req StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(req.CaptchaPayload.ToServicePayload()); err != nil {
			respondServiceError(c, err, "验证码校验失败")
			return
		}
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password, true)
	if err != nil {
		respondServiceError(c, err, "登录失败")
		return
	}
	response.Success(c, StaffLoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        user,
		Permissions: h.permissionsOf(user),
	})
}

// GetMe 当前员工信息及权限
func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	user, err := h.UserService.Get(actor.ID)
	if err != nil {
		respondServiceError(c, err, "获取用户信息失败")
		return
	}
	response.Success(c, gin.H{
		"user":        user,
		"permissions": h.permissionsOf(user),
	})
}

func (h *Handler) permissionsOf(user *models.User) []string {
	if h.AuthzService == nil {
		return []string{}
	}
	policies, err := h.AuthzService.GetRolePolicies(user.Role)
	if err != nil {
		return []string{}
	}
	perms := make([]string, 0, len(policies))
	for _, policy := range policies {
		perms = append(perms, policy.Permission())
	}
	return perms
}
