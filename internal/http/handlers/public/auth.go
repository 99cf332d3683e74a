package public

import (
	"strings"
	"time"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Login          string                              `json:"login" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// TokenResponse 登录态响应
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register 用户注册，注册成功即登录
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}

	user, token, expiresAt, err := h.AuthService.Register(service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondServiceError(c, err, "注册失败")
		return
	}
	h.mergeSessionCart(c, user.ID)

	response.Success(c, TokenResponse{Token: token, ExpiresAt: expiresAt.Format(time.RFC3339), User: user})
}

// Login 用户登录，并合并匿名购物车
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
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

	user, token, expiresAt, err := h.AuthService.Login(req.Login, req.Password, false)
	if err != nil {
		respondServiceError(c, err, "登录失败")
		return
	}
	h.mergeSessionCart(c, user.ID)

	response.Success(c, TokenResponse{Token: token, ExpiresAt: expiresAt.Format(time.RFC3339), User: user})
}

func (h *Handler) mergeSessionCart(c *gin.Context, userID uint) {
	sessionKey := strings.TrimSpace(c.GetHeader(handlershared.HeaderCartSession))
	if sessionKey == "" {
		return
	}
	if _, err := h.CartService.Merge(sessionKey, userID); err != nil {
		handlershared.RequestLog(c).Warnw("cart_merge_failed", "user_id", userID, "error", err)
	}
}

// GetCaptcha 获取图片验证码
func (h *Handler) GetCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondServiceError(c, err, "验证码生成失败")
		return
	}
	response.Success(c, challenge)
}

// GetProfile 获取本人资料
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.Get(uid)
	if err != nil {
		respondServiceError(c, err, "获取用户信息失败")
		return
	}
	response.Success(c, user)
}

// UpdateProfileRequest 资料更新请求，未提交的字段保持不变
type UpdateProfileRequest struct {
	FirstName   *string          `json:"first_name"`
	LastName    *string          `json:"last_name"`
	Email       *string          `json:"email"`
	PhoneNumber *string          `json:"phone_number"`
	Address     *string          `json:"address"`
	City        *string          `json:"city"`
	State       *string          `json:"state"`
	Country     *string          `json:"country"`
	PostalCode  *string          `json:"postal_code"`
	Latitude    *decimal.Decimal `json:"latitude"`
	Longitude   *decimal.Decimal `json:"longitude"`
}

// UpdateProfile 更新本人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	user, err := h.UserService.UpdateProfile(uid, service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		PostalCode:  req.PostalCode,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		respondServiceError(c, err, "更新资料失败")
		return
	}
	response.Success(c, user)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改本人密码，旧令牌随之失效
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if err := h.AuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "修改密码失败")
		return
	}
	response.Success(c, gin.H{"updated": true})
}
