package admin

import (
	"strings"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveUserRequest 员工创建/编辑用户请求
type SaveUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
}

func (req SaveUserRequest) toInput() service.SaveUserInput {
	return service.SaveUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
	}
}

// GetAdminUsers 获取用户列表，仅返回等级低于操作者的用户
func (h *Handler) GetAdminUsers(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageParams(c)
	users, total, err := h.UserService.List(actor, repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
	})
	if err != nil {
		respondServiceError(c, err, "获取用户列表失败")
		return
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// GetAdminUser 用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserService.Get(id)
	if err != nil {
		respondServiceError(c, err, "获取用户失败")
		return
	}
	response.Success(c, user)
}

// CreateAdminUser 创建用户
func (h *Handler) CreateAdminUser(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	user, err := h.UserService.Create(actor, req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建用户失败")
		return
	}
	response.Success(c, user)
}

// UpdateAdminUser 编辑用户
func (h *Handler) UpdateAdminUser(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	user, err := h.UserService.Update(actor, id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新用户失败")
		return
	}
	response.Success(c, user)
}

// DeleteAdminUser 删除用户，目标等级必须严格低于操作者
func (h *Handler) DeleteAdminUser(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserService.Delete(actor, id); err != nil {
		respondServiceError(c, err, "删除用户失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
