package admin

import (
	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveCategoryRequest 创建/更新分类请求
type SaveCategoryRequest struct {
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	ParentID     *uint  `json:"parent_id"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

func (req SaveCategoryRequest) toInput() service.SaveCategoryInput {
	return service.SaveCategoryInput{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		ParentID:     req.ParentID,
		IsActive:     req.IsActive,
		DisplayOrder: req.DisplayOrder,
	}
}

// GetCategories 全部分类
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.CategoryService.List(false)
	if err != nil {
		respondError(c, response.CodeInternal, "获取分类失败", err)
		return
	}
	response.Success(c, categories)
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req SaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	category, err := h.CategoryService.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建分类失败")
		return
	}
	response.Success(c, category)
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	category, err := h.CategoryService.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新分类失败")
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(id); err != nil {
		respondServiceError(c, err, "删除分类失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
