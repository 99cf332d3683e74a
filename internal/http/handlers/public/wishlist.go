package public

import (
	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AddWishlistRequest 加入收藏请求
type AddWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// ListWishlist 本人收藏
func (h *Handler) ListWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "获取收藏失败", err)
		return
	}
	response.Success(c, items)
}

// AddWishlist 加入收藏
func (h *Handler) AddWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	items, err := h.WishlistService.Add(uid, req.ProductID)
	if err != nil {
		respondServiceError(c, err, "收藏失败")
		return
	}
	response.Success(c, items)
}

// RemoveWishlist 取消收藏
func (h *Handler) RemoveWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := handlershared.ParseUintParam(c, "product_id")
	if !ok {
		return
	}
	items, err := h.WishlistService.Remove(uid, productID)
	if err != nil {
		respondServiceError(c, err, "取消收藏失败")
		return
	}
	response.Success(c, items)
}
