package public

import (
	"strings"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartItemRequest 加购请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartCouponRequest 优惠券预览请求
type CartCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// cartOwner 登录用户使用用户购物车，否则使用 X-Cart-Session 会话购物车
func cartOwner(c *gin.Context, issue bool) (service.CartOwner, bool) {
	if uid := handlershared.OptionalUserID(c); uid != 0 {
		return service.UserCartOwner(uid), true
	}
	sessionKey := strings.TrimSpace(c.GetHeader(handlershared.HeaderCartSession))
	if sessionKey == "" {
		if !issue {
			return service.CartOwner{}, false
		}
		sessionKey = service.NewSessionKey()
	}
	c.Header(handlershared.HeaderCartSession, sessionKey)
	return service.SessionCartOwner(sessionKey), true
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := cartOwner(c, false)
	if !ok {
		response.Success(c, service.BuildCartView(&models.Cart{}, decimal.Zero))
		return
	}
	view, err := h.CartService.GetCart(owner)
	if err != nil {
		respondServiceError(c, err, "获取购物车失败")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车，匿名访客首次加购时下发会话标识
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	owner, _ := cartOwner(c, true)
	view, err := h.CartService.AddItem(owner, service.AddCartItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondServiceError(c, err, "加入购物车失败")
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 修改购物车项数量，数量为 0 时删除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	itemID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	owner, ok := cartOwner(c, false)
	if !ok {
		respondServiceError(c, service.ErrCartItemNotFound, "")
		return
	}
	view, err := h.CartService.UpdateItemQuantity(owner, itemID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "更新购物车失败")
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	itemID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	owner, ok := cartOwner(c, false)
	if !ok {
		respondServiceError(c, service.ErrCartItemNotFound, "")
		return
	}
	view, err := h.CartService.RemoveItem(owner, itemID)
	if err != nil {
		respondServiceError(c, err, "删除购物车项失败")
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	owner, ok := cartOwner(c, false)
	if ok {
		if err := h.CartService.Clear(owner); err != nil {
			respondServiceError(c, err, "清空购物车失败")
			return
		}
	}
	response.Success(c, gin.H{"cleared": true})
}

// PreviewCoupon 预览优惠券对当前购物车的折扣
func (h *Handler) PreviewCoupon(c *gin.Context) {
	var req CartCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	owner, ok := cartOwner(c, false)
	if !ok {
		respondServiceError(c, service.ErrEmptyCart, "")
		return
	}
	view, err := h.CouponService.Preview(owner, handlershared.OptionalUserID(c), req.Code)
	if err != nil {
		respondServiceError(c, err, "优惠券校验失败")
		return
	}
	response.Success(c, view)
}
