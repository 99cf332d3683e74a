package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveProductRequest 创建/更新商品请求
type SaveProductRequest struct {
	SKU                string       `json:"sku" binding:"required"`
	Slug               string       `json:"slug"`
	Name               string       `json:"name" binding:"required"`
	Description        string       `json:"description"`
	ShortDescription   string       `json:"short_description"`
	CategoryID         *uint        `json:"category_id"`
	Gender             string       `json:"gender"`
	BasePrice          models.Money `json:"base_price"`
	DiscountPercentage models.Money `json:"discount_percentage"`
	DiscountAmount     models.Money `json:"discount_amount"`
	TotalStock         *int         `json:"total_stock"`
	LowStockThreshold  *int         `json:"low_stock_threshold"`
	Features           []string     `json:"features"`
	Material           string       `json:"material"`
	IsActive           *bool        `json:"is_active"`
	IsFeatured         *bool        `json:"is_featured"`
}

func (req SaveProductRequest) toInput() service.SaveProductInput {
	return service.SaveProductInput{
		SKU:                req.SKU,
		Slug:               req.Slug,
		Name:               req.Name,
		Description:        req.Description,
		ShortDescription:   req.ShortDescription,
		CategoryID:         req.CategoryID,
		Gender:             req.Gender,
		BasePrice:          req.BasePrice,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		TotalStock:         req.TotalStock,
		LowStockThreshold:  req.LowStockThreshold,
		Features:           req.Features,
		Material:           req.Material,
		IsActive:           req.IsActive,
		IsFeatured:         req.IsFeatured,
	}
}

// SaveVariantRequest 创建/更新规格请求
type SaveVariantRequest struct {
	Size            string       `json:"size" binding:"required"`
	Color           string       `json:"color" binding:"required"`
	ColorHex        string       `json:"color_hex"`
	Stock           int          `json:"stock"`
	AdditionalPrice models.Money `json:"additional_price"`
	SKUSuffix       string       `json:"sku_suffix"`
}

func (req SaveVariantRequest) toInput() service.SaveVariantInput {
	return service.SaveVariantInput{
		Size:            req.Size,
		Color:           req.Color,
		ColorHex:        req.ColorHex,
		Stock:           req.Stock,
		AdditionalPrice: req.AdditionalPrice,
		SKUSuffix:       req.SKUSuffix,
	}
}

// SetStockRequest 盘点库存请求
type SetStockRequest struct {
	VariantID uint `json:"variant_id"`
	Stock     int  `json:"stock"`
}

// GetProducts 后台商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.PageParams(c)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   uint(categoryID),
		Search:       strings.TrimSpace(c.Query("search")),
		StockStatus:  strings.TrimSpace(c.Query("stock_status")),
		WithVariants: true,
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	products, total, err := h.CatalogService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取商品列表失败", err)
		return
	}
	items := make([]service.ProductDetail, 0, len(products))
	for i := range products {
		items = append(items, service.NewProductDetail(&products[i]))
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// GetProduct 后台商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.CatalogService.GetAdminByID(id)
	if err != nil {
		respondServiceError(c, err, "获取商品详情失败")
		return
	}
	response.Success(c, service.NewProductDetail(product))
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	product, err := h.CatalogService.Create(req.toInput(), actor.ID)
	if err != nil {
		respondServiceError(c, err, "创建商品失败")
		return
	}
	response.Success(c, service.NewProductDetail(product))
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	product, err := h.CatalogService.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新商品失败")
		return
	}
	response.Success(c, service.NewProductDetail(product))
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.Delete(id); err != nil {
		respondServiceError(c, err, "删除商品失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// CreateVariant 新增商品规格
func (h *Handler) CreateVariant(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SaveVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	variant, err := h.CatalogService.CreateVariant(productID, req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建规格失败")
		return
	}
	response.Success(c, variant)
}

// UpdateVariant 更新商品规格
func (h *Handler) UpdateVariant(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := handlershared.ParseUintParam(c, "variant_id")
	if !ok {
		return
	}
	var req SaveVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	variant, err := h.CatalogService.UpdateVariant(productID, variantID, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新规格失败")
		return
	}
	response.Success(c, variant)
}

// DeleteVariant 删除商品规格
func (h *Handler) DeleteVariant(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := handlershared.ParseUintParam(c, "variant_id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteVariant(productID, variantID); err != nil {
		respondServiceError(c, err, "删除规格失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// SetStock 盘点库存
func (h *Handler) SetStock(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	product, err := h.CatalogService.SetStock(productID, req.VariantID, req.Stock)
	if err != nil {
		respondServiceError(c, err, "设置库存失败")
		return
	}
	response.Success(c, service.NewProductDetail(product))
}
