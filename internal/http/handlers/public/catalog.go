package public

import (
	"strconv"
	"strings"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// productFilterFromQuery 解析前台商品列表查询参数，价格参数非法时直接响应
func productFilterFromQuery(c *gin.Context) (repository.ProductListFilter, bool) {
	page, pageSize := handlershared.PageParams(c)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   uint(categoryID),
		Search:       strings.TrimSpace(c.Query("search")),
		Gender:       strings.TrimSpace(c.Query("gender")),
		Sort:         strings.TrimSpace(c.Query("sort")),
		OnlyFeatured: c.Query("featured") == "true",
		OnlySale:     c.Query("on_sale") == "true",
		WithVariants: true,
	}
	for _, bound := range []struct {
		key  string
		dest **decimal.Decimal
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil || value.IsNegative() {
			respondError(c, response.CodeBadRequest, "价格区间无效", err)
			return filter, false
		}
		*bound.dest = &value
	}
	return filter, true
}

func respondProductPage(c *gin.Context, filter repository.ProductListFilter, list func(repository.ProductListFilter) ([]models.Product, int64, error)) {
	products, total, err := list(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取商品列表失败", err)
		return
	}
	items := make([]service.ProductDetail, 0, len(products))
	for i := range products {
		items = append(items, service.NewProductDetail(&products[i]))
	}
	response.SuccessWithPage(c, items, response.NewPagination(filter.Page, filter.PageSize, total))
}

// ListProducts 商品列表，支持分类、人群、价格区间、关键词、精选与排序
func (h *Handler) ListProducts(c *gin.Context) {
	filter, ok := productFilterFromQuery(c)
	if !ok {
		return
	}
	respondProductPage(c, filter, h.CatalogService.ListPublic)
}

// ListSaleProducts 折扣商品列表
func (h *Handler) ListSaleProducts(c *gin.Context) {
	filter, ok := productFilterFromQuery(c)
	if !ok {
		return
	}
	respondProductPage(c, filter, h.CatalogService.ListSale)
}

// ListNewArrivals 新品列表
func (h *Handler) ListNewArrivals(c *gin.Context) {
	filter, ok := productFilterFromQuery(c)
	if !ok {
		return
	}
	respondProductPage(c, filter, h.CatalogService.ListNewArrivals)
}

// ProductDetailResponse 商品详情，登录用户附带收藏状态
type ProductDetailResponse struct {
	service.ProductDetail
	InWishlist bool `json:"in_wishlist"`
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.CatalogService.GetPublicBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "获取商品详情失败")
		return
	}
	resp := ProductDetailResponse{ProductDetail: service.NewProductDetail(product)}
	if uid := handlershared.OptionalUserID(c); uid != 0 && h.WishlistService != nil {
		inWishlist, err := h.WishlistService.Contains(uid, product.ID)
		if err != nil {
			logger.Warnw("wishlist_lookup_failed", "user_id", uid, "product_id", product.ID, "error", err)
		}
		resp.InWishlist = inWishlist
	}
	response.Success(c, resp)
}

// GetRelatedProducts 同分类推荐商品
func (h *Handler) GetRelatedProducts(c *gin.Context) {
	products, err := h.CatalogService.RelatedProducts(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "获取推荐商品失败")
		return
	}
	items := make([]service.ProductDetail, 0, len(products))
	for i := range products {
		items = append(items, service.NewProductDetail(&products[i]))
	}
	response.Success(c, items)
}

// ListCategories 启用分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List(true)
	if err != nil {
		respondError(c, response.CodeInternal, "获取分类失败", err)
		return
	}
	response.Success(c, categories)
}
