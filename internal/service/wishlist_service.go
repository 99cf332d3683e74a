package service

import (
	"time"

	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
)

// WishlistService 用户收藏服务
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建收藏服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// WishlistItem 收藏条目
type WishlistItem struct {
	ProductID uint          `json:"product_id"`
	AddedAt   time.Time     `json:"added_at"`
	Product   ProductDetail `json:"product"`
}

// List 用户收藏列表；已下架或已删除的商品不展示
func (s *WishlistService) List(userID uint) ([]WishlistItem, error) {
	rows, err := s.wishlistRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	items := make([]WishlistItem, 0, len(rows))
	for i := range rows {
		product := rows[i].Product
		if product == nil || !product.IsActive {
			continue
		}
		items = append(items, WishlistItem{
			ProductID: rows[i].ProductID,
			AddedAt:   rows[i].AddedAt,
			Product:   NewProductDetail(product),
		})
	}
	return items, nil
}

// Contains 商品是否在用户收藏中
func (s *WishlistService) Contains(userID, productID uint) (bool, error) {
	return s.wishlistRepo.Exists(userID, productID)
}

// Add 加入收藏，重复加入不报错
func (s *WishlistService) Add(userID, productID uint) ([]WishlistItem, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	exists, err := s.wishlistRepo.Exists(userID, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.wishlistRepo.Create(&models.Wishlist{UserID: userID, ProductID: productID}); err != nil && !repository.IsUniqueViolation(err) {
			return nil, err
		}
		logger.Infow("wishlist_added", "user_id", userID, "product_id", productID)
	}
	return s.List(userID)
}

// Remove 取消收藏
func (s *WishlistService) Remove(userID, productID uint) ([]WishlistItem, error) {
	rows, err := s.wishlistRepo.Delete(userID, productID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrWishlistItemNotFound
	}
	return s.List(userID)
}
