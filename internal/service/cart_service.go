package service

import (
	"strings"

	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/pricing"
	"github.com/verso-store/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartOwner 购物车归属：登录用户或匿名会话，二者取其一
type CartOwner struct {
	UserID     uint
	SessionKey string
}

// UserCartOwner 登录用户归属
func UserCartOwner(userID uint) CartOwner {
	return CartOwner{UserID: userID}
}

// SessionCartOwner 匿名会话归属
func SessionCartOwner(sessionKey string) CartOwner {
	return CartOwner{SessionKey: strings.TrimSpace(sessionKey)}
}

// Valid 恰好指定了一种归属
func (o CartOwner) Valid() bool {
	return (o.UserID != 0) != (o.SessionKey != "")
}

// NewSessionKey 生成匿名购物车会话标识
func NewSessionKey() string {
	return uuid.NewString()
}

// CartLineView 购物车行
type CartLineView struct {
	ItemID      uint         `json:"item_id"`
	ProductID   uint         `json:"product_id"`
	VariantID   uint         `json:"variant_id,omitempty"`
	ProductName string       `json:"product_name"`
	ProductSlug string       `json:"product_slug"`
	SKU         string       `json:"sku"`
	Size        string       `json:"size,omitempty"`
	Color       string       `json:"color,omitempty"`
	UnitPrice   models.Money `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	LineTotal   models.Money `json:"line_total"`
	Available   bool         `json:"available"`
}

// CartView 购物车及金额汇总
type CartView struct {
	CartID     uint           `json:"cart_id"`
	SessionKey string         `json:"session_key,omitempty"`
	Items      []CartLineView `json:"items"`
	TotalItems int            `json:"total_items"`
	Subtotal   models.Money   `json:"subtotal"`
	Tax        models.Money   `json:"tax"`
	Shipping   models.Money   `json:"shipping"`
	Discount   models.Money   `json:"discount"`
	Total      models.Money   `json:"total"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	ProductID uint
	VariantID uint
	Quantity  int
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	variantRepo repository.ProductVariantRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, variantRepo repository.ProductVariantRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

// FindCart 查找归属的购物车，不存在返回 nil
func (s *CartService) FindCart(owner CartOwner) (*models.Cart, error) {
	return findCart(s.cartRepo, owner)
}

func findCart(repo repository.CartRepository, owner CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidCartOwner
	}
	if owner.UserID != 0 {
		return repo.GetByUser(owner.UserID)
	}
	return repo.GetBySession(owner.SessionKey)
}

// ResolveCart 获取或创建购物车
func (s *CartService) ResolveCart(owner CartOwner) (*models.Cart, error) {
	return resolveCart(s.cartRepo, owner)
}

func resolveCart(repo repository.CartRepository, owner CartOwner) (*models.Cart, error) {
	cart, err := findCart(repo, owner)
	if err != nil || cart != nil {
		return cart, err
	}
	cart = &models.Cart{}
	if owner.UserID != 0 {
		userID := owner.UserID
		cart.UserID = &userID
	} else {
		sessionKey := owner.SessionKey
		cart.SessionKey = &sessionKey
	}
	if err := repo.Create(cart); err != nil {
		if repository.IsUniqueViolation(err) {
			// 并发请求已创建
			return findCart(repo, owner)
		}
		return nil, err
	}
	return cart, nil
}

// GetCart 获取购物车视图，不存在时返回空购物车
func (s *CartService) GetCart(owner CartOwner) (*CartView, error) {
	cart, err := s.FindCart(owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return BuildCartView(&models.Cart{}, decimal.Zero), nil
	}
	return BuildCartView(cart, decimal.Zero), nil
}

// AddItem 加入购物车；已存在相同商品规格时累加数量
func (s *CartService) AddItem(owner CartOwner, input AddCartItemInput) (*CartView, error) {
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductNotAvailable
	}

	available := product.TotalStock
	if input.VariantID != 0 {
		variant, err := s.variantRepo.GetByID(input.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, ErrVariantNotFound
		}
		if variant.ProductID != product.ID {
			return nil, ErrVariantMismatch
		}
		available = variant.Stock
	} else {
		count, err := s.variantRepo.CountByProduct(product.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrVariantRequired
		}
	}

	cart, err := s.ResolveCart(owner)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, product.ID, input.VariantID)
	if err != nil {
		return nil, err
	}
	current := 0
	if existing != nil {
		current = existing.Quantity
	}
	if current+input.Quantity > available {
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		if err := s.cartRepo.IncrementItemQuantity(existing.ID, input.Quantity); err != nil {
			return nil, err
		}
	} else {
		item := &models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			if !repository.IsUniqueViolation(err) {
				return nil, err
			}
			raced, findErr := s.cartRepo.FindItem(cart.ID, product.ID, input.VariantID)
			if findErr != nil || raced == nil {
				return nil, err
			}
			if err := s.cartRepo.IncrementItemQuantity(raced.ID, input.Quantity); err != nil {
				return nil, err
			}
		}
	}
	_ = s.cartRepo.Touch(cart.ID)
	return s.reload(cart.ID)
}

// UpdateItemQuantity 设置数量，数量 <= 0 时移除该项
func (s *CartService) UpdateItemQuantity(owner CartOwner, itemID uint, quantity int) (*CartView, error) {
	cart, item, err := s.ownedItem(owner, itemID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(item.ID); err != nil {
			return nil, err
		}
		return s.reload(cart.ID)
	}
	if err := s.cartRepo.SetItemQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	_ = s.cartRepo.Touch(cart.ID)
	return s.reload(cart.ID)
}

// RemoveItem 移除购物车项，需属于当前归属的购物车
func (s *CartService) RemoveItem(owner CartOwner, itemID uint) (*CartView, error) {
	cart, item, err := s.ownedItem(owner, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return nil, err
	}
	return s.reload(cart.ID)
}

// Clear 清空购物车，购物车本身保留
func (s *CartService) Clear(owner CartOwner) error {
	cart, err := s.FindCart(owner)
	if err != nil || cart == nil {
		return err
	}
	_, err = s.cartRepo.ClearItems(cart.ID)
	return err
}

// Merge 登录时把匿名购物车并入用户购物车；源购物车不存在时为空操作
func (s *CartService) Merge(sessionKey string, userID uint) (*CartView, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" || userID == 0 {
		return nil, ErrInvalidCartOwner
	}
	var destID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)
		source, err := repo.GetBySession(sessionKey)
		if err != nil {
			return err
		}
		dest, err := repo.GetByUser(userID)
		if err != nil {
			return err
		}
		if source == nil {
			if dest != nil {
				destID = dest.ID
			}
			return nil
		}
		if dest == nil {
			// 用户尚无购物车，直接认领匿名购物车
			if err := tx.Model(&models.Cart{}).Where("id = ?", source.ID).
				Updates(map[string]interface{}{"user_id": userID, "session_key": nil}).Error; err != nil {
				return err
			}
			destID = source.ID
			return nil
		}
		for _, item := range source.Items {
			existing, err := repo.FindItem(dest.ID, item.ProductID, item.VariantID)
			if err != nil {
				return err
			}
			if existing != nil {
				if err := repo.IncrementItemQuantity(existing.ID, item.Quantity); err != nil {
					return err
				}
				if err := repo.DeleteItem(item.ID); err != nil {
					return err
				}
				continue
			}
			if err := repo.MoveItem(item.ID, dest.ID); err != nil {
				return err
			}
		}
		destID = dest.ID
		return repo.Delete(source.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Debugw("cart_merged", "user_id", userID, "cart_id", destID)
	if destID == 0 {
		return BuildCartView(&models.Cart{}, decimal.Zero), nil
	}
	return s.reload(destID)
}

func (s *CartService) ownedItem(owner CartOwner, itemID uint) (*models.Cart, *models.CartItem, error) {
	cart, err := s.FindCart(owner)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, ErrCartItemNotFound
	}
	item, err := s.cartRepo.GetItem(itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil || item.CartID != cart.ID {
		return nil, nil, ErrCartItemNotFound
	}
	return cart, item, nil
}

func (s *CartService) reload(cartID uint) (*CartView, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return BuildCartView(&models.Cart{}, decimal.Zero), nil
	}
	return BuildCartView(cart, decimal.Zero), nil
}

// BuildCartView 按当前商品价格计算购物车金额
func BuildCartView(cart *models.Cart, discount decimal.Decimal) *CartView {
	lines := make([]pricing.Line, 0, len(cart.Items))
	items := make([]CartLineView, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		line := CartLineView{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			UnitPrice: item.UnitPrice(),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
			Available: item.IsAvailable(),
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ProductSlug = item.Product.Slug
			line.SKU = item.Product.SKU
		}
		if item.Variant != nil && item.HasVariant() {
			line.Size = item.Variant.Size
			line.Color = item.Variant.Color
			line.SKU = item.Variant.FullSKU()
		}
		items = append(items, line)
		lines = append(lines, item.PricingLine())
	}
	summary := pricing.Summarize(lines, discount)
	view := &CartView{
		CartID:     cart.ID,
		Items:      items,
		TotalItems: cart.TotalItems(),
		Subtotal:   models.NewMoney(summary.Subtotal),
		Tax:        models.NewMoney(summary.Tax),
		Shipping:   models.NewMoney(summary.Shipping),
		Discount:   models.NewMoney(summary.Discount),
		Total:      models.NewMoney(summary.Total),
	}
	if cart.SessionKey != nil {
		view.SessionKey = *cart.SessionKey
	}
	return view
}
