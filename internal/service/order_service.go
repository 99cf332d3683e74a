package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/metrics"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/pricing"
	"github.com/verso-store/internal/queue"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultOrderNumberPrefix  = "VSO"
	defaultOrderNumberRetries = 5
	orderNumberSuffixLength   = 4
	orderNumberAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	lowStockAlertWindow       = time.Hour
)

var errOrderNumberCollision = errors.New("order number collision")

// OrderOptions 订单服务配置
type OrderOptions struct {
	NumberPrefix     string
	NumberMaxRetries int
	LowStockAlert    bool
}

// CheckoutInput 结账输入，地址与联系方式为空时取用户资料
type CheckoutInput struct {
	PaymentMethod         string
	CouponCode            string
	CustomerName          string
	CustomerEmail         string
	CustomerPhone         string
	ShippingAddress       string
	ShippingCity          string
	ShippingState         string
	ShippingCountry       string
	ShippingPostalCode    string
	BillingSameAsShipping *bool
	BillingAddress        string
	BillingCity           string
	BillingState          string
	BillingCountry        string
	BillingPostalCode     string
	CustomerNotes         string
}

// OrderService 订单服务
type OrderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	variantRepo   repository.ProductVariantRepository
	cartRepo      repository.CartRepository
	couponRepo    repository.CouponRepository
	userRepo      repository.UserRepository
	txnRepo       repository.TransactionRepository
	couponService *CouponService
	queueClient   *queue.Client
	opts          OrderOptions
	now           func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	userRepo repository.UserRepository,
	txnRepo repository.TransactionRepository,
	couponService *CouponService,
	queueClient *queue.Client,
	opts OrderOptions,
) *OrderService {
	if strings.TrimSpace(opts.NumberPrefix) == "" {
		opts.NumberPrefix = defaultOrderNumberPrefix
	}
	if opts.NumberMaxRetries <= 0 {
		opts.NumberMaxRetries = defaultOrderNumberRetries
	}
	return &OrderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		cartRepo:      cartRepo,
		couponRepo:    couponRepo,
		userRepo:      userRepo,
		txnRepo:       txnRepo,
		couponService: couponService,
		queueClient:   queueClient,
		opts:          opts,
		now:           time.Now,
	}
}

// Checkout 将用户购物车转换为订单；锁定购物车、订单、订单项、库存扣减、优惠券核销与移除已下单购物车项在同一事务内完成
func (s *OrderService) Checkout(userID uint, input CheckoutInput) (order *models.Order, err error) {
	startedAt := s.now()
	defer func() {
		metrics.ObserveCheckout(checkoutResult(err), startedAt)
	}()

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	paymentMethod, err := normalizePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items, lines, err := snapshotCartItems(cart)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[uint]int, len(cart.Items))
	for _, cartItem := range cart.Items {
		snapshot[cartItem.ID] = cartItem.Quantity
	}

	var quote *CouponQuote
	discount := decimal.Zero
	if strings.TrimSpace(input.CouponCode) != "" {
		quote, err = s.couponService.Apply(input.CouponCode, CouponContextFromCart(cart, userID), startedAt)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
	}
	summary := pricing.Summarize(lines, discount)
	allocateOrderDiscount(items, summary.Discount)

	order, err = buildOrderSnapshot(user, input, paymentMethod)
	if err != nil {
		return nil, err
	}
	order.Subtotal = models.NewMoney(summary.Subtotal)
	order.Tax = models.NewMoney(summary.Tax)
	order.Shipping = models.NewMoney(summary.Shipping)
	order.Discount = models.NewMoney(summary.Discount)
	order.Total = models.NewMoney(summary.Total)
	if quote != nil {
		order.CouponID = &quote.Coupon.ID
		order.CouponCode = quote.Coupon.Code
	}

	for attempt := 0; attempt < s.opts.NumberMaxRetries; attempt++ {
		order.ID = 0
		order.OrderNumber = s.generateOrderNumber()
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = 0
		}
		err = s.persistCheckout(cart.ID, snapshot, order, items, quote)
		if !errors.Is(err, errOrderNumberCollision) {
			break
		}
		logger.Warnw("checkout_order_number_collision", "order_number", order.OrderNumber, "attempt", attempt+1)
	}
	if errors.Is(err, errOrderNumberCollision) {
		return nil, ErrOrderNumberExhausted
	}
	if err != nil {
		return nil, err
	}

	if quote != nil {
		metrics.CouponRedemptionsTotal.Inc()
	}
	logger.Infow("checkout_completed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.Total.String(),
	)
	s.notifyStatusChanged(order, "")
	s.alertLowStock(items)

	full, fetchErr := s.orderRepo.GetByID(order.ID)
	if fetchErr == nil && full != nil {
		return full, nil
	}
	return order, nil
}

// persistCheckout snapshot 为下单时读取的购物车项 ID 与数量
func (s *OrderService) persistCheckout(cartID uint, snapshot map[uint]int, order *models.Order, items []models.OrderItem, quote *CouponQuote) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		if err := verifyCartSnapshot(cartRepo, cartID, snapshot); err != nil {
			return err
		}
		for _, item := range items {
			if item.VariantID != nil || item.ProductID == nil {
				continue
			}
			count, err := variantRepo.CountByProduct(*item.ProductID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrVariantRequired
			}
		}
		if quote != nil && quote.Coupon.SingleUse && order.UserID != nil {
			used, err := s.couponRepo.WithTx(tx).CountUserUsages(quote.Coupon.ID, *order.UserID)
			if err != nil {
				return err
			}
			if used > 0 {
				return ErrCouponSingleUse
			}
		}

		if err := orderRepo.Create(order, items); err != nil {
			if repository.IsUniqueViolation(err) {
				return errOrderNumberCollision
			}
			return err
		}
		if !order.BillingSameAsShipping {
			// billing_same_as_shipping 列默认 true，零值插入会被忽略
			if err := orderRepo.Updates(order.ID, map[string]interface{}{"billing_same_as_shipping": false}); err != nil {
				return err
			}
		}

		for _, item := range items {
			if item.VariantID != nil {
				rows, err := variantRepo.DecrementStock(*item.VariantID, item.Quantity)
				if err != nil {
					return err
				}
				if rows == 0 {
					metrics.StockConflictsTotal.WithLabelValues("variant").Inc()
					logger.Warnw("checkout_stock_conflict", "variant_id", *item.VariantID, "quantity", item.Quantity)
					return ErrInsufficientStock
				}
			}
			if item.ProductID == nil {
				continue
			}
			rows, err := productRepo.DecrementStock(*item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				metrics.StockConflictsTotal.WithLabelValues("product").Inc()
				logger.Warnw("checkout_stock_conflict", "product_id", *item.ProductID, "quantity", item.Quantity)
				return ErrInsufficientStock
			}
		}

		if quote != nil {
			couponRepo := s.couponRepo.WithTx(tx)
			ok, err := couponRepo.IncrementUsage(quote.Coupon.ID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrCouponUsageLimit
			}
			usage := &models.CouponUsage{
				CouponID:       quote.Coupon.ID,
				UserID:         *order.UserID,
				OrderID:        order.ID,
				DiscountAmount: order.Discount,
			}
			if err := couponRepo.CreateUsage(usage); err != nil {
				return err
			}
		}

		itemIDs := make([]uint, 0, len(snapshot))
		for id := range snapshot {
			itemIDs = append(itemIDs, id)
		}
		_, err := cartRepo.DeleteItems(cartID, itemIDs)
		return err
	})
}

// verifyCartSnapshot 锁定购物车并确认购物车项与快照一致；快照之外新增的购物车项不影响本次下单
func verifyCartSnapshot(cartRepo repository.CartRepository, cartID uint, snapshot map[uint]int) error {
	cart, err := cartRepo.LockByID(cartID)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrEmptyCart
	}
	current, err := cartRepo.ListItems(cartID)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return ErrEmptyCart
	}
	quantities := make(map[uint]int, len(current))
	for _, item := range current {
		quantities[item.ID] = item.Quantity
	}
	for id, quantity := range snapshot {
		got, ok := quantities[id]
		if !ok || got != quantity {
			logger.Warnw("checkout_cart_changed", "cart_id", cartID, "cart_item_id", id)
			return ErrCartChanged
		}
	}
	return nil
}

// snapshotCartItems 生成订单项快照与计价行
func snapshotCartItems(cart *models.Cart) ([]models.OrderItem, []pricing.Line, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	lines := make([]pricing.Line, 0, len(cart.Items))
	for i := range cart.Items {
		cartItem := &cart.Items[i]
		product := cartItem.Product
		if product == nil || !product.IsActive {
			return nil, nil, ErrProductNotAvailable
		}
		if cartItem.HasVariant() && cartItem.Variant == nil {
			return nil, nil, ErrVariantNotFound
		}
		productID := product.ID
		item := models.OrderItem{
			ProductID:   &productID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			UnitPrice:   cartItem.UnitPrice(),
			Quantity:    cartItem.Quantity,
		}
		if cartItem.HasVariant() {
			variantID := cartItem.Variant.ID
			item.VariantID = &variantID
			item.ProductSKU = cartItem.Variant.FullSKU()
			item.Size = cartItem.Variant.Size
			item.Color = cartItem.Variant.Color
		}
		items = append(items, item)
		lines = append(lines, cartItem.PricingLine())
	}
	return items, lines, nil
}

// allocateOrderDiscount 按行金额比例分摊订单优惠，尾差计入最后一行
func allocateOrderDiscount(items []models.OrderItem, discount decimal.Decimal) {
	if len(items) == 0 || !discount.IsPositive() {
		return
	}
	totals := make([]decimal.Decimal, len(items))
	sum := decimal.Zero
	for i := range items {
		totals[i] = items[i].UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		sum = sum.Add(totals[i])
	}
	if !sum.IsPositive() {
		return
	}
	remaining := discount
	for i := range items {
		var alloc decimal.Decimal
		if i == len(items)-1 {
			alloc = remaining.Round(2)
		} else {
			alloc = discount.Mul(totals[i].Div(sum)).Round(2)
			if alloc.GreaterThan(remaining) {
				alloc = remaining
			}
		}
		if alloc.IsNegative() {
			alloc = decimal.Zero
		}
		if alloc.GreaterThan(totals[i]) {
			alloc = totals[i]
		}
		items[i].DiscountAmount = models.NewMoney(alloc)
		remaining = remaining.Sub(alloc).Round(2)
	}
}

// buildOrderSnapshot 复制顾客与地址信息，下单后不随用户资料变化
func buildOrderSnapshot(user *models.User, input CheckoutInput, paymentMethod string) (*models.Order, error) {
	userID := user.ID
	order := &models.Order{
		UserID:                &userID,
		CustomerName:          firstNonEmpty(input.CustomerName, user.FullName()),
		CustomerEmail:         firstNonEmpty(input.CustomerEmail, user.Email),
		CustomerPhone:         firstNonEmpty(input.CustomerPhone, user.PhoneNumber),
		ShippingAddress:       firstNonEmpty(input.ShippingAddress, user.Address),
		ShippingCity:          firstNonEmpty(input.ShippingCity, user.City),
		ShippingState:         firstNonEmpty(input.ShippingState, user.State),
		ShippingCountry:       firstNonEmpty(input.ShippingCountry, user.Country),
		ShippingPostalCode:    firstNonEmpty(input.ShippingPostalCode, user.PostalCode),
		BillingSameAsShipping: true,
		Status:                constants.OrderStatusPending,
		PaymentMethod:         paymentMethod,
		PaymentStatus:         constants.PaymentStatusPending,
		CustomerNotes:         strings.TrimSpace(input.CustomerNotes),
	}
	if order.ShippingAddress == "" {
		return nil, ErrShippingAddressNeeded
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		order.ShippingLatitude = user.Latitude
		order.ShippingLongitude = user.Longitude
	}
	if input.BillingSameAsShipping != nil && !*input.BillingSameAsShipping {
		order.BillingSameAsShipping = false
		order.BillingAddress = strings.TrimSpace(input.BillingAddress)
		order.BillingCity = strings.TrimSpace(input.BillingCity)
		order.BillingState = strings.TrimSpace(input.BillingState)
		order.BillingCountry = strings.TrimSpace(input.BillingCountry)
		order.BillingPostalCode = strings.TrimSpace(input.BillingPostalCode)
	}
	return order, nil
}

func normalizePaymentMethod(raw string) (string, error) {
	method := strings.ToLower(strings.TrimSpace(raw))
	if method == "" {
		return constants.PaymentMethodCOD, nil
	}
	for _, allowed := range constants.ValidPaymentMethods {
		if method == allowed {
			return method, nil
		}
	}
	return "", ErrPaymentMethodInvalid
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return metrics.CheckoutResultSuccess
	case errors.Is(err, ErrEmptyCart):
		return metrics.CheckoutResultEmptyCart
	case errors.Is(err, ErrInsufficientStock):
		return metrics.CheckoutResultNoStock
	case isCouponError(err):
		return metrics.CheckoutResultCouponInvalid
	default:
		return metrics.CheckoutResultError
	}
}

func isCouponError(err error) bool {
	for _, target := range []error{
		ErrCouponNotFound, ErrCouponInvalid, ErrCouponInactive, ErrCouponNotStarted, ErrCouponExpired,
		ErrCouponUsageLimit, ErrCouponSingleUse, ErrCouponMinAmount, ErrCouponNotEligible,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// generateOrderNumber 前缀 + 日期 + 4 位大写字母数字
func (s *OrderService) generateOrderNumber() string {
	return fmt.Sprintf("%s%s%s", s.opts.NumberPrefix, s.now().Format("20060102"), randAlphanumeric(orderNumberSuffixLength))
}

func randAlphanumeric(length int) string {
	var b strings.Builder
	limit := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			b.WriteByte(orderNumberAlphabet[0])
			continue
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String()
}

// notifyStatusChanged 提交后推送状态变更任务，失败只记录日志
func (s *OrderService) notifyStatusChanged(order *models.Order, fromStatus string) {
	if order == nil {
		return
	}
	if fromStatus != "" {
		metrics.OrderTransitionsTotal.WithLabelValues(fromStatus, order.Status).Inc()
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	payload := queue.OrderStatusChangedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		FromStatus:  fromStatus,
		Status:      order.Status,
		Total:       order.Total.String(),
		OccurredAt:  s.now(),
	}
	if err := s.queueClient.EnqueueOrderStatusChanged(payload); err != nil {
		logger.Warnw("order_enqueue_status_changed_failed",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
}

// alertLowStock 结账后对低于预警值的商品与规格推送预警
func (s *OrderService) alertLowStock(items []models.OrderItem) {
	if !s.opts.LowStockAlert || s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		product, err := s.productRepo.GetByID(*item.ProductID)
		if err != nil || product == nil {
			continue
		}
		if item.VariantID != nil {
			for _, variant := range product.Variants {
				if variant.ID == *item.VariantID && pricing.IsLowStock(variant.Stock, product.LowStockThreshold) {
					s.enqueueLowStock(product, variant.ID, variant.Stock)
				}
			}
		}
		if _, ok := seen[product.ID]; ok {
			continue
		}
		seen[product.ID] = struct{}{}
		if product.IsLowStock() {
			s.enqueueLowStock(product, 0, product.TotalStock)
		}
	}
}

func (s *OrderService) enqueueLowStock(product *models.Product, variantID uint, stock int) {
	payload := queue.ProductLowStockPayload{
		ProductID:  product.ID,
		SKU:        product.SKU,
		VariantID:  variantID,
		Stock:      stock,
		Threshold:  product.LowStockThreshold,
		OccurredAt: s.now(),
	}
	if err := s.queueClient.EnqueueProductLowStock(payload, lowStockAlertWindow); err != nil {
		logger.Warnw("product_enqueue_low_stock_failed",
			"product_id", product.ID,
			"variant_id", variantID,
			"error", err,
		)
	}
}
