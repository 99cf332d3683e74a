package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
)

var orderNumberPattern = regexp.MustCompile(`^VSO\d{8}[A-Z0-9]{4}$`)

func newTestOrderService(f *serviceFixture) *OrderService {
	couponService := NewCouponService(f.coupons, f.carts)
	return NewOrderService(f.orders, f.products, f.variants, f.carts, f.coupons, f.users, f.txns, couponService, nil, OrderOptions{})
}

func TestCheckoutConvertsCartToOrder(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "alice", constants.RoleCustomer)
	product := f.createProduct(t, "TEE-1", "100", 10)
	product.DiscountPercentage = models.MustMoney("20")
	if err := f.db.Save(product).Error; err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	variant := f.createVariant(t, product.ID, "M", "Black", 5, "0")

	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, VariantID: variant.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	order, err := svc.Checkout(user.ID, CheckoutInput{CustomerNotes: "leave at door"})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.Subtotal.String() != "160.00" || order.Tax.String() != "16.00" || order.Shipping.String() != "0.00" || order.Total.String() != "176.00" {
		t.Fatalf("unexpected totals: subtotal=%s tax=%s shipping=%s total=%s", order.Subtotal, order.Tax, order.Shipping, order.Total)
	}
	if order.Status != constants.OrderStatusPending || order.PaymentMethod != constants.PaymentMethodCOD {
		t.Fatalf("unexpected status=%s payment_method=%s", order.Status, order.PaymentMethod)
	}
	if order.CustomerEmail != user.Email || order.ShippingAddress != "1 Main St" || order.CustomerName != user.FullName() {
		t.Fatalf("customer snapshot mismatch: %+v", order)
	}
	if len(order.Items) != 1 {
		t.Fatalf("order items want 1 got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.UnitPrice.String() != "80.00" || item.Quantity != 2 || item.Size != "M" || item.Color != "Black" || item.ProductSKU != "TEE-1-M-BLA" {
		t.Fatalf("unexpected item snapshot: %+v", item)
	}

	if got := f.reloadVariant(t, variant.ID).Stock; got != 3 {
		t.Fatalf("variant stock want 3 got %d", got)
	}
	reloaded := f.reloadProduct(t, product.ID)
	if reloaded.TotalStock != 8 || reloaded.SalesCount != 2 {
		t.Fatalf("product want stock=8 sales=2 got stock=%d sales=%d", reloaded.TotalStock, reloaded.SalesCount)
	}

	cart, err := f.cartService.FindCart(UserCartOwner(user.ID))
	if err != nil || cart == nil {
		t.Fatalf("cart should survive checkout, err=%v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be cleared, got %d items", len(cart.Items))
	}
}

func TestCheckoutSnapshotIgnoresLaterProfileEdits(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "bob", constants.RoleCustomer)
	product := f.createProduct(t, "MUG-1", "10", 10)
	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := svc.Checkout(user.ID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	// 小计 10：税 1，运费 5
	if order.Total.String() != "16.00" {
		t.Fatalf("total want 16.00 got %s", order.Total)
	}

	if err := f.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{"address": "99 Elsewhere", "email": "new@example.com"}).Error; err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	got, err := svc.GetForUser(order.ID, user.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.ShippingAddress != "1 Main St" || got.CustomerEmail != "bob@example.com" {
		t.Fatalf("order snapshot changed: address=%s email=%s", got.ShippingAddress, got.CustomerEmail)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "carol", constants.RoleCustomer)

	if _, err := svc.Checkout(user.ID, CheckoutInput{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart got %v", err)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	first := f.createUser(t, "dave", constants.RoleCustomer)
	second := f.createUser(t, "erin", constants.RoleCustomer)
	product := f.createProduct(t, "JACKET-1", "60", 2)
	variant := f.createVariant(t, product.ID, "L", "Green", 2, "0")
	other := f.createProduct(t, "SCARF-1", "20", 10)

	if _, err := f.cartService.AddItem(UserCartOwner(first.ID), AddCartItemInput{ProductID: product.ID, VariantID: variant.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := f.cartService.AddItem(UserCartOwner(second.ID), AddCartItemInput{ProductID: other.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := f.cartService.AddItem(UserCartOwner(second.ID), AddCartItemInput{ProductID: product.ID, VariantID: variant.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if _, err := svc.Checkout(first.ID, CheckoutInput{}); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	if got := f.reloadVariant(t, variant.ID).Stock; got != 0 {
		t.Fatalf("variant stock want 0 got %d", got)
	}

	if _, err := svc.Checkout(second.ID, CheckoutInput{}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
	if got := f.reloadProduct(t, other.ID).TotalStock; got != 10 {
		t.Fatalf("failed checkout must not decrement other lines, stock want 10 got %d", got)
	}
	var orders int64
	f.db.Model(&models.Order{}).Where("user_id = ?", second.ID).Count(&orders)
	if orders != 0 {
		t.Fatalf("failed checkout must not persist an order, found %d", orders)
	}
	cart, err := f.cartService.FindCart(UserCartOwner(second.ID))
	if err != nil || cart == nil || len(cart.Items) != 2 {
		t.Fatalf("failed checkout must keep the cart intact: cart=%+v err=%v", cart, err)
	}
}

func TestCheckoutAppliesCoupon(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "frank", constants.RoleCustomer)
	shirt := f.createProduct(t, "SHIRT-1", "30", 10)
	pants := f.createProduct(t, "PANTS-1", "70", 10)
	coupon := f.createCoupon(t, "save10", constants.CouponTypePercentage, "10")
	limit := 1
	coupon.UsageLimit = &limit
	if err := f.db.Save(coupon).Error; err != nil {
		t.Fatalf("update coupon failed: %v", err)
	}

	owner := UserCartOwner(user.ID)
	if _, err := f.cartService.AddItem(owner, AddCartItemInput{ProductID: shirt.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := f.cartService.AddItem(owner, AddCartItemInput{ProductID: pants.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	order, err := svc.Checkout(user.ID, CheckoutInput{CouponCode: " Save10 "})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	// 小计 100，税 10，免运费，优惠 10
	if order.Discount.String() != "10.00" || order.Total.String() != "100.00" {
		t.Fatalf("discount want 10.00 total 100.00 got discount=%s total=%s", order.Discount, order.Total)
	}
	if order.CouponCode != "SAVE10" || order.CouponID == nil || *order.CouponID != coupon.ID {
		t.Fatalf("coupon not recorded on order: %+v", order)
	}
	allocated := decimal.Zero
	for _, item := range order.Items {
		allocated = allocated.Add(item.DiscountAmount.Decimal)
	}
	if !allocated.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("item discounts should sum to 10 got %s", allocated)
	}

	var reloaded models.Coupon
	if err := f.db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsageCount != 1 {
		t.Fatalf("usage count want 1 got %d", reloaded.UsageCount)
	}

	if _, err := f.cartService.AddItem(owner, AddCartItemInput{ProductID: shirt.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := svc.Checkout(user.ID, CheckoutInput{CouponCode: "SAVE10"}); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("exhausted coupon want ErrCouponUsageLimit got %v", err)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "gina", constants.RoleCustomer)
	product := f.createProduct(t, "SOCK-9", "5", 10)
	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := svc.Checkout(user.ID, CheckoutInput{PaymentMethod: "bitcoin"}); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("want ErrPaymentMethodInvalid got %v", err)
	}
}

func TestCheckoutKeepsExplicitBillingAddress(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "hank", constants.RoleCustomer)
	product := f.createProduct(t, "CAP-9", "55", 10)
	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	separate := false
	order, err := svc.Checkout(user.ID, CheckoutInput{
		ShippingAddress:       "5 Harbor Rd",
		BillingSameAsShipping: &separate,
		BillingAddress:        "7 Office Park",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.BillingSameAsShipping || order.BillingAddress != "7 Office Park" || order.ShippingAddress != "5 Harbor Rd" {
		t.Fatalf("unexpected address snapshot: %+v", order)
	}
}

func checkoutSingleItem(t *testing.T, f *serviceFixture, svc *OrderService, username string, stock int) (*models.Order, *models.Product) {
	t.Helper()
	user := f.createUser(t, username, constants.RoleCustomer)
	product := f.createProduct(t, "SKU-"+username, "40", stock)
	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := svc.Checkout(user.ID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order, product
}

func TestOrderCancelRestoresStockAndCoupon(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "ivan", constants.RoleCustomer)
	product := f.createProduct(t, "BOOT-1", "90", 5)
	variant := f.createVariant(t, product.ID, "XL", "Brown", 5, "10")
	coupon := f.createCoupon(t, "TENOFF", constants.CouponTypeFixed, "10")
	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, VariantID: variant.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := svc.Checkout(user.ID, CheckoutInput{CouponCode: "TENOFF"})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	other := f.createUser(t, "judy", constants.RoleCustomer)
	if _, err := svc.Cancel(order.ID, other.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign cancel want ErrOrderNotFound got %v", err)
	}

	cancelled, err := svc.Cancel(order.ID, user.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancel want status cancelled with timestamp got %+v", cancelled)
	}
	if got := f.reloadVariant(t, variant.ID).Stock; got != 5 {
		t.Fatalf("variant stock want 5 got %d", got)
	}
	reloaded := f.reloadProduct(t, product.ID)
	if reloaded.TotalStock != 5 || reloaded.SalesCount != 0 {
		t.Fatalf("product want stock=5 sales=0 got stock=%d sales=%d", reloaded.TotalStock, reloaded.SalesCount)
	}
	var c models.Coupon
	if err := f.db.First(&c, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if c.UsageCount != 0 {
		t.Fatalf("coupon usage want 0 got %d", c.UsageCount)
	}

	if _, err := svc.Cancel(order.ID, user.ID); !errors.Is(err, ErrOrderCannotCancel) {
		t.Fatalf("second cancel want ErrOrderCannotCancel got %v", err)
	}
}

func TestOrderStatusTransitionsStampOnce(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	order, _ := checkoutSingleItem(t, f, svc, "kate", 10)

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusShipped, nil); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("pending -> shipped want ErrOrderStatusInvalid got %v", err)
	}
	if _, err := svc.UpdateStatus(order.ID, "lost", nil); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("unknown status want ErrOrderStatusInvalid got %v", err)
	}

	paid, err := svc.UpdateStatus(order.ID, constants.OrderStatusPaid, nil)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.PaidAt == nil || paid.PaymentStatus != constants.PaymentStatusSucceeded {
		t.Fatalf("paid order want paid_at and succeeded payment got %+v", paid)
	}
	firstPaidAt := *paid.PaidAt

	time.Sleep(10 * time.Millisecond)
	notes := "re-saved"
	again, err := svc.UpdateStatus(order.ID, constants.OrderStatusPaid, &notes)
	if err != nil {
		t.Fatalf("re-enter paid failed: %v", err)
	}
	if !again.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("paid_at must not be overwritten: first=%v now=%v", firstPaidAt, again.PaidAt)
	}
	if again.AdminNotes != "re-saved" {
		t.Fatalf("admin notes want re-saved got %q", again.AdminNotes)
	}

	shipped, err := svc.UpdateStatus(order.ID, constants.OrderStatusShipped, nil)
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.ShippedAt == nil {
		t.Fatalf("shipped_at should be stamped")
	}
	delivered, err := svc.UpdateStatus(order.ID, constants.OrderStatusDelivered, nil)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.DeliveredAt == nil || !delivered.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("unexpected timestamps after delivery: %+v", delivered)
	}
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusCancelled, nil); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("delivered -> cancelled want ErrOrderStatusInvalid got %v", err)
	}
}

func TestOrderRefundPartialThenFull(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	order, _ := checkoutSingleItem(t, f, svc, "liam", 10)
	// 小计 80，税 8，免运费
	if order.Total.String() != "88.00" {
		t.Fatalf("total want 88.00 got %s", order.Total)
	}

	if _, err := svc.Refund(order.ID, RefundInput{}); !errors.Is(err, ErrOrderCannotRefund) {
		t.Fatalf("pending refund want ErrOrderCannotRefund got %v", err)
	}
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusPaid, nil); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if _, err := svc.Refund(order.ID, RefundInput{Amount: decimal.NewFromInt(100)}); !errors.Is(err, ErrRefundAmountInvalid) {
		t.Fatalf("over refund want ErrRefundAmountInvalid got %v", err)
	}

	staffID := uint(42)
	partial, err := svc.Refund(order.ID, RefundInput{Amount: decimal.NewFromInt(8), Reason: "damaged", OperatorID: &staffID})
	if err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if partial.Status != constants.OrderStatusPaid {
		t.Fatalf("partial refund must keep status paid got %s", partial.Status)
	}

	full, err := svc.Refund(order.ID, RefundInput{})
	if err != nil {
		t.Fatalf("full refund failed: %v", err)
	}
	if full.Status != constants.OrderStatusRefunded || full.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("full refund want refunded got status=%s payment=%s", full.Status, full.PaymentStatus)
	}
	txns, err := svc.Transactions(order.ID)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("transactions want 2 got %d", len(txns))
	}
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount.Decimal)
	}
	if !sum.Equal(decimal.NewFromInt(88)) {
		t.Fatalf("refunds should sum to 88 got %s", sum)
	}
}

func TestOrderUpdateTracking(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	order, _ := checkoutSingleItem(t, f, svc, "mona", 10)
	eta := time.Now().Add(72 * time.Hour)

	updated, err := svc.UpdateTracking(order.ID, TrackingInput{TrackingNumber: " 1Z999 ", Carrier: "UPS", EstimatedDelivery: &eta})
	if err != nil {
		t.Fatalf("update tracking failed: %v", err)
	}
	if updated.TrackingNumber != "1Z999" || updated.Carrier != "UPS" || updated.EstimatedDelivery == nil {
		t.Fatalf("unexpected tracking fields: %+v", updated)
	}
	if _, err := svc.UpdateTracking(9999, TrackingInput{}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}

func TestRecordPaymentPromotesOrder(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	txnService := NewTransactionService(f.txns, f.orders, svc)
	order, _ := checkoutSingleItem(t, f, svc, "nina", 10)

	if _, err := txnService.RecordPayment(order.ID, RecordPaymentInput{Amount: decimal.NewFromInt(1), Status: constants.TransactionStatusSucceeded}); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("want ErrPaymentAmountMismatch got %v", err)
	}
	failed, err := txnService.RecordPayment(order.ID, RecordPaymentInput{Amount: order.Total.Decimal, Status: constants.TransactionStatusFailed, FailureReason: "card declined"})
	if err != nil {
		t.Fatalf("record failed payment failed: %v", err)
	}
	if failed.CompletedAt == nil {
		t.Fatalf("terminal transaction should be completed")
	}
	got, _ := svc.AdminGet(order.ID)
	if got.PaymentStatus != constants.PaymentStatusFailed || got.Status != constants.OrderStatusPending {
		t.Fatalf("failed payment want payment=failed status=pending got payment=%s status=%s", got.PaymentStatus, got.Status)
	}

	if _, err := txnService.RecordPayment(order.ID, RecordPaymentInput{Amount: order.Total.Decimal, Status: constants.TransactionStatusSucceeded, ExternalRef: "ch_1"}); err != nil {
		t.Fatalf("record payment failed: %v", err)
	}
	got, _ = svc.AdminGet(order.ID)
	if got.Status != constants.OrderStatusPaid || got.PaymentStatus != constants.PaymentStatusSucceeded || got.PaidAt == nil {
		t.Fatalf("succeeded payment should mark order paid: %+v", got)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("transactions want 2 got %d", len(got.Transactions))
	}
}

// interleavedCartRepository 在下单读取购物车之后执行一次 afterRead，模拟并发请求插入
type interleavedCartRepository struct {
	*repository.GormCartRepository
	afterRead func()
}

func (r *interleavedCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	cart, err := r.GormCartRepository.GetByUser(userID)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return cart, err
}

func newInterleavedOrderService(f *serviceFixture, afterRead func()) *OrderService {
	carts := &interleavedCartRepository{GormCartRepository: f.carts, afterRead: afterRead}
	couponService := NewCouponService(f.coupons, carts)
	return NewOrderService(f.orders, f.products, f.variants, carts, f.coupons, f.users, f.txns, couponService, nil, OrderOptions{})
}

func TestCheckoutConcurrentSameCartPlacesOneOrder(t *testing.T) {
	f := setupServiceTest(t)
	user := f.createUser(t, "kate", constants.RoleCustomer)
	product := f.createProduct(t, "TEE-RACE", "40", 10)
	if _, err := f.cartService.AddItem(UserCartOwner(user.ID), AddCartItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	var svc *OrderService
	var innerErr error
	svc = newInterleavedOrderService(f, func() {
		_, innerErr = svc.Checkout(user.ID, CheckoutInput{})
	})
	if _, err := svc.Checkout(user.ID, CheckoutInput{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("stale checkout want ErrEmptyCart got %v", err)
	}
	if innerErr != nil {
		t.Fatalf("concurrent checkout failed: %v", innerErr)
	}

	var orders int64
	f.db.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&orders)
	if orders != 1 {
		t.Fatalf("orders want 1 got %d", orders)
	}
	reloaded := f.reloadProduct(t, product.ID)
	if reloaded.TotalStock != 8 || reloaded.SalesCount != 2 {
		t.Fatalf("product want stock=8 sales=2 got stock=%d sales=%d", reloaded.TotalStock, reloaded.SalesCount)
	}
}

func TestCheckoutKeepsItemsAddedDuringCheckout(t *testing.T) {
	f := setupServiceTest(t)
	user := f.createUser(t, "liam", constants.RoleCustomer)
	owner := UserCartOwner(user.ID)
	tee := f.createProduct(t, "TEE-KEEP", "40", 10)
	hat := f.createProduct(t, "HAT-KEEP", "25", 10)
	if _, err := f.cartService.AddItem(owner, AddCartItemInput{ProductID: tee.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	svc := newInterleavedOrderService(f, func() {
		if _, err := f.cartService.AddItem(owner, AddCartItemInput{ProductID: hat.ID, Quantity: 1}); err != nil {
			t.Fatalf("add item during checkout failed: %v", err)
		}
	})
	order, err := svc.Checkout(user.ID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].ProductSKU != "TEE-KEEP" {
		t.Fatalf("order should only contain the read line, got %+v", order.Items)
	}

	cart, err := f.cartService.FindCart(owner)
	if err != nil || cart == nil {
		t.Fatalf("find cart failed: cart=%v err=%v", cart, err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ProductID != hat.ID {
		t.Fatalf("item added during checkout should stay in the cart, got %+v", cart.Items)
	}
	if got := f.reloadProduct(t, hat.ID).TotalStock; got != 10 {
		t.Fatalf("hat stock want 10 got %d", got)
	}
	if got := f.reloadProduct(t, tee.ID).TotalStock; got != 9 {
		t.Fatalf("tee stock want 9 got %d", got)
	}
}

func TestCheckoutRejectsQuantityChangedDuringCheckout(t *testing.T) {
	f := setupServiceTest(t)
	user := f.createUser(t, "mona", constants.RoleCustomer)
	owner := UserCartOwner(user.ID)
	product := f.createProduct(t, "TEE-QTY", "40", 10)
	view, err := f.cartService.AddItem(owner, AddCartItemInput{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	itemID := view.Items[0].ItemID

	svc := newInterleavedOrderService(f, func() {
		if _, err := f.cartService.UpdateItemQuantity(owner, itemID, 3); err != nil {
			t.Fatalf("update quantity during checkout failed: %v", err)
		}
	})
	if _, err := svc.Checkout(user.ID, CheckoutInput{}); !errors.Is(err, ErrCartChanged) {
		t.Fatalf("want ErrCartChanged got %v", err)
	}
	var orders int64
	f.db.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&orders)
	if orders != 0 {
		t.Fatalf("orders want 0 got %d", orders)
	}
	if got := f.reloadProduct(t, product.ID).TotalStock; got != 10 {
		t.Fatalf("stock want 10 got %d", got)
	}
	cart, _ := f.cartService.FindCart(owner)
	if cart == nil || len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("cart should keep the updated line, got %+v", cart)
	}
}

func TestCheckoutRejectsLineWithoutVariantWhenProductHasVariants(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestOrderService(f)
	user := f.createUser(t, "nora", constants.RoleCustomer)
	product := f.createProduct(t, "COAT-VAR", "120", 1)
	variant := f.createVariant(t, product.ID, "M", "Navy", 1, "0")

	cart, err := f.cartService.ResolveCart(UserCartOwner(user.ID))
	if err != nil {
		t.Fatalf("resolve cart failed: %v", err)
	}
	// 规格上线前加入的购物车项
	if err := f.carts.CreateItem(&models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}

	if _, err := svc.Checkout(user.ID, CheckoutInput{}); !errors.Is(err, ErrVariantRequired) {
		t.Fatalf("want ErrVariantRequired got %v", err)
	}
	if got := f.reloadProduct(t, product.ID).TotalStock; got != 1 {
		t.Fatalf("product stock want 1 got %d", got)
	}
	if got := f.reloadVariant(t, variant.ID).Stock; got != 1 {
		t.Fatalf("variant stock want 1 got %d", got)
	}
}
