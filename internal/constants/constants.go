package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// 订单支付状态常量
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodWallet = "wallet"
	PaymentMethodStripe = "stripe"
	PaymentMethodPaypal = "paypal"
	PaymentMethodTest   = "test"
)

// 交易流水类型常量
const (
	TransactionTypePayment       = "payment"
	TransactionTypeRefund        = "refund"
	TransactionTypePartialRefund = "partial_refund"
)

// 交易流水状态常量
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusSucceeded  = "succeeded"
	TransactionStatusFailed     = "failed"
)

// 优惠券类型常量
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// 用户角色常量
const (
	RoleCustomer = "customer"
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// 商品规格尺码常量
const (
	SizeXS     = "XS"
	SizeS      = "S"
	SizeM      = "M"
	SizeL      = "L"
	SizeXL     = "XL"
	SizeXXL    = "XXL"
	SizeXXXL   = "XXXL"
	SizeCustom = "CUSTOM"
)

// 商品适用人群
const (
	GenderUnisex = "unisex"
	GenderMale   = "male"
	GenderFemale = "female"
	GenderKids   = "kids"
)

// 导出类型常量
const (
	ExportKindOrders    = "orders"
	ExportKindProducts  = "products"
	ExportKindCustomers = "customers"
	ExportFormatCSV     = "csv"
	ExportFormatXLSX    = "xlsx"
)

// 异步任务类型
const (
	QueueDefault           = "default"
	TaskOrderStatusChanged = "order:status_changed"
	TaskProductLowStock    = "product:low_stock"
)

// 订单事件类型
const (
	EventOrderStatusChanged = "order.status_changed"
	EventProductLowStock    = "product.low_stock"
)

// 默认分页
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ValidGenders 可选适用人群
var ValidGenders = []string{GenderUnisex, GenderMale, GenderFemale, GenderKids}

// ValidSizes 可选尺码
var ValidSizes = []string{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL, SizeCustom}

// ValidPaymentMethods 可选支付方式
var ValidPaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodWallet,
	PaymentMethodStripe,
	PaymentMethodPaypal,
	PaymentMethodTest,
}
