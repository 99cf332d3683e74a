package provider

import (
	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/cache"
	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/events"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/queue"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Publisher   events.Publisher

	// Repositories
	UserRepo        repository.UserRepository
	CategoryRepo    repository.CategoryRepository
	ProductRepo     repository.ProductRepository
	VariantRepo     repository.ProductVariantRepository
	CartRepo        repository.CartRepository
	OrderRepo       repository.OrderRepository
	CouponRepo      repository.CouponRepository
	TransactionRepo repository.TransactionRepository
	DashboardRepo   repository.DashboardRepository
	WishlistRepo    repository.WishlistRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserService        *service.UserService
	CaptchaService     *service.CaptchaService
	CategoryService    *service.CategoryService
	CatalogService     *service.CatalogService
	CartService        *service.CartService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	OrderService       *service.OrderService
	TransactionService *service.TransactionService
	DashboardService   *service.DashboardService
	ExportService      *service.ExportService
	WishlistService    *service.WishlistService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Publisher:   events.NewPublisher(cfg.Kafka),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewProductVariantRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.UserService = service.NewUserService(c.UserRepo, c.AuthService)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.VariantRepo, c.CategoryRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.VariantRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CartRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.VariantRepo,
		c.CartRepo,
		c.CouponRepo,
		c.UserRepo,
		c.TransactionRepo,
		c.CouponService,
		c.QueueClient,
		service.OrderOptions{
			NumberPrefix:     c.Config.Order.NumberPrefix,
			NumberMaxRetries: c.Config.Order.NumberMaxRetries,
			LowStockAlert:    c.Config.Order.LowStockAlert,
		},
	)
	c.TransactionService = service.NewTransactionService(c.TransactionRepo, c.OrderRepo, c.OrderService)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
	c.ExportService = service.NewExportService(c.OrderRepo, c.ProductRepo, c.UserRepo)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warnw("provider_close_publisher_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
