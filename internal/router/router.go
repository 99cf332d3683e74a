package router

import (
	"strings"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/config"
	adminhandlers "github.com/verso-store/internal/http/handlers/admin"
	publichandlers "github.com/verso-store/internal/http/handlers/public"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/metrics"
	"github.com/verso-store/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	loginRule := LoginRateLimitRule("login", cfg.Security.LoginRateLimit)
	staffLoginRule := LoginRateLimitRule("staff_login", cfg.Security.LoginRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, metrics.Handler())
	}

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/sale", publicHandler.ListSaleProducts)
		apiV1.GET("/products/new-arrivals", publicHandler.ListNewArrivals)
		apiV1.GET("/products/:slug", OptionalUserJWTMiddleware(c.AuthService), publicHandler.GetProduct)
		apiV1.GET("/products/:slug/related", publicHandler.GetRelatedProducts)
		apiV1.GET("/categories", publicHandler.ListCategories)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha", publicHandler.GetCaptcha)
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(loginRule, KeyByIPAndJSONField("login")), publicHandler.Login)
		}

		// 购物车（匿名访客以会话标识访问）
		cart := apiV1.Group("/cart")
		cart.Use(OptionalUserJWTMiddleware(c.AuthService))
		{
			cart.GET("", publicHandler.GetCart)
			cart.DELETE("", publicHandler.ClearCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.PATCH("/items/:id", publicHandler.UpdateCartItem)
			cart.DELETE("/items/:id", publicHandler.RemoveCartItem)
			cart.POST("/coupon/preview", publicHandler.PreviewCoupon)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.AuthService))
		{
			user.GET("/me", publicHandler.GetProfile)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.POST("/checkout", publicHandler.Checkout)
			user.GET("/me/wishlist", publicHandler.ListWishlist)
			user.POST("/me/wishlist", publicHandler.AddWishlist)
			user.DELETE("/me/wishlist/:product_id", publicHandler.RemoveWishlist)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
		}

		// 员工登录
		apiV1.POST("/admin/login", RateLimitMiddleware(staffLoginRule, KeyByIPAndJSONField("username")), adminHandler.Login)

		// 员工接口（需员工令牌 + 权限）
		admin := apiV1.Group("/admin")
		admin.Use(StaffJWTAuthMiddleware(c.AuthService))
		{
			perm := func(p string) gin.HandlerFunc {
				return RequirePermission(c.AuthzService, p)
			}

			admin.GET("/me", adminHandler.GetMe)

			admin.GET("/dashboard/stats", perm(authz.PermViewOrder), adminHandler.GetDashboardStats)
			admin.GET("/dashboard/trends", perm(authz.PermViewOrder), adminHandler.GetDashboardTrends)
			admin.GET("/dashboard/rankings", perm(authz.PermViewOrder), adminHandler.GetDashboardRankings)

			admin.GET("/orders", perm(authz.PermViewOrder), adminHandler.AdminListOrders)
			admin.GET("/orders/:id", perm(authz.PermViewOrder), adminHandler.AdminGetOrder)
			admin.PUT("/orders/:id/status", perm(authz.PermChangeOrder), adminHandler.AdminUpdateOrderStatus)
			admin.PUT("/orders/:id/tracking", perm(authz.PermChangeOrder), adminHandler.AdminUpdateTracking)
			admin.POST("/orders/:id/refund", perm(authz.PermChangeOrder), adminHandler.AdminRefundOrder)
			admin.GET("/orders/:id/transactions", perm(authz.PermViewOrder), adminHandler.AdminListTransactions)
			admin.POST("/orders/:id/transactions", perm(authz.PermChangeOrder), adminHandler.AdminRecordPayment)

			admin.GET("/products", perm(authz.PermViewProduct), adminHandler.GetProducts)
			admin.GET("/products/:id", perm(authz.PermViewProduct), adminHandler.GetProduct)
			admin.POST("/products", perm(authz.PermAddProduct), adminHandler.CreateProduct)
			admin.PUT("/products/:id", perm(authz.PermChangeProduct), adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", perm(authz.PermDeleteProduct), adminHandler.DeleteProduct)
			admin.PUT("/products/:id/stock", perm(authz.PermChangeProduct), adminHandler.SetStock)
			admin.POST("/products/:id/variants", perm(authz.PermChangeProduct), adminHandler.CreateVariant)
			admin.PUT("/products/:id/variants/:variant_id", perm(authz.PermChangeProduct), adminHandler.UpdateVariant)
			admin.DELETE("/products/:id/variants/:variant_id", perm(authz.PermChangeProduct), adminHandler.DeleteVariant)

			admin.GET("/categories", perm(authz.PermViewProduct), adminHandler.GetCategories)
			admin.POST("/categories", perm(authz.PermAddProduct), adminHandler.CreateCategory)
			admin.PUT("/categories/:id", perm(authz.PermChangeProduct), adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", perm(authz.PermDeleteProduct), adminHandler.DeleteCategory)

			admin.GET("/coupons", perm(authz.PermViewCoupon), adminHandler.GetCoupons)
			admin.GET("/coupons/:id", perm(authz.PermViewCoupon), adminHandler.GetCoupon)
			admin.POST("/coupons", perm(authz.PermAddCoupon), adminHandler.CreateCoupon)
			admin.PUT("/coupons/:id", perm(authz.PermChangeCoupon), adminHandler.UpdateCoupon)
			admin.DELETE("/coupons/:id", perm(authz.PermDeleteCoupon), adminHandler.DeleteCoupon)

			// 用户管理的等级约束在服务层判断
			admin.GET("/users", perm(authz.PermViewUser), adminHandler.GetAdminUsers)
			admin.GET("/users/:id", perm(authz.PermViewUser), adminHandler.GetAdminUser)
			admin.POST("/users", perm(authz.PermAddUser), adminHandler.CreateAdminUser)
			admin.PUT("/users/:id", adminHandler.UpdateAdminUser)
			admin.DELETE("/users/:id", adminHandler.DeleteAdminUser)

			admin.GET("/exports/:kind", adminHandler.ExportData)
		}
	}

	return r
}
