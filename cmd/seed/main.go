package main

import (
	"errors"
	"time"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/provider"
	"github.com/verso-store/internal/service"
)

type seedVariant struct {
	size  string
	color string
	hex   string
	stock int
	extra string
}

type seedProduct struct {
	sku       string
	name      string
	category  string
	gender    string
	price     string
	discount  string
	material  string
	featured  bool
	stock     int
	variants  []seedVariant
	features  []string
	shortDesc string
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin(cfg.App.AdminUsername, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		stdLog.Fatalf("Failed to init admin: %v", err)
	}

	c := provider.NewContainer(cfg)
	defer c.Close()
	root := authz.Actor{Role: constants.RoleAdmin, IsSuperuser: true}

	// 员工账号
	staff := []service.SaveUserInput{
		{Username: "manager", Email: "manager@verso.local", Password: "Manager2024!", Role: constants.RoleManager, FirstName: "Mara"},
		{Username: "employee", Email: "employee@verso.local", Password: "Employee2024!", Role: constants.RoleEmployee, FirstName: "Eli"},
		{Username: "customer", Email: "customer@verso.local", Password: "Customer2024!", Role: constants.RoleCustomer, FirstName: "Cass"},
	}
	for _, input := range staff {
		if _, err := c.UserService.Create(root, input); err != nil {
			if errors.Is(err, service.ErrUsernameTaken) || errors.Is(err, service.ErrEmailTaken) {
				stdLog.Printf("User already exists: %s", input.Username)
				continue
			}
			stdLog.Printf("Failed to create user %s: %v", input.Username, err)
			continue
		}
		stdLog.Printf("Created user: %s (%s)", input.Username, input.Role)
	}

	// 分类
	categoryIDs := map[string]uint{}
	for _, name := range []string{"Tops", "Bottoms", "Outerwear", "Accessories"} {
		category, err := c.CategoryService.Create(service.SaveCategoryInput{Name: name})
		if err != nil {
			stdLog.Printf("Category already exists or failed: %s (%v)", name, err)
		}
		if category != nil {
			categoryIDs[category.Slug] = category.ID
			stdLog.Printf("Created category: %s", category.Slug)
		}
	}
	existing, err := c.CategoryService.List(false)
	if err != nil {
		stdLog.Fatalf("Failed to load categories: %v", err)
	}
	for _, category := range existing {
		categoryIDs[category.Slug] = category.ID
	}

	products := []seedProduct{
		{
			sku:       "TEE-001", name: "Everyday Cotton Tee", category: "tops", gender: constants.GenderUnisex,
			price:     "24.00", material: "100% cotton", featured: true,
			shortDesc: "Soft crew neck tee",
			features:  []string{"Pre-shrunk", "Relaxed fit"},
			variants: []seedVariant{
				{size: "S", color: "White", hex: "#FFFFFF", stock: 20},
				{size: "M", color: "White", hex: "#FFFFFF", stock: 30},
				{size: "L", color: "Black", hex: "#000000", stock: 15},
				{size: "XL", color: "Black", hex: "#000000", stock: 3, extra: "2.00"},
			},
		},
		{
			sku:       "JNS-010", name: "Slim Denim Jeans", category: "bottoms", gender: constants.GenderMale,
			price:     "79.00", discount: "15", material: "Stretch denim",
			shortDesc: "Five pocket slim jeans",
			variants: []seedVariant{
				{size: "M", color: "Indigo", hex: "#3F51B5", stock: 12},
				{size: "L", color: "Indigo", hex: "#3F51B5", stock: 8},
			},
		},
		{
			sku:       "JKT-200", name: "Waxed Field Jacket", category: "outerwear", gender: constants.GenderFemale,
			price:     "189.00", discount: "20", material: "Waxed cotton", featured: true,
			shortDesc: "Weatherproof four pocket jacket",
			features:  []string{"Water resistant", "Corduroy collar"},
			variants: []seedVariant{
				{size: "S", color: "Olive", hex: "#556B2F", stock: 5},
				{size: "M", color: "Olive", hex: "#556B2F", stock: 4, extra: "10.00"},
			},
		},
		{
			sku:       "CAP-007", name: "Canvas Ball Cap", category: "accessories", gender: constants.GenderUnisex,
			price:     "18.00", material: "Canvas", stock: 40,
			shortDesc: "Adjustable six panel cap",
		},
	}

	for _, p := range products {
		input := service.SaveProductInput{
			SKU:              p.sku,
			Name:             p.name,
			ShortDescription: p.shortDesc,
			Description:      p.shortDesc,
			Gender:           p.gender,
			BasePrice:        models.MustMoney(p.price),
			Features:         p.features,
			Material:         p.material,
			IsFeatured:       &p.featured,
		}
		if p.discount != "" {
			input.DiscountPercentage = models.MustMoney(p.discount)
		}
		if id, ok := categoryIDs[p.category]; ok {
			categoryID := id
			input.CategoryID = &categoryID
		}
		if len(p.variants) == 0 {
			stock := p.stock
			input.TotalStock = &stock
		}
		product, err := c.CatalogService.Create(input, 0)
		if err != nil {
			if errors.Is(err, service.ErrSKUTaken) {
				stdLog.Printf("Product already exists: %s", p.sku)
				continue
			}
			stdLog.Printf("Failed to create product %s: %v", p.sku, err)
			continue
		}
		for _, v := range p.variants {
			variant := service.SaveVariantInput{Size: v.size, Color: v.color, ColorHex: v.hex, Stock: v.stock}
			if v.extra != "" {
				variant.AdditionalPrice = models.MustMoney(v.extra)
			}
			if _, err := c.CatalogService.CreateVariant(product.ID, variant); err != nil {
				stdLog.Printf("Failed to create variant %s/%s for %s: %v", v.size, v.color, p.sku, err)
			}
		}
		stdLog.Printf("Created product: %s", p.sku)
	}

	// 优惠码
	now := time.Now()
	usageLimit := 100
	coupons := []service.SaveCouponInput{
		{
			Code:            "WELCOME10",
			Description:     "10% off your first order",
			DiscountType:    constants.CouponTypePercentage,
			DiscountValue:   models.MustMoney("10"),
			MinimumPurchase: models.MustMoney("30"),
			UsageLimit:      &usageLimit,
			SingleUse:       true,
			ValidFrom:       now,
			ValidTo:         now.AddDate(0, 3, 0),
		},
		{
			Code:          "OUTER15",
			Description:   "15 off outerwear",
			DiscountType:  constants.CouponTypeFixed,
			DiscountValue: models.MustMoney("15"),
			ValidFrom:     now,
			ValidTo:       now.AddDate(0, 1, 0),
		},
	}
	if id, ok := categoryIDs["outerwear"]; ok {
		coupons[1].ApplicableCategoryIDs = []uint{id}
	}
	for _, input := range coupons {
		if _, err := c.CouponAdminService.Create(input); err != nil {
			if errors.Is(err, service.ErrCouponCodeTaken) {
				stdLog.Printf("Coupon already exists: %s", input.Code)
				continue
			}
			stdLog.Printf("Failed to create coupon %s: %v", input.Code, err)
			continue
		}
		stdLog.Printf("Created coupon: %s", input.Code)
	}

	stdLog.Printf("Seed completed")
}
