package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/constants"
	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type authFixture struct {
	db    *gorm.DB
	users *repository.GormUserRepository
	auth  *service.AuthService
	authz *authz.Service
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), models.GormConfig(false))
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	models.DB = db
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	users := repository.NewUserRepository(db)
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "staff-secret", ExpireHours: 1},
		UserJWT: config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1},
	}
	return &authFixture{db: db, users: users, auth: service.NewAuthService(cfg, users), authz: authzService}
}

func (f *authFixture) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := f.users.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (f *authFixture) token(t *testing.T, user *models.User, scope string) string {
	t.Helper()
	token, _, err := f.auth.GenerateJWT(user, scope)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	return token
}

func serveWithToken(r *gin.Engine, path, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.StatusCode
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupAuthFixture(t)
	customer := f.createUser(t, "cora", constants.RoleCustomer)

	r := gin.New()
	r.GET("/me", UserJWTAuthMiddleware(f.auth), func(c *gin.Context) {
		uid, _ := handlershared.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": uid})
	})

	if code := serveWithToken(r, "/me", ""); code != 401 {
		t.Fatalf("missing token want 401 got %d", code)
	}
	if code := serveWithToken(r, "/me", "garbage"); code != 401 {
		t.Fatalf("invalid token want 401 got %d", code)
	}
	token := f.token(t, customer, service.TokenScopeUser)
	if code := serveWithToken(r, "/me", token); code != 0 {
		t.Fatalf("valid token want 0 got %d", code)
	}
	if code := serveWithToken(r, "/me", f.token(t, customer, service.TokenScopeStaff)); code != 401 {
		t.Fatalf("staff-scoped token on user route want 401 got %d", code)
	}

	customer.TokenVersion++
	if err := f.users.Update(customer); err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	if code := serveWithToken(r, "/me", token); code != 401 {
		t.Fatalf("revoked token want 401 got %d", code)
	}
}

func TestOptionalUserJWTMiddlewareAllowsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupAuthFixture(t)

	r := gin.New()
	r.GET("/cart", OptionalUserJWTMiddleware(f.auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": handlershared.OptionalUserID(c)})
	})
	if code := serveWithToken(r, "/cart", ""); code != 0 {
		t.Fatalf("anonymous want 0 got %d", code)
	}
	if code := serveWithToken(r, "/cart", "garbage"); code != 0 {
		t.Fatalf("invalid token on optional route want 0 got %d", code)
	}
}

func TestStaffRoutesRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupAuthFixture(t)
	employee := f.createUser(t, "eli", constants.RoleEmployee)
	manager := f.createUser(t, "mona", constants.RoleManager)
	customer := f.createUser(t, "cyd", constants.RoleCustomer)

	r := gin.New()
	staff := r.Group("/admin", StaffJWTAuthMiddleware(f.auth))
	staff.GET("/products", RequirePermission(f.authz, authz.PermAddProduct), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	if code := serveWithToken(r, "/admin/products", f.token(t, manager, service.TokenScopeStaff)); code != 0 {
		t.Fatalf("manager want 0 got %d", code)
	}
	if code := serveWithToken(r, "/admin/products", f.token(t, employee, service.TokenScopeStaff)); code != 403 {
		t.Fatalf("employee want 403 got %d", code)
	}
	if code := serveWithToken(r, "/admin/products", f.token(t, customer, service.TokenScopeStaff)); code != 401 {
		t.Fatalf("customer with staff-scoped token want 401 got %d", code)
	}
}

func TestRequirePermissionWithoutActorReturnsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupAuthFixture(t)

	r := gin.New()
	r.GET("/admin/reports", RequirePermission(f.authz, authz.PermAddProduct), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/reports", nil))
	if w.Body.Len() == 0 {
		t.Fatalf("missing actor should write a response body")
	}
	var resp struct {
		StatusCode int    `json:"status_code"`
		Msg        string `json:"msg"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("missing actor want 401 got %d", resp.StatusCode)
	}
}
