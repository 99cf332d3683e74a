package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/verso-store/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	return svc, db
}

func TestEnforceMatchesStaticMatrix(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	perms := []string{
		PermAddProduct, PermChangeProduct, PermDeleteProduct, PermViewProduct,
		PermAddOrder, PermChangeOrder, PermViewOrder,
		PermAddUser, PermDeleteUser, PermViewUser,
	}
	for _, role := range []string{constants.RoleCustomer, constants.RoleEmployee, constants.RoleManager} {
		for _, perm := range perms {
			allow, err := svc.Enforce(role, perm)
			if err != nil {
				t.Fatalf("enforce %s %s failed: %v", role, perm, err)
			}
			want := HasPermission(Actor{Role: role}, perm)
			if allow != want {
				t.Fatalf("enforce %s %s want %v got %v", role, perm, want, allow)
			}
		}
	}
}

func TestManagerCannotDeleteProduct(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	allow, err := svc.Can(Actor{ID: 2, Role: constants.RoleManager}, PermDeleteProduct)
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("manager should not delete products")
	}
	allow, err = svc.Can(Actor{ID: 1, Role: constants.RoleAdmin}, PermDeleteProduct)
	if err != nil || !allow {
		t.Fatalf("admin should bypass matrix, allow=%v err=%v", allow, err)
	}
	allow, err = svc.Can(Actor{ID: 3, Role: constants.RoleEmployee, IsSuperuser: true}, PermDeleteUser)
	if err != nil || !allow {
		t.Fatalf("superuser should bypass matrix, allow=%v err=%v", allow, err)
	}
}

func TestBootstrapRemovesStalePolicies(t *testing.T) {
	svc, db := setupAuthzServiceTest(t)
	if _, err := svc.Enforcer().AddPolicy(SubjectForRole(constants.RoleEmployee), "products", "delete_product"); err != nil {
		t.Fatalf("add stale policy failed: %v", err)
	}
	allow, _ := svc.Enforce(constants.RoleEmployee, PermDeleteProduct)
	if !allow {
		t.Fatalf("stale policy should be effective before bootstrap")
	}

	again, err := NewService(db)
	if err != nil {
		t.Fatalf("reopen authz service failed: %v", err)
	}
	if err := again.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	allow, err = again.Enforce(constants.RoleEmployee, PermDeleteProduct)
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("stale policy should be removed by bootstrap")
	}
	policies, err := again.GetRolePolicies(constants.RoleEmployee)
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != len(RolePermissions(constants.RoleEmployee)) {
		t.Fatalf("employee policies want %d got %d", len(RolePermissions(constants.RoleEmployee)), len(policies))
	}
}

func TestEnforceRejectsMalformedPermission(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if _, err := svc.Enforce(constants.RoleManager, "products"); err == nil {
		t.Fatalf("malformed permission should fail")
	}
}
