package authz

import (
	"sort"
	"strings"

	"github.com/verso-store/internal/constants"
)

// 权限标识，格式为 应用.操作
const (
	PermAddProduct    = "products.add_product"
	PermChangeProduct = "products.change_product"
	PermDeleteProduct = "products.delete_product"
	PermViewProduct   = "products.view_product"
	PermAddOrder      = "orders.add_order"
	PermChangeOrder   = "orders.change_order"
	PermDeleteOrder   = "orders.delete_order"
	PermViewOrder     = "orders.view_order"
	PermAddUser       = "accounts.add_user"
	PermChangeUser    = "accounts.change_user"
	PermDeleteUser    = "accounts.delete_user"
	PermViewUser      = "accounts.view_user"
	PermAddCoupon     = "coupons.add_coupon"
	PermChangeCoupon  = "coupons.change_coupon"
	PermDeleteCoupon  = "coupons.delete_coupon"
	PermViewCoupon    = "coupons.view_coupon"
)

var roleRanks = map[string]int{
	constants.RoleCustomer: 0,
	constants.RoleEmployee: 1,
	constants.RoleManager:  2,
	constants.RoleAdmin:    3,
}

// rolePermissions 角色权限矩阵，进程内只读
var rolePermissions = map[string][]string{
	constants.RoleManager: {
		PermAddProduct,
		PermChangeProduct,
		PermViewProduct,
		PermViewOrder,
		PermChangeOrder,
		PermViewUser,
		PermAddUser,
	},
	constants.RoleEmployee: {
		PermViewProduct,
		PermViewOrder,
		PermChangeOrder,
		PermViewUser,
	},
	constants.RoleCustomer: {
		PermAddOrder,
		PermViewOrder,
	},
}

// Actor 参与权限判断的用户
type Actor struct {
	ID          uint
	Role        string
	IsSuperuser bool
}

// RoleRank 角色等级，未知角色按顾客处理
func RoleRank(role string) int {
	return roleRanks[normalizeRoleName(role)]
}

// IsKnownRole 是否为合法角色
func IsKnownRole(role string) bool {
	_, ok := roleRanks[normalizeRoleName(role)]
	return ok
}

// IsStaffRole 员工角色：employee / manager / admin
func IsStaffRole(role string) bool {
	return RoleRank(role) >= roleRanks[constants.RoleEmployee]
}

// Roles 全部角色，按等级升序
func Roles() []string {
	roles := make([]string, 0, len(roleRanks))
	for role := range roleRanks {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roleRanks[roles[i]] < roleRanks[roles[j]] })
	return roles
}

// IsUnrestricted 管理员与超级用户不受权限矩阵限制
func (a Actor) IsUnrestricted() bool {
	return a.IsSuperuser || normalizeRoleName(a.Role) == constants.RoleAdmin
}

// CanDeleteUser 仅员工可删除用户；删除管理员需要超级用户；目标等级必须严格低于操作者
func CanDeleteUser(actor, target Actor) bool {
	if !IsStaffRole(actor.Role) {
		return false
	}
	if normalizeRoleName(target.Role) == constants.RoleAdmin && !actor.IsSuperuser {
		return false
	}
	return RoleRank(target.Role) < RoleRank(actor.Role)
}

// CanEditUser 本人总可编辑自己，其余按删除规则判断
func CanEditUser(actor, target Actor) bool {
	if actor.ID != 0 && actor.ID == target.ID {
		return true
	}
	return CanDeleteUser(actor, target)
}

// CanAssignRole 操作者可授予的角色：管理员不限，其余只能授予严格低于自身的角色
func CanAssignRole(actor Actor, role string) bool {
	if !IsKnownRole(role) {
		return false
	}
	if actor.IsUnrestricted() {
		return true
	}
	if !IsStaffRole(actor.Role) {
		return false
	}
	return RoleRank(role) < RoleRank(actor.Role)
}

// CanExportData 数据导出仅限管理员与经理
func CanExportData(actor Actor) bool {
	if actor.IsUnrestricted() {
		return true
	}
	return RoleRank(actor.Role) >= RoleRank(constants.RoleManager)
}

// RolePermissions 角色在矩阵中的权限副本
func RolePermissions(role string) []string {
	perms := rolePermissions[normalizeRoleName(role)]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission 按静态矩阵判断
func HasPermission(actor Actor, perm string) bool {
	if actor.IsUnrestricted() {
		return true
	}
	perm = strings.TrimSpace(perm)
	for _, item := range rolePermissions[normalizeRoleName(actor.Role)] {
		if item == perm {
			return true
		}
	}
	return false
}

// SplitPermission 拆分为 (应用, 操作)
func SplitPermission(perm string) (string, string) {
	perm = strings.TrimSpace(perm)
	idx := strings.Index(perm, ".")
	if idx <= 0 || idx == len(perm)-1 {
		return "", ""
	}
	return perm[:idx], perm[idx+1:]
}

func normalizeRoleName(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
