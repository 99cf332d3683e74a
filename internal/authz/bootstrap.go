package authz

import "fmt"

// BootstrapBuiltinRoles 将角色矩阵同步到策略表：补齐缺失项并移除矩阵外的旧策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, role := range Roles() {
		subject := SubjectForRole(role)
		wanted := make(map[string]struct{})
		for _, perm := range RolePermissions(role) {
			obj, act := SplitPermission(perm)
			if obj == "" {
				return fmt.Errorf("builtin permission is invalid: %s", perm)
			}
			wanted[perm] = struct{}{}
			added, err := s.enforcer.AddPolicy(subject, obj, act)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		existing, err := s.enforcer.GetFilteredPolicy(0, subject)
		if err != nil {
			return fmt.Errorf("list builtin policies failed: %w", err)
		}
		for _, policy := range convertPolicies(existing) {
			if _, ok := wanted[policy.Permission()]; ok {
				continue
			}
			removed, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action)
			if err != nil {
				return fmt.Errorf("remove stale policy failed: %w", err)
			}
			if removed {
				changed = true
			}
		}
	}

	if changed {
		return s.enforcer.LoadPolicy()
	}
	return nil
}
