package service

import (
	"strings"
	"unicode"

	"github.com/verso-store/internal/config"
)

type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Key 错误文案键
func (e passwordPolicyError) Key() string {
	return e.key
}

// Args 文案参数
func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

// validatePassword 按策略校验密码；纯数字与包含用户名的密码始终拒绝
func validatePassword(policy config.PasswordPolicyConfig, password, username string) error {
	if strings.TrimSpace(password) == "" {
		return passwordPolicyError{key: "error.password_required"}
	}
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}
	if hasNumber && !hasUpper && !hasLower && !hasSpecial {
		return passwordPolicyError{key: "error.password_all_numeric"}
	}
	if name := strings.ToLower(strings.TrimSpace(username)); len(name) >= 3 &&
		strings.Contains(strings.ToLower(password), name) {
		return passwordPolicyError{key: "error.password_contains_username"}
	}

	if policy.RequireUpper && !hasUpper {
		return passwordPolicyError{key: "error.password_require_upper"}
	}
	if policy.RequireLower && !hasLower {
		return passwordPolicyError{key: "error.password_require_lower"}
	}
	if policy.RequireNumber && !hasNumber {
		return passwordPolicyError{key: "error.password_require_number"}
	}
	if policy.RequireSpecial && !hasSpecial {
		return passwordPolicyError{key: "error.password_require_special"}
	}
	return nil
}
