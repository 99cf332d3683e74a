package models

import (
	"strings"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const defaultAdminPassword = "admin123"

// InitDefaultAdmin 没有任何管理员时创建默认管理员；已存在时确保其为超级用户
func InitDefaultAdmin(username, email, password string) error {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		if err := DB.Model(&User{}).
			Where("role = ? AND is_superuser = ?", constants.RoleAdmin, false).
			Update("is_superuser", true).Error; err != nil {
			logger.Warnw("ensure_admin_superuser_failed", "error", err)
		}
		return nil
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = username + "@verso.local"
	}
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         constants.RoleAdmin,
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "username", username)
	} else {
		logger.Infow("default_admin_created", "username", username)
	}
	return nil
}
