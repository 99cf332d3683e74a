package service

import (
	"context"
	"strings"

	"github.com/verso-store/internal/authz"
	"github.com/verso-store/internal/cache"
	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
)

// UserService 用户资料与员工对用户的管理
type UserService struct {
	userRepo    repository.UserRepository
	authService *AuthService
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, authService *AuthService) *UserService {
	return &UserService{
		userRepo:    userRepo,
		authService: authService,
	}
}

// ProfileInput 资料更新，nil 字段保持不变
type ProfileInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Address     *string
	City        *string
	State       *string
	Country     *string
	PostalCode  *string
	Latitude    *decimal.Decimal
	Longitude   *decimal.Decimal
}

// SaveUserInput 员工创建/编辑用户
type SaveUserInput struct {
	Username    string
	Email       string
	Password    string
	Role        string
	FirstName   string
	LastName    string
	PhoneNumber string
	IsActive    *bool
	IsSuperuser *bool
}

// ActorOf 转换为权限判断主体
func ActorOf(user *models.User) authz.Actor {
	if user == nil {
		return authz.Actor{Role: constants.RoleCustomer}
	}
	return authz.Actor{ID: user.ID, Role: user.Role, IsSuperuser: user.IsSuperuser}
}

// Get 用户详情
func (s *UserService) Get(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile 更新本人资料
func (s *UserService) UpdateProfile(userID uint, input ProfileInput) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			if err := ensureUserUnique(s.userRepo, "", email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&user.FirstName, input.FirstName)
	assign(&user.LastName, input.LastName)
	assign(&user.PhoneNumber, input.PhoneNumber)
	assign(&user.Address, input.Address)
	assign(&user.City, input.City)
	assign(&user.State, input.State)
	assign(&user.Country, input.Country)
	assign(&user.PostalCode, input.PostalCode)
	if input.Latitude != nil {
		user.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		user.Longitude = input.Longitude
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// List 员工查看用户列表；非管理员只能看到等级低于自己的用户
func (s *UserService) List(actor authz.Actor, filter repository.UserListFilter) ([]models.User, int64, error) {
	if !authz.HasPermission(actor, authz.PermViewUser) {
		return nil, 0, ErrPermissionDenied
	}
	if !actor.IsUnrestricted() {
		visible := make([]string, 0, 4)
		for _, role := range authz.Roles() {
			if authz.RoleRank(role) < authz.RoleRank(actor.Role) {
				visible = append(visible, role)
			}
		}
		filter.Roles = visible
	}
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)
	return s.userRepo.List(filter)
}

// Create 员工创建用户，只能授予严格低于自身的角色
func (s *UserService) Create(actor authz.Actor, input SaveUserInput) (*models.User, error) {
	if !authz.HasPermission(actor, authz.PermAddUser) {
		return nil, ErrPermissionDenied
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = constants.RoleCustomer
	}
	if !authz.IsKnownRole(role) {
		return nil, ErrRoleInvalid
	}
	if !authz.CanAssignRole(actor, role) {
		return nil, ErrPermissionDenied
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrInvalidInput
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := s.authService.ValidatePassword(input.Password, username); err != nil {
		return nil, err
	}
	if err := ensureUserUnique(s.userRepo, username, email, 0); err != nil {
		return nil, err
	}
	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		IsActive:     true,
		IsSuperuser:  input.IsSuperuser != nil && *input.IsSuperuser && actor.IsSuperuser,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	// is_active 列默认 true，零值在插入时会被忽略
	if input.IsActive != nil && !*input.IsActive {
		user.IsActive = false
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
	}
	logger.Infow("user_created_by_staff", "actor_id", actor.ID, "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Update 员工编辑用户；角色或启用状态变化时旧令牌失效
func (s *UserService) Update(actor authz.Actor, id uint, input SaveUserInput) (*models.User, error) {
	target, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditUser(actor, ActorOf(target)) {
		return nil, ErrForbidden
	}
	self := actor.ID == target.ID
	if !self && !authz.HasPermission(actor, authz.PermChangeUser) && !authz.HasPermission(actor, authz.PermAddUser) {
		return nil, ErrPermissionDenied
	}

	revoke := false
	if role := strings.ToLower(strings.TrimSpace(input.Role)); role != "" && role != target.Role {
		if self || !authz.CanAssignRole(actor, role) {
			return nil, ErrPermissionDenied
		}
		target.Role = role
		revoke = true
	}
	if username := strings.TrimSpace(input.Username); username != "" && username != target.Username {
		if err := ensureUserUnique(s.userRepo, username, "", target.ID); err != nil {
			return nil, err
		}
		target.Username = username
	}
	if strings.TrimSpace(input.Email) != "" {
		email, err := normalizeEmail(input.Email)
		if err != nil {
			return nil, err
		}
		if email != target.Email {
			if err := ensureUserUnique(s.userRepo, "", email, target.ID); err != nil {
				return nil, err
			}
			target.Email = email
		}
	}
	if input.Password != "" {
		if err := s.authService.ValidatePassword(input.Password, target.Username); err != nil {
			return nil, err
		}
		hashed, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = hashed
		revoke = true
	}
	if v := strings.TrimSpace(input.FirstName); v != "" {
		target.FirstName = v
	}
	if v := strings.TrimSpace(input.LastName); v != "" {
		target.LastName = v
	}
	if v := strings.TrimSpace(input.PhoneNumber); v != "" {
		target.PhoneNumber = v
	}
	if input.IsActive != nil && *input.IsActive != target.IsActive {
		if self {
			return nil, ErrPermissionDenied
		}
		target.IsActive = *input.IsActive
		revoke = true
	}
	if input.IsSuperuser != nil && *input.IsSuperuser != target.IsSuperuser {
		if !actor.IsSuperuser {
			return nil, ErrPermissionDenied
		}
		target.IsSuperuser = *input.IsSuperuser
	}
	if revoke {
		target.TokenVersion++
	}
	if err := s.userRepo.Update(target); err != nil {
		return nil, err
	}
	invalidateUserAuthState(target.ID)
	return target, nil
}

// Delete 员工删除用户，目标等级必须严格低于操作者
func (s *UserService) Delete(actor authz.Actor, id uint) error {
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	target, err := s.Get(id)
	if err != nil {
		return err
	}
	if !authz.CanDeleteUser(actor, ActorOf(target)) {
		return ErrForbidden
	}
	if err := s.userRepo.Delete(target.ID); err != nil {
		return err
	}
	invalidateUserAuthState(target.ID)
	logger.Infow("user_deleted", "actor_id", actor.ID, "user_id", target.ID, "role", target.Role)
	return nil
}

var delUserAuthState = cache.DelUserAuthState

// invalidateUserAuthState 删除用户鉴权状态缓存；失败只记录日志，缓存在 TTL 内可能仍返回旧状态
func invalidateUserAuthState(userID uint) {
	if err := delUserAuthState(context.Background(), userID); err != nil {
		logger.Warnw("user_auth_state_invalidate_failed", "user_id", userID, "error", err)
	}
}
