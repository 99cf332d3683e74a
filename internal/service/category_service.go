package service

import (
	"strings"

	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// SaveCategoryInput 创建/更新分类输入
type SaveCategoryInput struct {
	Name         string
	Slug         string
	Description  string
	ParentID     *uint
	IsActive     *bool
	DisplayOrder int
}

// List 获取分类列表
func (s *CategoryService) List(onlyActive bool) ([]models.Category, error) {
	return s.repo.List(onlyActive)
}

// Create 创建分类
func (s *CategoryService) Create(input SaveCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if err := s.checkParent(0, input.ParentID); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = models.Slugify(name)
	}

	category := models.Category{
		Name:         name,
		Slug:         slug,
		Description:  strings.TrimSpace(input.Description),
		ParentID:     input.ParentID,
		IsActive:     true,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.repo.Create(&category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	if input.IsActive != nil && !*input.IsActive {
		category.IsActive = false
		if err := s.repo.Update(&category); err != nil {
			return nil, err
		}
	}
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id uint, input SaveCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err := s.checkParent(id, input.ParentID); err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		category.Name = name
	}
	if slug := strings.TrimSpace(input.Slug); slug != "" {
		category.Slug = slug
	}
	category.Description = strings.TrimSpace(input.Description)
	category.ParentID = input.ParentID
	category.DisplayOrder = input.DisplayOrder
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.Update(category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	return category, nil
}

// Delete 删除分类，所属商品变为未分类
func (s *CategoryService) Delete(id uint) error {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return s.repo.Delete(id)
}

// checkParent 父分类必须存在且不能指向自身
func (s *CategoryService) checkParent(selfID uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if *parentID == selfID {
		return ErrInvalidInput
	}
	parent, err := s.repo.GetByID(*parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrCategoryNotFound
	}
	return nil
}
