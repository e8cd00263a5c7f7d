package repositories

import (
	"context"
	"fmt"

	"catalog/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	FindExistingIDs(ctx context.Context, tx Tx, ids []string) ([]string, error)
	CreateCategory(ctx context.Context, tx Tx, category *models.Category) error
	ListCategories(ctx context.Context, tx Tx) ([]models.Category, error)
}

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// FindExistingIDs returns the subset of ids that name stored categories.
func (r *GORMCategoryRepository) FindExistingIDs(ctx context.Context, tx Tx, ids []string) ([]string, error) {
	found := []string{}
	if len(ids) == 0 {
		return found, nil
	}
	if err := conn(ctx, r.db, tx).Model(&models.Category{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to look up categories: %w", err)
	}
	return found, nil
}

// CreateCategory inserts a category.
func (r *GORMCategoryRepository) CreateCategory(ctx context.Context, tx Tx, category *models.Category) error {
	if err := conn(ctx, r.db, tx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListCategories returns every category ordered by name.
func (r *GORMCategoryRepository) ListCategories(ctx context.Context, tx Tx) ([]models.Category, error) {
	categories := []models.Category{}
	if err := conn(ctx, r.db, tx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
