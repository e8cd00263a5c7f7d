package repositories

import (
	"context"
	"fmt"

	"catalog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeRepository defines the interface for attribute data access.
type AttributeRepository interface {
	AssignAttributeToProduct(ctx context.Context, tx Tx, assignment *models.ProductAttribute) error
	DeleteProductAttributes(ctx context.Context, tx Tx, productID string) error
	CountAttributes(ctx context.Context, tx Tx, ids []string) (int64, error)
	FindValues(ctx context.Context, tx Tx, ids []string) ([]models.AttributeValue, error)
	CreateAttribute(ctx context.Context, tx Tx, attribute *models.Attribute) error
	ListAttributes(ctx context.Context, tx Tx) ([]models.Attribute, error)
}

// GORMAttributeRepository is a GORM implementation of AttributeRepository.
type GORMAttributeRepository struct {
	db *gorm.DB
}

// NewGORMAttributeRepository creates a new instance of GORMAttributeRepository.
func NewGORMAttributeRepository(db *gorm.DB) *GORMAttributeRepository {
	return &GORMAttributeRepository{db: db}
}

// AssignAttributeToProduct persists one product/attribute/value association.
func (r *GORMAttributeRepository) AssignAttributeToProduct(ctx context.Context, tx Tx, assignment *models.ProductAttribute) error {
	if err := conn(ctx, r.db, tx).Omit(clause.Associations).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to assign attribute %s to product %s: %w", assignment.AttributeID, assignment.ProductID, err)
	}
	return nil
}

// DeleteProductAttributes removes every association of a product.
func (r *GORMAttributeRepository) DeleteProductAttributes(ctx context.Context, tx Tx, productID string) error {
	if err := conn(ctx, r.db, tx).Where("product_id = ?", productID).Delete(&models.ProductAttribute{}).Error; err != nil {
		return fmt.Errorf("failed to delete attributes of product %s: %w", productID, err)
	}
	return nil
}

// CountAttributes counts how many of ids exist. Callers pass a deduplicated set.
func (r *GORMAttributeRepository) CountAttributes(ctx context.Context, tx Tx, ids []string) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	if err := conn(ctx, r.db, tx).Model(&models.Attribute{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attributes: %w", err)
	}
	return count, nil
}

// FindValues returns the attribute values among ids that exist.
func (r *GORMAttributeRepository) FindValues(ctx context.Context, tx Tx, ids []string) ([]models.AttributeValue, error) {
	values := []models.AttributeValue{}
	if len(ids) == 0 {
		return values, nil
	}
	if err := conn(ctx, r.db, tx).Where("id IN ?", ids).Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to find attribute values: %w", err)
	}
	return values, nil
}

// CreateAttribute inserts an attribute together with its values.
func (r *GORMAttributeRepository) CreateAttribute(ctx context.Context, tx Tx, attribute *models.Attribute) error {
	if err := conn(ctx, r.db, tx).Create(attribute).Error; err != nil {
		return fmt.Errorf("failed to create attribute: %w", err)
	}
	return nil
}

// ListAttributes returns every attribute with its values, ordered by name.
func (r *GORMAttributeRepository) ListAttributes(ctx context.Context, tx Tx) ([]models.Attribute, error) {
	attributes := []models.Attribute{}
	err := conn(ctx, r.db, tx).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("value") }).
		Order("name").
		Find(&attributes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	return attributes, nil
}
