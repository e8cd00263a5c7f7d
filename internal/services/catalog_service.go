package services

import (
	"context"
	"strings"

	"catalog/internal/apperrors"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/slug"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-hclog"
)

// CreateCategoryInput carries the fields of a new category.
type CreateCategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateAttributeInput carries a new attribute and its permissible values.
type CreateAttributeInput struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Values []string `json:"values" validate:"dive,required,max=100"`
}

// CatalogService manages the categories and attributes products refer to.
type CatalogService struct {
	categories repositories.CategoryRepository
	attributes repositories.AttributeRepository
	validate   *validator.Validate
	logger     hclog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(categories repositories.CategoryRepository, attributes repositories.AttributeRepository, logger hclog.Logger) *CatalogService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CatalogService{
		categories: categories,
		attributes: attributes,
		validate:   newValidator(),
		logger:     logger.Named("catalog"),
	}
}

// CreateCategory stores a category with a slug derived from its name.
// A second category with the same slug is a Conflict.
func (s *CatalogService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	category := &models.Category{Name: strings.TrimSpace(input.Name), Slug: slug.Make(input.Name)}
	if category.Slug == "" {
		return nil, apperrors.New(apperrors.InvalidArgument, "Name must contain at least one letter or digit")
	}
	if err := s.categories.CreateCategory(ctx, nil, category); err != nil {
		return nil, translate(err, "Category not found")
	}
	s.logger.Info("category created", "id", category.ID, "slug", category.Slug)
	return category, nil
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.ListCategories(ctx, nil)
	if err != nil {
		return nil, translate(err, "Category not found")
	}
	return categories, nil
}

// CreateAttribute stores an attribute together with its values.
func (s *CatalogService) CreateAttribute(ctx context.Context, input CreateAttributeInput) (*models.Attribute, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	attribute := &models.Attribute{Name: strings.TrimSpace(input.Name)}
	for _, v := range uniqueStrings(input.Values) {
		attribute.Values = append(attribute.Values, models.AttributeValue{Value: v})
	}
	if err := s.attributes.CreateAttribute(ctx, nil, attribute); err != nil {
		return nil, translate(err, "Attribute not found")
	}
	s.logger.Info("attribute created", "id", attribute.ID, "values", len(attribute.Values))
	return attribute, nil
}

// ListAttributes returns every attribute with its values.
func (s *CatalogService) ListAttributes(ctx context.Context) ([]models.Attribute, error) {
	attributes, err := s.attributes.ListAttributes(ctx, nil)
	if err != nil {
		return nil, translate(err, "Attribute not found")
	}
	return attributes, nil
}
