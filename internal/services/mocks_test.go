package services_test

import (
	"context"
	"errors"

	"catalog/internal/apifeatures"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) CountProducts(ctx context.Context, tx repositories.Tx, spec apifeatures.Spec) (int64, error) {
	args := m.Called(ctx, tx, spec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) FindManyProducts(ctx context.Context, tx repositories.Tx, spec apifeatures.Spec) ([]models.Product, error) {
	args := m.Called(ctx, tx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) FindProductByID(ctx context.Context, tx repositories.Tx, id string) (*models.Product, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindProductBySlug(ctx context.Context, tx repositories.Tx, slug string) (*models.Product, error) {
	args := m.Called(ctx, tx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindTakenSlugs(ctx context.Context, tx repositories.Tx, bases []string) ([]string, error) {
	args := m.Called(ctx, tx, bases)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, tx repositories.Tx, product *models.Product) error {
	args := m.Called(ctx, tx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, tx repositories.Tx, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, tx, id, updates)
	return args.Error(0)
}

func (m *MockProductRepository) CreateManyProducts(ctx context.Context, tx repositories.Tx, products []models.Product) (int64, error) {
	args := m.Called(ctx, tx, products)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, tx repositories.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockProductRepository) CreateRestock(ctx context.Context, tx repositories.Tx, restock *models.Restock) error {
	args := m.Called(ctx, tx, restock)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateProductStock(ctx context.Context, tx repositories.Tx, id string, delta int) error {
	args := m.Called(ctx, tx, id, delta)
	return args.Error(0)
}

func (m *MockProductRepository) CreateStockMovement(ctx context.Context, tx repositories.Tx, movement *models.StockMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockProductRepository) ListStockMovements(ctx context.Context, tx repositories.Tx, productID string) ([]models.StockMovement, error) {
	args := m.Called(ctx, tx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockMovement), args.Error(1)
}

// MockAttributeRepository is a mock implementation of repositories.AttributeRepository
type MockAttributeRepository struct {
	mock.Mock
}

func (m *MockAttributeRepository) AssignAttributeToProduct(ctx context.Context, tx repositories.Tx, assignment *models.ProductAttribute) error {
	args := m.Called(ctx, tx, assignment)
	return args.Error(0)
}

func (m *MockAttributeRepository) DeleteProductAttributes(ctx context.Context, tx repositories.Tx, productID string) error {
	args := m.Called(ctx, tx, productID)
	return args.Error(0)
}

func (m *MockAttributeRepository) CountAttributes(ctx context.Context, tx repositories.Tx, ids []string) (int64, error) {
	args := m.Called(ctx, tx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttributeRepository) FindValues(ctx context.Context, tx repositories.Tx, ids []string) ([]models.AttributeValue, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AttributeValue), args.Error(1)
}

func (m *MockAttributeRepository) CreateAttribute(ctx context.Context, tx repositories.Tx, attribute *models.Attribute) error {
	args := m.Called(ctx, tx, attribute)
	return args.Error(0)
}

func (m *MockAttributeRepository) ListAttributes(ctx context.Context, tx repositories.Tx) ([]models.Attribute, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attribute), args.Error(1)
}

// MockCategoryRepository is a mock implementation of repositories.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindExistingIDs(ctx context.Context, tx repositories.Tx, ids []string) ([]string, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCategoryRepository) CreateCategory(ctx context.Context, tx repositories.Tx, category *models.Category) error {
	args := m.Called(ctx, tx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) ListCategories(ctx context.Context, tx repositories.Tx) ([]models.Category, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

// fakeTransactor records how the transactions it hands out end.
type fakeTransactor struct {
	begins    int
	commits   int
	rollbacks int
	beginErr  error
}

func (f *fakeTransactor) Begin(ctx context.Context) (repositories.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begins++
	return &fakeTx{owner: f}, nil
}

type fakeTx struct {
	owner *fakeTransactor
}

func (tx *fakeTx) Commit() error {
	tx.owner.commits++
	return nil
}

func (tx *fakeTx) Rollback() error {
	tx.owner.rollbacks++
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(routingKey string, payload interface{}) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

var errDB = errors.New("database is down")
