package repositories

import (
	"context"
	"errors"

	"catalog/internal/apifeatures"
	"catalog/internal/models"
)

// ErrProductNotFound is returned when no product matches the lookup.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
// Every method runs inside tx when it is non-nil.
type ProductRepository interface {
	CountProducts(ctx context.Context, tx Tx, spec apifeatures.Spec) (int64, error)
	FindManyProducts(ctx context.Context, tx Tx, spec apifeatures.Spec) ([]models.Product, error)
	FindProductByID(ctx context.Context, tx Tx, id string) (*models.Product, error)
	FindProductBySlug(ctx context.Context, tx Tx, slug string) (*models.Product, error)
	FindTakenSlugs(ctx context.Context, tx Tx, bases []string) ([]string, error)
	CreateProduct(ctx context.Context, tx Tx, product *models.Product) error
	UpdateProduct(ctx context.Context, tx Tx, id string, updates map[string]interface{}) error
	CreateManyProducts(ctx context.Context, tx Tx, products []models.Product) (int64, error)
	DeleteProduct(ctx context.Context, tx Tx, id string) error

	CreateRestock(ctx context.Context, tx Tx, restock *models.Restock) error
	UpdateProductStock(ctx context.Context, tx Tx, id string, delta int) error
	CreateStockMovement(ctx context.Context, tx Tx, movement *models.StockMovement) error
	ListStockMovements(ctx context.Context, tx Tx, productID string) ([]models.StockMovement, error)
}
