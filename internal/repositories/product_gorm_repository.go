package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog/internal/apifeatures"
	"catalog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const createBatchSize = 100

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applyWhere translates spec predicates into SQL conditions. Column names
// come from the apifeatures whitelist, never from the request.
func applyWhere(db *gorm.DB, where []apifeatures.Predicate) *gorm.DB {
	for _, p := range where {
		switch p.Op {
		case apifeatures.OpEq:
			db = db.Where(fmt.Sprintf("%s = ?", p.Column), p.Value)
		case apifeatures.OpNe:
			db = db.Where(fmt.Sprintf("%s <> ?", p.Column), p.Value)
		case apifeatures.OpGt:
			db = db.Where(fmt.Sprintf("%s > ?", p.Column), p.Value)
		case apifeatures.OpGte:
			db = db.Where(fmt.Sprintf("%s >= ?", p.Column), p.Value)
		case apifeatures.OpLt:
			db = db.Where(fmt.Sprintf("%s < ?", p.Column), p.Value)
		case apifeatures.OpLte:
			db = db.Where(fmt.Sprintf("%s <= ?", p.Column), p.Value)
		case apifeatures.OpContains:
			db = db.Where(fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", p.Column), "%"+likeEscaper.Replace(strings.ToLower(fmt.Sprint(p.Value)))+"%")
		case apifeatures.OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", p.Column), p.Value)
		}
	}
	return db
}

// CountProducts counts the products matching the spec predicates.
func (r *GORMProductRepository) CountProducts(ctx context.Context, tx Tx, spec apifeatures.Spec) (int64, error) {
	var total int64
	q := applyWhere(conn(ctx, r.db, tx).Model(&models.Product{}), spec.Where)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// FindManyProducts returns one page of products matching the spec.
func (r *GORMProductRepository) FindManyProducts(ctx context.Context, tx Tx, spec apifeatures.Spec) ([]models.Product, error) {
	q := applyWhere(conn(ctx, r.db, tx).Model(&models.Product{}), spec.Where)
	for _, o := range spec.OrderBy {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if len(spec.Select) > 0 {
		q = q.Select(spec.Select)
	} else {
		q = q.Preload("Category")
	}
	if spec.Take > 0 {
		q = q.Limit(spec.Take)
	}
	if spec.Skip > 0 {
		q = q.Offset(spec.Skip)
	}

	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

func (r *GORMProductRepository) findOne(ctx context.Context, tx Tx, column, value string) (*models.Product, error) {
	var product models.Product
	err := conn(ctx, r.db, tx).
		Preload("Category").
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Attributes.Attribute").
		Preload("Attributes.Value").
		First(&product, fmt.Sprintf("%s = ?", column), value).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by %s %s: %w", column, value, err)
	}
	return &product, nil
}

// FindProductByID retrieves a single product with its category and attributes.
func (r *GORMProductRepository) FindProductByID(ctx context.Context, tx Tx, id string) (*models.Product, error) {
	return r.findOne(ctx, tx, "id", id)
}

// FindProductBySlug retrieves a single product with its category and attributes.
func (r *GORMProductRepository) FindProductBySlug(ctx context.Context, tx Tx, slug string) (*models.Product, error) {
	return r.findOne(ctx, tx, "slug", slug)
}

// FindTakenSlugs returns every stored slug equal to one of bases or derived
// from one of them with a "-suffix".
func (r *GORMProductRepository) FindTakenSlugs(ctx context.Context, tx Tx, bases []string) ([]string, error) {
	taken := []string{}
	if len(bases) == 0 {
		return taken, nil
	}

	cond := r.db.Where("slug IN ?", bases)
	for _, base := range bases {
		cond = cond.Or("slug LIKE ?", base+"-%")
	}
	if err := conn(ctx, r.db, tx).Model(&models.Product{}).Where(cond).Pluck("slug", &taken).Error; err != nil {
		return nil, fmt.Errorf("failed to find taken slugs: %w", err)
	}
	return taken, nil
}

// CreateProduct inserts the product row only. Attribute assignments are
// persisted separately by the attribute repository.
func (r *GORMProductRepository) CreateProduct(ctx context.Context, tx Tx, product *models.Product) error {
	if err := conn(ctx, r.db, tx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct applies column updates to an existing product.
func (r *GORMProductRepository) UpdateProduct(ctx context.Context, tx Tx, id string, updates map[string]interface{}) error {
	res := conn(ctx, r.db, tx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateManyProducts bulk-inserts products and returns the inserted count.
func (r *GORMProductRepository) CreateManyProducts(ctx context.Context, tx Tx, products []models.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	res := conn(ctx, r.db, tx).Omit(clause.Associations).CreateInBatches(&products, createBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to create products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteProduct removes a product together with its attribute assignments.
// Restock and stock movement rows are kept as history.
func (r *GORMProductRepository) DeleteProduct(ctx context.Context, tx Tx, id string) error {
	return conn(ctx, r.db, tx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("product_id = ?", id).Delete(&models.ProductAttribute{}).Error; err != nil {
			return fmt.Errorf("failed to delete product attributes: %w", err)
		}
		res := db.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// CreateRestock records an inbound delivery.
func (r *GORMProductRepository) CreateRestock(ctx context.Context, tx Tx, restock *models.Restock) error {
	if err := conn(ctx, r.db, tx).Create(restock).Error; err != nil {
		return fmt.Errorf("failed to create restock: %w", err)
	}
	return nil
}

// UpdateProductStock adds delta to the product's stock in a single statement.
func (r *GORMProductRepository) UpdateProductStock(ctx context.Context, tx Tx, id string, delta int) error {
	res := conn(ctx, r.db, tx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to update product stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateStockMovement appends an entry to the stock audit log.
func (r *GORMProductRepository) CreateStockMovement(ctx context.Context, tx Tx, movement *models.StockMovement) error {
	if err := conn(ctx, r.db, tx).Create(movement).Error; err != nil {
		return fmt.Errorf("failed to create stock movement: %w", err)
	}
	return nil
}

// ListStockMovements returns a product's stock history, newest first.
func (r *GORMProductRepository) ListStockMovements(ctx context.Context, tx Tx, productID string) ([]models.StockMovement, error) {
	movements := []models.StockMovement{}
	err := conn(ctx, r.db, tx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Order("id").
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}
