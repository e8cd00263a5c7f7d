package services

import (
	"context"
	"math"
	"strings"

	"catalog/internal/apifeatures"
	"catalog/internal/apperrors"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/slug"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-hclog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const productNotFound = "Product not found"

// AttributeInput assigns one attribute to a product. Each value id becomes
// its own association; with no value ids a single association carries
// CustomValue.
type AttributeInput struct {
	AttributeID string   `json:"attributeId" validate:"required"`
	ValueID     *string  `json:"valueId,omitempty"`
	ValueIDs    []string `json:"valueIds,omitempty"`
	CustomValue *string  `json:"customValue,omitempty"`
}

func (in AttributeInput) valueIDs() []string {
	ids := make([]string, 0, len(in.ValueIDs)+1)
	if in.ValueID != nil && *in.ValueID != "" {
		ids = append(ids, *in.ValueID)
	}
	for _, id := range in.ValueIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return uniqueStrings(ids)
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name         string           `json:"name" validate:"required,max=200"`
	Description  *string          `json:"description,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	Discount     float64          `json:"discount" validate:"gte=0,lte=100"`
	Stock        int              `json:"stock" validate:"gte=0"`
	IsNew        bool             `json:"isNew"`
	IsTrending   bool             `json:"isTrending"`
	IsBestSeller bool             `json:"isBestSeller"`
	IsFeatured   bool             `json:"isFeatured"`
	CategoryID   *string          `json:"categoryId,omitempty"`
	Images       []string         `json:"images,omitempty"`
	Attributes   []AttributeInput `json:"attributes,omitempty" validate:"dive"`
}

// UpdateProductInput carries a partial update. Nil fields are left unchanged.
// A non-nil Attributes slice, even an empty one, replaces every assignment.
// An empty CategoryID detaches the product from its category.
type UpdateProductInput struct {
	Name         *string          `json:"name,omitempty" validate:"omitnil,min=1,max=200"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Discount     *float64         `json:"discount,omitempty" validate:"omitnil,gte=0,lte=100"`
	Stock        *int             `json:"stock,omitempty" validate:"omitnil,gte=0"`
	IsNew        *bool            `json:"isNew,omitempty"`
	IsTrending   *bool            `json:"isTrending,omitempty"`
	IsBestSeller *bool            `json:"isBestSeller,omitempty"`
	IsFeatured   *bool            `json:"isFeatured,omitempty"`
	CategoryID   *string          `json:"categoryId,omitempty"`
	Images       []string         `json:"images,omitempty"`
	Attributes   []AttributeInput `json:"attributes,omitempty" validate:"omitempty,dive"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products       []models.Product `json:"products"`
	TotalResults   int64            `json:"totalResults"`
	TotalPages     int              `json:"totalPages"`
	CurrentPage    int              `json:"currentPage"`
	ResultsPerPage int              `json:"resultsPerPage"`
}

// ProductDeletedEvent is published after a product is removed.
type ProductDeletedEvent struct {
	ID string `json:"id"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	products   repositories.ProductRepository
	attributes repositories.AttributeRepository
	categories repositories.CategoryRepository
	transactor repositories.Transactor
	events     EventPublisher
	validate   *validator.Validate
	logger     hclog.Logger
}

// NewProductService creates a new ProductService. events may be nil, in which
// case no catalog events are published.
func NewProductService(
	products repositories.ProductRepository,
	attributes repositories.AttributeRepository,
	categories repositories.CategoryRepository,
	transactor repositories.Transactor,
	events EventPublisher,
	logger hclog.Logger,
) *ProductService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ProductService{
		products:   products,
		attributes: attributes,
		categories: categories,
		transactor: transactor,
		events:     events,
		validate:   newValidator(),
		logger:     logger.Named("products"),
	}
}

func (s *ProductService) fail(op string, err error) error {
	err = translate(err, productNotFound)
	if apperrors.KindOf(err) == apperrors.Internal {
		s.logger.Error("operation failed", "op", op, "error", err)
	}
	return err
}

// GetAllProducts lists products matching the query-string params, with
// pagination metadata. Results default to newest first.
func (s *ProductService) GetAllProducts(ctx context.Context, params map[string]string) (*ProductPage, error) {
	spec, err := apifeatures.New(params, apifeatures.ProductFields).
		Filter().
		Sort().
		LimitFields().
		Paginate().
		Build()
	if err != nil {
		return nil, err
	}
	if len(spec.OrderBy) == 0 {
		spec.OrderBy = []apifeatures.Order{{Column: "created_at", Desc: true}}
	}

	total, err := s.products.CountProducts(ctx, nil, spec)
	if err != nil {
		return nil, s.fail("list", err)
	}
	products, err := s.products.FindManyProducts(ctx, nil, spec)
	if err != nil {
		return nil, s.fail("list", err)
	}

	return &ProductPage{
		Products:       products,
		TotalResults:   total,
		TotalPages:     int(math.Ceil(float64(total) / float64(spec.Take))),
		CurrentPage:    spec.Skip/spec.Take + 1,
		ResultsPerPage: spec.Take,
	}, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindProductByID(ctx, nil, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	return product, nil
}

// GetProductBySlug retrieves a single product by its slug.
func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.products.FindProductBySlug(ctx, nil, slug)
	if err != nil {
		return nil, s.fail("get", err)
	}
	return product, nil
}

// CreateProduct validates input and persists the product with its attribute
// assignments in one transaction. Nothing is written if any reference is unknown.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, apperrors.New(apperrors.InvalidArgument, "Price must not be negative")
	}
	if err := checkAttributeInputs(input.Attributes); err != nil {
		return nil, err
	}
	base := slug.Make(input.Name)
	if base == "" {
		return nil, apperrors.New(apperrors.InvalidArgument, "Name must contain at least one letter or digit")
	}

	var created *models.Product
	err := repositories.RunInTx(ctx, s.transactor, func(tx repositories.Tx) error {
		if input.CategoryID != nil && *input.CategoryID != "" {
			if err := s.checkCategories(ctx, tx, []string{*input.CategoryID}); err != nil {
				return err
			}
		}
		if err := s.checkAttributes(ctx, tx, input.Attributes); err != nil {
			return err
		}

		taken, err := s.products.FindTakenSlugs(ctx, tx, []string{base})
		if err != nil {
			return err
		}

		product := &models.Product{
			Name:         input.Name,
			Slug:         slug.Unique(base, toSet(taken)),
			Description:  input.Description,
			Price:        input.Price,
			Discount:     input.Discount,
			Stock:        input.Stock,
			IsNew:        input.IsNew,
			IsTrending:   input.IsTrending,
			IsBestSeller: input.IsBestSeller,
			IsFeatured:   input.IsFeatured,
			CategoryID:   emptyToNil(input.CategoryID),
			Images:       datatypes.JSONSlice[string](cleanImages(input.Images)),
		}
		if err := s.products.CreateProduct(ctx, tx, product); err != nil {
			return err
		}
		if err := s.assignAttributes(ctx, tx, product.ID, input.Attributes); err != nil {
			return err
		}

		created, err = s.products.FindProductByID(ctx, tx, product.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("create", err)
	}

	s.logger.Info("product created", "id", created.ID, "slug", created.Slug)
	publish(s.events, s.logger, EventProductCreated, created)
	return created, nil
}

// UpdateProduct applies a partial update. When attributes are supplied the
// product's assignments are replaced by exactly that set.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, apperrors.New(apperrors.InvalidArgument, "Price must not be negative")
	}
	if err := checkAttributeInputs(input.Attributes); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := repositories.RunInTx(ctx, s.transactor, func(tx repositories.Tx) error {
		if _, err := s.products.FindProductByID(ctx, tx, id); err != nil {
			return err
		}
		if input.CategoryID != nil && *input.CategoryID != "" {
			if err := s.checkCategories(ctx, tx, []string{*input.CategoryID}); err != nil {
				return err
			}
		}

		if err := s.checkAttributes(ctx, tx, input.Attributes); err != nil {
			return err
		}

		if updates := updateColumns(input); len(updates) > 0 {
			if err := s.products.UpdateProduct(ctx, tx, id, updates); err != nil {
				return err
			}
		}

		if input.Attributes != nil {
			if err := s.attributes.DeleteProductAttributes(ctx, tx, id); err != nil {
				return err
			}
			if err := s.assignAttributes(ctx, tx, id, input.Attributes); err != nil {
				return err
			}
		}

		var err error
		updated, err = s.products.FindProductByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.logger.Info("product updated", "id", id)
	publish(s.events, s.logger, EventProductUpdated, updated)
	return updated, nil
}

func updateColumns(input UpdateProductInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.Discount != nil {
		updates["discount"] = *input.Discount
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if input.IsNew != nil {
		updates["is_new"] = *input.IsNew
	}
	if input.IsTrending != nil {
		updates["is_trending"] = *input.IsTrending
	}
	if input.IsBestSeller != nil {
		updates["is_best_seller"] = *input.IsBestSeller
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = *input.CategoryID
		}
	}
	if input.Images != nil {
		updates["images"] = datatypes.JSONSlice[string](cleanImages(input.Images))
	}
	return updates
}

// RestockProduct records an inbound delivery: the restock row, the stock
// increment and the audit movement commit together or not at all.
func (s *ProductService) RestockProduct(ctx context.Context, id string, quantity int, notes, actorID *string) (*models.Restock, error) {
	if quantity <= 0 {
		return nil, apperrors.New(apperrors.InvalidArgument, "Quantity must be greater than zero")
	}

	restock := &models.Restock{ProductID: id, Quantity: quantity, Notes: notes, UserID: actorID}
	err := repositories.RunInTx(ctx, s.transactor, func(tx repositories.Tx) error {
		if _, err := s.products.FindProductByID(ctx, tx, id); err != nil {
			return err
		}
		if err := s.products.CreateRestock(ctx, tx, restock); err != nil {
			return err
		}
		if err := s.products.UpdateProductStock(ctx, tx, id, quantity); err != nil {
			return err
		}
		return s.products.CreateStockMovement(ctx, tx, &models.StockMovement{
			ProductID: id,
			Quantity:  quantity,
			Reason:    models.StockReasonRestock,
			UserID:    actorID,
		})
	})
	if err != nil {
		return nil, s.fail("restock", err)
	}

	s.logger.Info("product restocked", "id", id, "quantity", quantity)
	publish(s.events, s.logger, EventProductRestocked, restock)
	return restock, nil
}

// ListStockMovements returns a product's stock history, newest first.
func (s *ProductService) ListStockMovements(ctx context.Context, id string) ([]models.StockMovement, error) {
	if _, err := s.products.FindProductByID(ctx, nil, id); err != nil {
		return nil, s.fail("movements", err)
	}
	movements, err := s.products.ListStockMovements(ctx, nil, id)
	if err != nil {
		return nil, s.fail("movements", err)
	}
	return movements, nil
}

// DeleteProduct removes a product and its attribute assignments.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	err := repositories.RunInTx(ctx, s.transactor, func(tx repositories.Tx) error {
		if _, err := s.products.FindProductByID(ctx, tx, id); err != nil {
			return err
		}
		return s.products.DeleteProduct(ctx, tx, id)
	})
	if err != nil {
		return s.fail("delete", err)
	}

	s.logger.Info("product deleted", "id", id)
	publish(s.events, s.logger, EventProductDeleted, ProductDeletedEvent{ID: id})
	return nil
}

// checkAttributeInputs rejects assignments that name neither a value nor a
// custom value. It runs before any transaction is opened.
func checkAttributeInputs(inputs []AttributeInput) error {
	for _, in := range inputs {
		if len(in.valueIDs()) == 0 && (in.CustomValue == nil || strings.TrimSpace(*in.CustomValue) == "") {
			return apperrors.New(apperrors.InvalidArgument, "Attribute %s needs a valueId, valueIds or customValue", in.AttributeID)
		}
	}
	return nil
}

// checkAttributes verifies in two batched queries that every referenced
// attribute and value exists and that each value belongs to the attribute it
// is listed under.
func (s *ProductService) checkAttributes(ctx context.Context, tx repositories.Tx, inputs []AttributeInput) error {
	if len(inputs) == 0 {
		return nil
	}

	attributeIDs := make([]string, 0, len(inputs))
	var valueIDs []string
	for _, in := range inputs {
		attributeIDs = append(attributeIDs, in.AttributeID)
		valueIDs = append(valueIDs, in.valueIDs()...)
	}
	attributeIDs = uniqueStrings(attributeIDs)
	valueIDs = uniqueStrings(valueIDs)

	count, err := s.attributes.CountAttributes(ctx, tx, attributeIDs)
	if err != nil {
		return err
	}
	if count != int64(len(attributeIDs)) {
		return apperrors.New(apperrors.InvalidReference, "One or more attributes do not exist")
	}

	if len(valueIDs) == 0 {
		return nil
	}
	values, err := s.attributes.FindValues(ctx, tx, valueIDs)
	if err != nil {
		return err
	}
	if len(values) != len(valueIDs) {
		return apperrors.New(apperrors.InvalidReference, "One or more attribute values do not exist")
	}

	owner := make(map[string]string, len(values))
	for _, v := range values {
		owner[v.ID] = v.AttributeID
	}
	for _, in := range inputs {
		for _, id := range in.valueIDs() {
			if owner[id] != in.AttributeID {
				return apperrors.New(apperrors.InvalidReference, "Value %s does not belong to attribute %s", id, in.AttributeID)
			}
		}
	}
	return nil
}

func (s *ProductService) assignAttributes(ctx context.Context, tx repositories.Tx, productID string, inputs []AttributeInput) error {
	for _, in := range inputs {
		ids := in.valueIDs()
		if len(ids) == 0 {
			if err := s.attributes.AssignAttributeToProduct(ctx, tx, &models.ProductAttribute{
				ProductID:   productID,
				AttributeID: in.AttributeID,
				CustomValue: in.CustomValue,
			}); err != nil {
				return err
			}
			continue
		}
		for _, id := range ids {
			valueID := id
			if err := s.attributes.AssignAttributeToProduct(ctx, tx, &models.ProductAttribute{
				ProductID:   productID,
				AttributeID: in.AttributeID,
				ValueID:     &valueID,
				CustomValue: in.CustomValue,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkCategories fails with InvalidReference naming the first unknown id.
func (s *ProductService) checkCategories(ctx context.Context, tx repositories.Tx, ids []string) error {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return nil
	}
	found, err := s.categories.FindExistingIDs(ctx, tx, ids)
	if err != nil {
		return err
	}
	existing := toSet(found)
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			return apperrors.New(apperrors.InvalidReference, "Invalid categoryId: %s", id)
		}
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}
