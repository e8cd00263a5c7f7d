package services_test

import (
	"context"
	"testing"

	"catalog/internal/apifeatures"
	"catalog/internal/apperrors"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	products   *MockProductRepository
	attributes *MockAttributeRepository
	categories *MockCategoryRepository
	tx         *fakeTransactor
	events     *recordingPublisher
	service    *services.ProductService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		products:   new(MockProductRepository),
		attributes: new(MockAttributeRepository),
		categories: new(MockCategoryRepository),
		tx:         &fakeTransactor{},
		events:     &recordingPublisher{},
	}
	f.service = services.NewProductService(f.products, f.attributes, f.categories, f.tx, f.events, nil)
	return f
}

func strPtr(s string) *string { return &s }

func TestProductService_GetAllProducts(t *testing.T) {
	f := newServiceFixture()

	expected := []models.Product{{ID: "1", Name: "Product A"}}
	pageThree := mock.MatchedBy(func(spec apifeatures.Spec) bool {
		return spec.Skip == 20 && spec.Take == 10 &&
			len(spec.OrderBy) == 1 && spec.OrderBy[0].Column == "created_at" && spec.OrderBy[0].Desc
	})
	f.products.On("CountProducts", mock.Anything, mock.Anything, pageThree).Return(int64(25), nil).Once()
	f.products.On("FindManyProducts", mock.Anything, mock.Anything, pageThree).Return(expected, nil).Once()

	page, err := f.service.GetAllProducts(context.Background(), map[string]string{"page": "3"})

	require.NoError(t, err)
	assert.Equal(t, expected, page.Products)
	assert.Equal(t, int64(25), page.TotalResults)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 10, page.ResultsPerPage)
	assert.Zero(t, f.tx.begins)
	f.products.AssertExpectations(t)
}

func TestProductService_GetAllProducts_InvalidQuery(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.GetAllProducts(context.Background(), map[string]string{"sort": "password"})

	assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))
	f.products.AssertNotCalled(t, "CountProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_GetProductByID(t *testing.T) {
	f := newServiceFixture()

	expected := &models.Product{ID: "1", Name: "Product A"}
	f.products.On("FindProductByID", mock.Anything, mock.Anything, "1").Return(expected, nil).Once()
	product, err := f.service.GetProductByID(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, expected, product)

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "99").Return(nil, repositories.ErrProductNotFound).Once()
	product, err = f.service.GetProductByID(context.Background(), "99")
	assert.Nil(t, product)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	assert.Equal(t, "Product not found", apperrors.MessageOf(err))

	f.products.On("FindProductBySlug", mock.Anything, mock.Anything, "gone").Return(nil, repositories.ErrProductNotFound).Once()
	_, err = f.service.GetProductBySlug(context.Background(), "gone")
	assert.Equal(t, 404, apperrors.StatusOf(err))

	f.products.AssertExpectations(t)
}

func TestProductService_CreateProduct_WithoutAttributes(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindTakenSlugs", mock.Anything, mock.Anything, []string{"blue-mug"}).Return([]string{"blue-mug"}, nil).Once()
	f.products.On("CreateProduct", mock.Anything, mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.Slug == "blue-mug-2" && p.Stock == 10 && p.Name == "Blue Mug"
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*models.Product).ID = "p1"
	}).Return(nil).Once()
	stored := &models.Product{ID: "p1", Name: "Blue Mug", Slug: "blue-mug-2", Stock: 10}
	f.products.On("FindProductByID", mock.Anything, mock.Anything, "p1").Return(stored, nil).Once()

	product, err := f.service.CreateProduct(context.Background(), services.CreateProductInput{
		Name:  "Blue Mug",
		Price: decimal.RequireFromString("9.99"),
		Stock: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, stored, product)
	assert.Equal(t, 1, f.tx.commits)
	assert.Zero(t, f.tx.rollbacks)
	assert.Equal(t, []string{services.EventProductCreated}, f.events.keys)
	f.products.AssertExpectations(t)
	f.attributes.AssertNotCalled(t, "CountAttributes", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_CreateProduct_InvalidInput(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.service.CreateProduct(ctx, services.CreateProductInput{Price: decimal.NewFromInt(1)})
	assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))
	assert.Contains(t, apperrors.MessageOf(err), "name")

	_, err = f.service.CreateProduct(ctx, services.CreateProductInput{Name: "Mug", Price: decimal.NewFromInt(-1)})
	assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))

	_, err = f.service.CreateProduct(ctx, services.CreateProductInput{Name: "Mug", Price: decimal.NewFromInt(1), Discount: 120, Stock: -1})
	assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))
	assert.Contains(t, apperrors.MessageOf(err), "discount")
	assert.Contains(t, apperrors.MessageOf(err), "stock")

	_, err = f.service.CreateProduct(ctx, services.CreateProductInput{
		Name:       "Mug",
		Price:      decimal.NewFromInt(1),
		Attributes: []services.AttributeInput{{AttributeID: "color"}},
	})
	assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))

	assert.Zero(t, f.tx.begins)
}

func TestProductService_CreateProduct_UnknownAttribute(t *testing.T) {
	f := newServiceFixture()

	f.attributes.On("CountAttributes", mock.Anything, mock.Anything, []string{"color", "size"}).Return(int64(1), nil).Once()

	_, err := f.service.CreateProduct(context.Background(), services.CreateProductInput{
		Name:  "Shirt",
		Price: decimal.NewFromInt(20),
		Attributes: []services.AttributeInput{
			{AttributeID: "color", ValueID: strPtr("red")},
			{AttributeID: "size", CustomValue: strPtr("XXL")},
			{AttributeID: "color", ValueIDs: []string{"blue"}},
		},
	})

	assert.True(t, apperrors.Is(err, apperrors.InvalidReference))
	assert.Equal(t, 1, f.tx.rollbacks)
	assert.Zero(t, f.tx.commits)
	assert.Empty(t, f.events.keys)
	f.attributes.AssertExpectations(t)
	f.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
	f.attributes.AssertNotCalled(t, "AssignAttributeToProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_CreateProduct_ValueOwnership(t *testing.T) {
	f := newServiceFixture()

	f.attributes.On("CountAttributes", mock.Anything, mock.Anything, []string{"color", "size"}).Return(int64(2), nil).Once()
	f.attributes.On("FindValues", mock.Anything, mock.Anything, []string{"red", "small"}).Return([]models.AttributeValue{
		{ID: "red", AttributeID: "color"},
		{ID: "small", AttributeID: "size"},
	}, nil).Once()

	_, err := f.service.CreateProduct(context.Background(), services.CreateProductInput{
		Name:  "Shirt",
		Price: decimal.NewFromInt(20),
		Attributes: []services.AttributeInput{
			{AttributeID: "color", ValueIDs: []string{"red", "small"}},
			{AttributeID: "size", CustomValue: strPtr("XXL")},
		},
	})

	assert.True(t, apperrors.Is(err, apperrors.InvalidReference))
	assert.Contains(t, apperrors.MessageOf(err), "small")
	assert.Equal(t, 1, f.tx.rollbacks)
	f.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_CreateProduct_MissingValue(t *testing.T) {
	f := newServiceFixture()

	f.attributes.On("CountAttributes", mock.Anything, mock.Anything, []string{"color"}).Return(int64(1), nil).Once()
	f.attributes.On("FindValues", mock.Anything, mock.Anything, []string{"red", "ghost"}).Return([]models.AttributeValue{
		{ID: "red", AttributeID: "color"},
	}, nil).Once()

	_, err := f.service.CreateProduct(context.Background(), services.CreateProductInput{
		Name:       "Shirt",
		Price:      decimal.NewFromInt(20),
		Attributes: []services.AttributeInput{{AttributeID: "color", ValueIDs: []string{"red", "ghost", "red"}}},
	})

	assert.True(t, apperrors.Is(err, apperrors.InvalidReference))
	f.attributes.AssertExpectations(t)
	f.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_CreateProduct_FansOutValues(t *testing.T) {
	f := newServiceFixture()

	f.attributes.On("CountAttributes", mock.Anything, mock.Anything, []string{"color"}).Return(int64(1), nil).Once()
	f.attributes.On("FindValues", mock.Anything, mock.Anything, []string{"red", "blue"}).Return([]models.AttributeValue{
		{ID: "red", AttributeID: "color"},
		{ID: "blue", AttributeID: "color"},
	}, nil).Once()
	f.products.On("FindTakenSlugs", mock.Anything, mock.Anything, []string{"shirt"}).Return([]string{}, nil).Once()
	f.products.On("CreateProduct", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(2).(*models.Product).ID = "p1"
	}).Return(nil).Once()
	f.attributes.On("AssignAttributeToProduct", mock.Anything, mock.Anything, mock.MatchedBy(func(pa *models.ProductAttribute) bool {
		return pa.ProductID == "p1" && pa.AttributeID == "color" && pa.ValueID != nil
	})).Return(nil).Twice()
	f.products.On("FindProductByID", mock.Anything, mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil).Once()

	_, err := f.service.CreateProduct(context.Background(), services.CreateProductInput{
		Name:       "Shirt",
		Price:      decimal.NewFromInt(20),
		Attributes: []services.AttributeInput{{AttributeID: "color", ValueID: strPtr("red"), ValueIDs: []string{"blue"}}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.tx.commits)
	f.attributes.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestProductService_CreateProduct_UnknownCategory(t *testing.T) {
	f := newServiceFixture()

	f.categories.On("FindExistingIDs", mock.Anything, mock.Anything, []string{"nope"}).Return([]string{}, nil).Once()

	_, err := f.service.CreateProduct(context.Background(), services.CreateProductInput{
		Name:       "Mug",
		Price:      decimal.NewFromInt(1),
		CategoryID: strPtr("nope"),
	})

	assert.True(t, apperrors.Is(err, apperrors.InvalidReference))
	assert.Equal(t, 1, f.tx.rollbacks)
	f.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "99").Return(nil, repositories.ErrProductNotFound).Once()

	_, err := f.service.UpdateProduct(context.Background(), "99", services.UpdateProductInput{Name: strPtr("x")})

	assert.True(t, apperrors.Is(err, apperrors.NotFound))
	assert.Equal(t, 1, f.tx.rollbacks)
	f.products.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct_ReplacesAttributes(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil).Twice()
	f.attributes.On("CountAttributes", mock.Anything, mock.Anything, []string{"size"}).Return(int64(1), nil).Once()
	f.products.On("UpdateProduct", mock.Anything, mock.Anything, "p1", map[string]interface{}{"name": "Shirt v2", "category_id": nil}).Return(nil).Once()
	f.attributes.On("DeleteProductAttributes", mock.Anything, mock.Anything, "p1").Return(nil).Once()
	f.attributes.On("AssignAttributeToProduct", mock.Anything, mock.Anything, mock.MatchedBy(func(pa *models.ProductAttribute) bool {
		return pa.AttributeID == "size" && pa.ValueID == nil && *pa.CustomValue == "XXL"
	})).Return(nil).Once()

	_, err := f.service.UpdateProduct(context.Background(), "p1", services.UpdateProductInput{
		Name:       strPtr("Shirt v2"),
		CategoryID: strPtr(""),
		Attributes: []services.AttributeInput{{AttributeID: "size", CustomValue: strPtr("XXL")}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.tx.commits)
	assert.Equal(t, []string{services.EventProductUpdated}, f.events.keys)
	f.products.AssertExpectations(t)
	f.attributes.AssertExpectations(t)
}

func TestProductService_UpdateProduct_KeepsAttributesWhenOmitted(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil).Twice()
	f.products.On("UpdateProduct", mock.Anything, mock.Anything, "p1", mock.Anything).Return(nil).Once()

	_, err := f.service.UpdateProduct(context.Background(), "p1", services.UpdateProductInput{Stock: new(int)})

	require.NoError(t, err)
	f.attributes.AssertNotCalled(t, "DeleteProductAttributes", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_RestockProduct_RejectsNonPositiveQuantity(t *testing.T) {
	for _, quantity := range []int{0, -5} {
		f := newServiceFixture()

		restock, err := f.service.RestockProduct(context.Background(), "p1", quantity, nil, nil)

		assert.Nil(t, restock)
		assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))
		assert.Zero(t, f.tx.begins, "no transaction for quantity %d", quantity)
		f.products.AssertNotCalled(t, "FindProductByID", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestProductService_RestockProduct(t *testing.T) {
	f := newServiceFixture()
	actor := strPtr("user-1")

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "p1").Return(&models.Product{ID: "p1", Stock: 10}, nil).Once()
	f.products.On("CreateRestock", mock.Anything, mock.Anything, mock.MatchedBy(func(r *models.Restock) bool {
		return r.ProductID == "p1" && r.Quantity == 5 && r.UserID == actor
	})).Return(nil).Once()
	f.products.On("UpdateProductStock", mock.Anything, mock.Anything, "p1", 5).Return(nil).Once()
	f.products.On("CreateStockMovement", mock.Anything, mock.Anything, mock.MatchedBy(func(m *models.StockMovement) bool {
		return m.Quantity == 5 && m.Reason == models.StockReasonRestock && m.UserID == actor
	})).Return(nil).Once()

	restock, err := f.service.RestockProduct(context.Background(), "p1", 5, strPtr("pallet 7"), actor)

	require.NoError(t, err)
	assert.Equal(t, 5, restock.Quantity)
	assert.Equal(t, 1, f.tx.commits)
	assert.Equal(t, []string{services.EventProductRestocked}, f.events.keys)
	f.products.AssertExpectations(t)
}

func TestProductService_RestockProduct_RollsBackOnFailure(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil).Once()
	f.products.On("CreateRestock", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.products.On("UpdateProductStock", mock.Anything, mock.Anything, "p1", 5).Return(nil).Once()
	f.products.On("CreateStockMovement", mock.Anything, mock.Anything, mock.Anything).Return(errDB).Once()

	_, err := f.service.RestockProduct(context.Background(), "p1", 5, nil, nil)

	assert.ErrorIs(t, err, errDB)
	assert.Equal(t, apperrors.Internal, apperrors.KindOf(err))
	assert.Equal(t, 1, f.tx.rollbacks)
	assert.Zero(t, f.tx.commits)
	assert.Empty(t, f.events.keys)
}

func TestProductService_RestockProduct_UnknownProduct(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "99").Return(nil, repositories.ErrProductNotFound).Once()

	_, err := f.service.RestockProduct(context.Background(), "99", 5, nil, nil)

	assert.True(t, apperrors.Is(err, apperrors.NotFound))
	f.products.AssertNotCalled(t, "CreateRestock", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_DeleteProduct(t *testing.T) {
	f := newServiceFixture()

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "1").Return(&models.Product{ID: "1"}, nil).Once()
	f.products.On("DeleteProduct", mock.Anything, mock.Anything, "1").Return(nil).Once()
	err := f.service.DeleteProduct(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, []string{services.EventProductDeleted}, f.events.keys)

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "99").Return(nil, repositories.ErrProductNotFound).Once()
	err = f.service.DeleteProduct(context.Background(), "99")
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
	f.products.AssertNumberOfCalls(t, "DeleteProduct", 1)
}

func TestProductService_PublishFailureDoesNotFailOperation(t *testing.T) {
	f := newServiceFixture()
	f.events.err = errDB

	f.products.On("FindProductByID", mock.Anything, mock.Anything, "1").Return(&models.Product{ID: "1"}, nil).Once()
	f.products.On("DeleteProduct", mock.Anything, mock.Anything, "1").Return(nil).Once()

	assert.NoError(t, f.service.DeleteProduct(context.Background(), "1"))
	assert.Equal(t, 1, f.tx.commits)
}

func TestProductService_BeginFailure(t *testing.T) {
	f := newServiceFixture()
	f.tx.beginErr = errDB

	err := f.service.DeleteProduct(context.Background(), "1")

	assert.ErrorIs(t, err, errDB)
	assert.Equal(t, 500, apperrors.StatusOf(err))
}
