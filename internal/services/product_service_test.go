package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/models"
	"github.com/javajoker/fanstore-backend/internal/testutil"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ProductService
	ctx     context.Context
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.service = NewProductService(s.db)
	s.ctx = context.Background()
}

func (s *ProductServiceTestSuite) create(name, price string, stock int, category ...string) *models.Product {
	p, err := s.service.CreateProduct(s.ctx, &CreateProductRequest{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: category,
	})
	s.Require().NoError(err)
	return p
}

func (s *ProductServiceTestSuite) TestCreateDerivesSKU() {
	p := s.create("Away Jersey 24/25", "89.90", 5, "jerseys")

	s.Equal(models.BuildSKU("Away Jersey 24/25", p.ID), p.SKU)

	stored, err := s.service.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.SKU, stored.SKU)
	s.Equal([]string{"jerseys"}, []string(stored.Category))
	s.True(stored.Rating.IsZero())
}

func (s *ProductServiceTestSuite) TestCreateRejectsDuplicateNameAndBadPrice() {
	s.create("Scarf", "20", 1)

	_, err := s.service.CreateProduct(s.ctx, &CreateProductRequest{Name: "scarf", Price: decimal.NewFromInt(10)})
	s.ErrorIs(err, ErrConflict)

	_, err = s.service.CreateProduct(s.ctx, &CreateProductRequest{Name: "Cap", Price: decimal.Zero})
	s.ErrorIs(err, ErrValidation)

	_, err = s.service.CreateProduct(s.ctx, &CreateProductRequest{Name: "  ", Price: decimal.NewFromInt(10)})
	s.ErrorIs(err, ErrValidation)
}

func (s *ProductServiceTestSuite) TestUpdateRenameRederivesSKU() {
	p := s.create("Scarf", "20", 1)

	name := "Winter Scarf"
	price := decimal.RequireFromString("25.50")
	updated, err := s.service.UpdateProduct(s.ctx, p.ID, &UpdateProductRequest{Name: &name, Price: &price})
	s.Require().NoError(err)
	s.Equal("Winter Scarf", updated.Name)
	s.Equal(models.BuildSKU(name, p.ID), updated.SKU)
	s.True(updated.Price.Equal(price))

	other := s.create("Cap", "15", 1)
	_, err = s.service.UpdateProduct(s.ctx, other.ID, &UpdateProductRequest{Name: &name})
	s.ErrorIs(err, ErrConflict)

	_, err = s.service.UpdateProduct(s.ctx, 999, &UpdateProductRequest{Name: &name})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductServiceTestSuite) TestDeleteBlockedByOrderHistory() {
	p := s.create("Scarf", "20", 1)
	carts := NewCartService(s.db, NewIdentityResolver())
	orders := NewOrderService(s.db, nil, testWhatsApp)

	_, err := carts.Add(s.ctx, GuestIdentity("guest-1"), &AddToCartRequest{ProductID: p.ID})
	s.Require().NoError(err)
	_, err = orders.Checkout(s.ctx, GuestIdentity("guest-1"), checkoutRequest())
	s.Require().NoError(err)

	s.ErrorIs(s.service.DeleteProduct(s.ctx, p.ID), ErrConflict)
	_, err = s.service.GetProduct(s.ctx, p.ID)
	s.NoError(err)
}

func (s *ProductServiceTestSuite) TestDeleteRemovesCartItemsAndReviews() {
	p := s.create("Scarf", "20", 1)
	user := testutil.CreateUser(s.T(), s.db, "fan@example.com")

	_, err := NewCartService(s.db, NewIdentityResolver()).Add(s.ctx, GuestIdentity("guest-1"), &AddToCartRequest{ProductID: p.ID})
	s.Require().NoError(err)
	_, err = NewReviewService(s.db).Create(s.ctx, user.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 4})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteProduct(s.ctx, p.ID))

	var carts, reviews int64
	s.Require().NoError(s.db.Model(&models.CartItem{}).Count(&carts).Error)
	s.Require().NoError(s.db.Model(&models.ProductReview{}).Count(&reviews).Error)
	s.Zero(carts)
	s.Zero(reviews)

	_, err = s.service.GetProduct(s.ctx, p.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.service.DeleteProduct(s.ctx, p.ID), ErrNotFound)
}

func (s *ProductServiceTestSuite) TestSearchFilters() {
	s.create("Home Jersey", "100", 3, "jerseys", "home")
	s.create("Away Jersey", "90", 0, "jerseys")
	s.create("Scarf", "20", 9, "accessories")

	products, total, err := s.service.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: utils.PaginationParams{Category: "jerseys", Sort: "price", Order: "asc"},
	})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Require().Len(products, 2)
	s.Equal("Away Jersey", products[0].Name)

	inStock := true
	products, total, err = s.service.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: utils.PaginationParams{Category: "jerseys"},
		InStock:          &inStock,
	})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("Home Jersey", products[0].Name)

	maxPrice := decimal.NewFromInt(50)
	products, total, err = s.service.SearchProducts(s.ctx, ProductSearchParams{PriceMax: &maxPrice})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("Scarf", products[0].Name)

	products, total, err = s.service.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: utils.PaginationParams{Search: "jersey", Limit: 1, Page: 2, Sort: "name", Order: "asc"},
	})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Require().Len(products, 1)
	s.Equal("Home Jersey", products[0].Name)
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}
