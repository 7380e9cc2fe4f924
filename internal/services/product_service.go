// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/database"
	"github.com/javajoker/fanstore-backend/internal/models"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	Category    []string        `json:"category,omitempty"`
	Color       string          `json:"color,omitempty" validate:"max=100"`
	Size        string          `json:"size,omitempty" validate:"max=50"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty" validate:"omitempty,url"`
	Images      []string        `json:"images,omitempty" validate:"omitempty,dive,url"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Category    []string         `json:"category,omitempty"`
	Color       *string          `json:"color,omitempty" validate:"omitempty,max=100"`
	Size        *string          `json:"size,omitempty" validate:"omitempty,max=50"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty" validate:"omitempty,url"`
	Images      []string         `json:"images,omitempty" validate:"omitempty,dive,url"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	InStock  *bool
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// CreateProduct stores a product and derives its SKU from name and id.
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !req.Price.IsPositive() {
		return nil, validationError("price must be greater than 0")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    models.StringArray(req.Category),
		Color:       req.Color,
		Size:        req.Size,
		Description: req.Description,
		Image:       req.Image,
		Images:      models.StringArray(req.Images),
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := s.ensureNameFree(tx, product.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("a product with this name already exists")
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		product.SKU = models.BuildSKU(product.Name, product.ID)
		return tx.Model(product).Update("sku", product.SKU).Error
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// UpdateProduct is the admin edit. The rating is not editable here; renaming
// re-derives the SKU.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, validationError("price must be greater than 0")
	}

	var product models.Product
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if isNotFound(err) {
				return notFound("product")
			}
			return fmt.Errorf("database error: %w", err)
		}

		// Prepare updates
		updates := make(map[string]interface{})
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if err := s.ensureNameFree(tx, name, product.ID); err != nil {
				return err
			}
			updates["name"] = name
			updates["sku"] = models.BuildSKU(name, product.ID)
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.Stock != nil {
			updates["stock"] = *req.Stock
		}
		if req.Category != nil {
			updates["category"] = models.StringArray(req.Category)
		}
		if req.Color != nil {
			updates["color"] = *req.Color
		}
		if req.Size != nil {
			updates["size"] = *req.Size
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Image != nil {
			updates["image"] = *req.Image
		}
		if req.Images != nil {
			updates["images"] = models.StringArray(req.Images)
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("a product with this name already exists")
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return tx.First(&product, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct refuses while any order item references the product, so
// order history keeps its lines. Cart items and reviews go with it.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var product models.Product
		if err := forUpdate(tx, "").Select("id").First(&product, id).Error; err != nil {
			if isNotFound(err) {
				return notFound("product")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var referenced int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&referenced).Error; err != nil {
			return fmt.Errorf("failed to check order items: %w", err)
		}
		if referenced > 0 {
			return conflict("product is referenced by existing orders")
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart items: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductReview{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	params.PaginationParams = utils.NormalizePagination(params.PaginationParams)
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.Search != "" {
		like := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if params.InStock != nil {
		if *params.InStock {
			query = query.Where("stock > 0")
		} else {
			query = query.Where("stock = 0")
		}
	}

	var products []models.Product
	if params.Category != "" && query.Dialector.Name() == "postgres" {
		query = query.Where("? = ANY(category)", params.Category)
	} else if params.Category != "" {
		// Without native arrays the set is matched after decoding.
		if err := utils.ApplySort(query, params.PaginationParams, productSortFields).Find(&products).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to search products: %w", err)
		}
		return paginateByCategory(products, params)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, productSortFields)
	if err := utils.ApplyPagination(query, params.PaginationParams).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

var productSortFields = []string{"created_at", "price", "name", "rating", "stock"}

func paginateByCategory(products []models.Product, params ProductSearchParams) ([]models.Product, int64, error) {
	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category.Contains(params.Category) {
			matched = append(matched, p)
		}
	}

	total := int64(len(matched))
	start := (params.Page - 1) * params.Limit
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *ProductService) ensureNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Product{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product name: %w", err)
	}
	if count > 0 {
		return conflict("a product with this name already exists")
	}
	return nil
}
