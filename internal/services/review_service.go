// internal/services/review_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/database"
	"github.com/javajoker/fanstore-backend/internal/models"
)

type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	ProductID   uint   `json:"productId" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewTitle string `json:"reviewTitle" validate:"max=255"`
	ReviewDec   string `json:"reviewDec" validate:"max=5000"`
}

type UpdateReviewRequest struct {
	Rating      *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	ReviewTitle *string `json:"reviewTitle,omitempty" validate:"omitempty,max=255"`
	ReviewDec   *string `json:"reviewDec,omitempty" validate:"omitempty,max=5000"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Create stores a user's single review of a product and refreshes the
// product's rating in the same transaction.
func (s *ReviewService) Create(ctx context.Context, userID uint, req *CreateReviewRequest) (*models.ProductReview, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var review models.ProductReview
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		// Locking the product row serializes rating recomputation per product.
		if err := lockProduct(tx, req.ProductID); err != nil {
			return err
		}

		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			if isNotFound(err) {
				return notFound("user")
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		var count int64
		if err := tx.Model(&models.ProductReview{}).
			Where("product_id = ? AND user_id = ?", req.ProductID, userID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if count > 0 {
			return &ServiceError{Kind: ErrDuplicateReview, Message: "you have already reviewed this product"}
		}

		review = models.ProductReview{
			ProductID:   req.ProductID,
			UserID:      userID,
			Rating:      req.Rating,
			ReviewTitle: req.ReviewTitle,
			ReviewDec:   req.ReviewDec,
		}
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ServiceError{Kind: ErrDuplicateReview, Message: "you have already reviewed this product"}
			}
			return fmt.Errorf("failed to create review: %w", err)
		}

		_, err := recomputeRating(tx, req.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Update lets the author change a review.
func (s *ReviewService) Update(ctx context.Context, reviewID, userID uint, req *UpdateReviewRequest) (*models.ProductReview, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var review models.ProductReview
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := s.loadOwned(tx, reviewID, userID, &review); err != nil {
			return err
		}
		if err := lockProduct(tx, review.ProductID); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Rating != nil {
			updates["rating"] = *req.Rating
		}
		if req.ReviewTitle != nil {
			updates["review_title"] = *req.ReviewTitle
		}
		if req.ReviewDec != nil {
			updates["review_dec"] = *req.ReviewDec
		}
		if len(updates) > 0 {
			if err := tx.Model(&review).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update review: %w", err)
			}
		}

		if _, err := recomputeRating(tx, review.ProductID); err != nil {
			return err
		}
		return tx.First(&review, review.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete removes the author's review and refreshes the product rating.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}

	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var review models.ProductReview
		if err := s.loadOwned(tx, reviewID, userID, &review); err != nil {
			return err
		}
		if err := lockProduct(tx, review.ProductID); err != nil {
			return err
		}
		if err := tx.Delete(&models.ProductReview{}, review.ID).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		_, err := recomputeRating(tx, review.ProductID)
		return err
	})
}

// ListForProduct returns a product's reviews, newest first, with the summary.
func (s *ReviewService) ListForProduct(ctx context.Context, productID uint) ([]models.ProductReview, *models.ReviewSummary, error) {
	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.Select("id", "rating").First(&product, productID).Error; err != nil {
		if isNotFound(err) {
			return nil, nil, notFound("product")
		}
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}

	reviews := []models.ProductReview{}
	if err := db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name")
	}).Where("product_id = ?", productID).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	summary := &models.ReviewSummary{
		AverageRating: product.Rating.InexactFloat64(),
		TotalCount:    int64(len(reviews)),
	}
	return reviews, summary, nil
}

func (s *ReviewService) loadOwned(tx *gorm.DB, reviewID, userID uint, review *models.ProductReview) error {
	if err := tx.First(review, reviewID).Error; err != nil {
		if isNotFound(err) {
			return notFound("review")
		}
		return fmt.Errorf("failed to load review: %w", err)
	}
	if review.UserID != userID {
		return unauthorized("you are not allowed to modify this review")
	}
	return nil
}

func lockProduct(tx *gorm.DB, productID uint) error {
	var product models.Product
	if err := forUpdate(tx, "").Select("id").First(&product, productID).Error; err != nil {
		if isNotFound(err) {
			return notFound("product")
		}
		return fmt.Errorf("failed to load product: %w", err)
	}
	return nil
}

// recomputeRating sets the product rating to the mean of its current
// reviews, rounded half away from zero to one decimal, or 0 without reviews.
func recomputeRating(tx *gorm.DB, productID uint) (decimal.Decimal, error) {
	var agg struct {
		Total int64
		Count int64
	}
	if err := tx.Model(&models.ProductReview{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	rating := MeanRating(agg.Total, agg.Count)
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Update("rating", rating).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to update product rating: %w", err)
	}
	return rating, nil
}

// MeanRating is total/count rounded to one decimal; 0 when count is 0.
func MeanRating(total, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(count)).Round(1)
}
