// internal/models/review.go
package models

type ProductReview struct {
	BaseModel
	ProductID   uint   `json:"productId" gorm:"not null;uniqueIndex:idx_reviews_product_user"`
	UserID      uint   `json:"userId" gorm:"not null;uniqueIndex:idx_reviews_product_user;index"`
	Rating      int    `json:"rating" gorm:"not null;check:chk_product_reviews_rating,rating BETWEEN 1 AND 5"`
	ReviewTitle string `json:"reviewTitle" gorm:"size:255"`
	ReviewDec   string `json:"reviewDec" gorm:"type:text"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// ReviewSummary is the aggregate shown next to a product's reviews.
type ReviewSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalCount    int64   `json:"totalCount"`
}
