// internal/models/product.go
package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string          `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	Category    StringArray     `json:"category"`
	SKU         string          `json:"sku" gorm:"size:300;index"`
	Color       string          `json:"color" gorm:"size:100"`
	Size        string          `json:"size" gorm:"size:50"`
	Rating      decimal.Decimal `json:"rating" gorm:"type:decimal(2,1);not null;default:0"`
	Description string          `json:"description" gorm:"type:text"`
	Image       string          `json:"image" gorm:"size:1024"`
	Images      StringArray     `json:"images"`

	// Relationships
	Reviews []ProductReview `json:"reviews,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// BuildSKU derives the stock keeping unit from the product name and id,
// e.g. "Home Jersey 24" with id 7 -> "HOME-JERSEY-24-7".
func BuildSKU(name string, id uint) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(name, "-"), "-")
	if slug == "" {
		return fmt.Sprintf("P-%d", id)
	}
	return fmt.Sprintf("%s-%d", strings.ToUpper(slug), id)
}
