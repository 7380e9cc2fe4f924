// internal/models/cart.go
package models

import "github.com/shopspring/decimal"

// CartItem is one line of an owner's cart. Exactly one of UserID and GuestID
// is set; use SetOwner and Owner rather than the columns directly.
type CartItem struct {
	BaseModel
	UserID    *uint   `json:"userId,omitempty" gorm:"index;uniqueIndex:idx_cart_user_product"`
	GuestID   *string `json:"guestId,omitempty" gorm:"size:64;index;uniqueIndex:idx_cart_guest_product;check:chk_cart_items_owner,(user_id IS NULL) <> (guest_id IS NULL)"`
	ProductID uint    `json:"productId" gorm:"not null;uniqueIndex:idx_cart_user_product;uniqueIndex:idx_cart_guest_product"`
	Quantity  int     `json:"quantity" gorm:"not null;default:1;check:chk_cart_items_quantity,quantity >= 1"`
	Size      string  `json:"size" gorm:"size:50"`
	Color     string  `json:"color" gorm:"size:100"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (c *CartItem) Owner() Owner {
	return ownerFromColumns(c.UserID, c.GuestID)
}

func (c *CartItem) SetOwner(o Owner) {
	c.UserID, c.GuestID = o.columns()
}

// CartLine is a cart item joined with the live product snapshot.
type CartLine struct {
	ID        uint            `json:"id"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	ProductID uint            `json:"productId"`
	SKU       string          `json:"sku"`
}
