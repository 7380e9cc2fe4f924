// internal/models/order.go
package models

import (
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Order is an immutable snapshot of a cart at checkout. Ownership follows
// the same user-or-guest rule as CartItem.
type Order struct {
	BaseModel
	UserID         *uint           `json:"userId,omitempty" gorm:"index"`
	GuestID        *string         `json:"guestId,omitempty" gorm:"size:64;index;check:chk_orders_owner,(user_id IS NULL) <> (guest_id IS NULL)"`
	FirstName      string          `json:"firstName" gorm:"size:100"`
	LastName       string          `json:"lastName" gorm:"size:100"`
	Email          string          `json:"email" gorm:"size:255;not null"`
	Address        string          `json:"address" gorm:"type:text;not null"`
	PhoneNumber    string          `json:"phoneNumber" gorm:"size:50;not null"`
	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	IdempotencyKey *string         `json:"-" gorm:"size:100;uniqueIndex"`

	// Relationships
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) Owner() Owner {
	return ownerFromColumns(o.UserID, o.GuestID)
}

func (o *Order) SetOwner(owner Owner) {
	o.UserID, o.GuestID = owner.columns()
}

// OrderItem.Price is the unit price captured when the item was written; it
// never follows later product price changes.
type OrderItem struct {
	BaseModel
	OrderID   uint            `json:"orderId" gorm:"not null;index"`
	ProductID uint            `json:"productId" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null;check:chk_order_items_quantity,quantity >= 1"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Color     string          `json:"color" gorm:"size:100"`
	Size      string          `json:"size" gorm:"size:50"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems totals the subtotals of items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CanTransitionTo reports whether an order in s may be moved to next.
// Any valid status may follow any other; only unknown values are refused.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return next.Valid()
}
