// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/fanstore-backend/internal/database"
	"github.com/javajoker/fanstore-backend/internal/models"
)

type CartService struct {
	db       *gorm.DB
	identity *IdentityResolver
}

type AddToCartRequest struct {
	ProductID uint   `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=0"`
	Size      string `json:"size,omitempty" validate:"max=50"`
	Color     string `json:"color,omitempty" validate:"max=100"`
}

type AddToCartResult struct {
	Item *models.CartItem
	// GuestID is the guest id the caller must send on later requests; it is
	// newly minted when Minted is true.
	GuestID string
	Minted  bool
}

func NewCartService(db *gorm.DB, identity *IdentityResolver) *CartService {
	return &CartService{
		db:       db,
		identity: identity,
	}
}

// List returns the owner's cart joined with live product data.
func (s *CartService) List(ctx context.Context, id Identity) ([]models.CartLine, error) {
	owner, err := s.identity.ResolveForRead(id)
	if err != nil {
		return nil, err
	}
	lines, err := loadCartLines(s.db.WithContext(ctx), owner, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return lines, nil
}

// Add puts a product in the cart. A second add of the same product for the
// same owner increments the existing line; size and color are not part of
// that match.
func (s *CartService) Add(ctx context.Context, id Identity, req *AddToCartRequest) (*AddToCartResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	owner, minted := s.identity.ResolveForWrite(id)

	var item *models.CartItem
	var err error
	// A concurrent first add for the same (owner, product) loses the unique
	// index race; the retry then finds the row and increments it.
	for attempt := 0; attempt < 2; attempt++ {
		item, err = s.add(ctx, owner, req)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	result := &AddToCartResult{Item: item, GuestID: id.GuestID, Minted: minted}
	if guestID, ok := owner.GuestID(); ok {
		result.GuestID = guestID
	}
	return result, nil
}

func (s *CartService) add(ctx context.Context, owner models.Owner, req *AddToCartRequest) (*models.CartItem, error) {
	var item models.CartItem
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, req.ProductID).Error; err != nil {
			if isNotFound(err) {
				return notFound("product")
			}
			return fmt.Errorf("failed to load product: %w", err)
		}

		cond, arg := models.OwnerCondition(owner)
		err := forUpdate(tx, "").Where(cond, arg).Where("product_id = ?", req.ProductID).First(&item).Error
		switch {
		case err == nil:
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", req.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
			return tx.First(&item, item.ID).Error
		case isNotFound(err):
			item = models.CartItem{
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				Size:      req.Size,
				Color:     req.Color,
			}
			item.SetOwner(owner)
			if err := tx.Create(&item).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				return fmt.Errorf("failed to create cart item: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("failed to load cart item: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ChangeQuantity applies a signed step to an item's quantity. The result
// must stay at or above 1; a step that would go lower is rejected and the
// item is left as it was.
func (s *CartService) ChangeQuantity(ctx context.Context, itemID uint, delta int, id Identity) (*models.CartItem, error) {
	if delta == 0 {
		return nil, validationError("change must be a non-zero step")
	}

	var item models.CartItem
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := s.loadOwned(tx, itemID, id, &item); err != nil {
			return err
		}

		// Single-statement read-modify-write so concurrent steps on the same
		// row cannot lose updates.
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND quantity + ? >= 1", item.ID, delta).
			Update("quantity", gorm.Expr("quantity + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("failed to update cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &ServiceError{Kind: ErrQuantityFloor}
		}
		return tx.First(&item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes one cart item and returns its id.
func (s *CartService) Remove(ctx context.Context, itemID uint, id Identity) (uint, error) {
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var item models.CartItem
		if err := s.loadOwned(tx, itemID, id, &item); err != nil {
			return err
		}
		if err := tx.Delete(&models.CartItem{}, item.ID).Error; err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return itemID, nil
}

// loadOwned reads the item, reporting a missing row before checking
// ownership.
func (s *CartService) loadOwned(tx *gorm.DB, itemID uint, id Identity, item *models.CartItem) error {
	if err := forUpdate(tx, "").First(item, itemID).Error; err != nil {
		if isNotFound(err) {
			return notFound("cart_item")
		}
		return fmt.Errorf("failed to load cart item: %w", err)
	}
	if !id.Owns(item.Owner()) {
		logrus.WithFields(logrus.Fields{
			"cart_item_id": item.ID,
			"owner":        item.Owner().String(),
		}).Warn("Rejected cart mutation by non-owner")
		return unauthorized("you are not allowed to modify this cart item")
	}
	return nil
}

// MergeGuestCart moves a guest's cart onto a user after sign-in. Lines for a
// product the user already has are folded into the user's line.
func (s *CartService) MergeGuestCart(ctx context.Context, guestID string, userID uint) ([]models.CartLine, error) {
	if guestID == "" {
		return nil, validationError("guestId is required")
	}
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var guestItems []models.CartItem
		if err := forUpdate(tx, "").Where("guest_id = ?", guestID).Order("id").Find(&guestItems).Error; err != nil {
			return fmt.Errorf("failed to load guest cart: %w", err)
		}

		for _, gi := range guestItems {
			var existing models.CartItem
			err := forUpdate(tx, "").Where("user_id = ? AND product_id = ?", userID, gi.ProductID).First(&existing).Error
			switch {
			case err == nil:
				if err := tx.Model(&existing).Update("quantity", gorm.Expr("quantity + ?", gi.Quantity)).Error; err != nil {
					return fmt.Errorf("failed to merge cart item: %w", err)
				}
				if err := tx.Delete(&models.CartItem{}, gi.ID).Error; err != nil {
					return fmt.Errorf("failed to delete guest cart item: %w", err)
				}
			case isNotFound(err):
				if err := tx.Model(&gi).Updates(map[string]interface{}{"user_id": userID, "guest_id": nil}).Error; err != nil {
					return fmt.Errorf("failed to move guest cart item: %w", err)
				}
			default:
				return fmt.Errorf("failed to load cart item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.List(ctx, UserIdentity(userID))
}

// loadCartLines joins the owner's items with live product data. lock takes
// row locks on the cart items where the dialect supports it.
func loadCartLines(tx *gorm.DB, owner models.Owner, lock bool) ([]models.CartLine, error) {
	cond, arg := models.OwnerCondition(owner)
	q := tx.Table("cart_items").
		Select("cart_items.id, cart_items.quantity, cart_items.color, cart_items.size, " +
			"products.name, products.price, products.image, cart_items.product_id, products.sku").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items."+cond, arg).
		Order("cart_items.id ASC")
	if lock {
		q = forUpdate(q, "cart_items")
	}

	lines := []models.CartLine{}
	if err := q.Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// forUpdate adds SELECT ... FOR UPDATE on PostgreSQL. SQLite serializes
// writers on its own and has no row locks.
func forUpdate(tx *gorm.DB, table string) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	locking := clause.Locking{Strength: "UPDATE"}
	if table != "" {
		locking.Table = clause.Table{Name: table}
	}
	return tx.Clauses(locking)
}
