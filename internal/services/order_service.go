// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/database"
	"github.com/javajoker/fanstore-backend/internal/models"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type OrderService struct {
	db       *gorm.DB
	notifier OrderNotifier
	whatsApp config.WhatsAppConfig
}

type CheckoutRequest struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Address     string `json:"address" validate:"required,notblank,max=1000"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	// IdempotencyKey makes a retried checkout return the first order.
	IdempotencyKey string `json:"-" validate:"max=100"`
}

type CheckoutResult struct {
	Order  *models.Order
	WaLink string
	// Replayed is true when the idempotency key matched an earlier order
	// and nothing was written.
	Replayed bool
}

type OrderItemInput struct {
	ProductID uint             `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Color     string           `json:"color,omitempty" validate:"max=100"`
	Size      string           `json:"size,omitempty" validate:"max=50"`
}

type UpdateOrderRequest struct {
	Status *models.OrderStatus `json:"status,omitempty"`
	// Items, when present, replaces every item of the order.
	Items []OrderItemInput `json:"items,omitempty" validate:"omitempty,dive"`
}

type OrderFilter struct {
	utils.PaginationParams
	Status *models.OrderStatus
}

func NewOrderService(db *gorm.DB, notifier OrderNotifier, whatsApp config.WhatsAppConfig) *OrderService {
	return &OrderService{
		db:       db,
		notifier: notifier,
		whatsApp: whatsApp,
	}
}

// Checkout turns the owner's cart into an order.
//
// The order and its items are created and the converted cart lines deleted
// in one transaction; the cart is only touched after the order insert
// succeeded. Notification runs after commit and cannot fail the checkout.
func (s *OrderService) Checkout(ctx context.Context, id Identity, req *CheckoutRequest) (*CheckoutResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	owner, err := id.Owner()
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if !id.Owns(existing.Owner()) {
				return nil, conflict("idempotency key already used")
			}
			return &CheckoutResult{Order: existing, WaLink: s.whatsAppLink(existing), Replayed: true}, nil
		}
	}

	var placed models.Order
	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		lines, err := loadCartLines(tx, owner, true)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(lines) == 0 {
			return &ServiceError{Kind: ErrEmptyCart}
		}

		// Prices are taken once, here, and frozen into the items.
		items := make([]models.OrderItem, 0, len(lines))
		lineIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
				Color:     line.Color,
				Size:      line.Size,
			})
			lineIDs = append(lineIDs, line.ID)
		}

		order := models.Order{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Address:     req.Address,
			PhoneNumber: req.PhoneNumber,
			TotalAmount: models.SumItems(items),
			Status:      models.OrderStatusPending,
			Items:       items,
		}
		order.SetOwner(owner)
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			order.IdempotencyKey = &key
		}

		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) && req.IdempotencyKey != "" {
				return conflict("checkout already in progress for this idempotency key")
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		cond, arg := models.OwnerCondition(owner)
		if err := tx.Where(cond, arg).Where("id IN ?", lineIDs).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Committed. A failed reload falls back to the in-transaction copy.
	order, err := s.loadOrder(s.db.WithContext(ctx), placed.ID)
	if err != nil {
		logrus.WithError(err).WithField("order_id", placed.ID).Warn("Failed to reload placed order")
		order = &placed
	}

	s.notify(ctx, order)

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"owner":    owner.String(),
		"total":    order.TotalAmount.String(),
		"items":    len(order.Items),
	}).Info("Order placed")

	return &CheckoutResult{Order: order, WaLink: s.whatsAppLink(order)}, nil
}

// notify is the post-commit phase; failures are logged only.
func (s *OrderService) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("order_id", order.ID).Errorf("Order notification panicked: %v", r)
		}
	}()
	if err := s.notifier.OrderPlaced(ctx, order); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to send order notification")
	}
}

func (s *OrderService) whatsAppLink(order *models.Order) string {
	return BuildWhatsAppLink(s.whatsApp.BusinessPhone, OrderSummary(s.whatsApp.StoreName, order))
}

func (s *OrderService) findByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items.Product").Where("idempotency_key = ?", key).First(&order).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return &order, nil
}

// ListForOwner returns the caller's orders, newest first.
func (s *OrderService) ListForOwner(ctx context.Context, id Identity) ([]models.Order, error) {
	owner, err := id.Owner()
	if err != nil {
		return nil, err
	}

	cond, arg := models.OwnerCondition(owner)
	orders := []models.Order{}
	if err := s.db.WithContext(ctx).Preload("Items.Product").
		Where(cond, arg).Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID uint, id Identity, isAdmin bool) (*models.Order, error) {
	order, err := s.loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !id.Owns(order.Owner()) {
		return nil, unauthorized("you are not allowed to access this order")
	}
	return order, nil
}

// ListOrders is the admin listing.
func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, validationError("invalid status %q", *filter.Status)
	}
	filter.PaginationParams = utils.NormalizePagination(filter.PaginationParams)

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("email LIKE ? OR phone_number LIKE ? OR last_name LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := []models.Order{}
	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "updated_at", "total_amount", "status"})
	if err := utils.ApplyPagination(query, filter.PaginationParams).Preload("Items.Product").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrder is the admin mutation: a status change, a wholesale item
// replacement, or both. Everything is validated before the first write.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID uint, req *UpdateOrderRequest) (*models.Order, error) {
	if req.Status == nil && req.Items == nil {
		return nil, validationError("status or items is required")
	}
	if req.Items != nil && len(req.Items) == 0 {
		return nil, validationError("items must not be empty")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var order models.Order
		if err := forUpdate(tx, "").First(&order, orderID).Error; err != nil {
			if isNotFound(err) {
				return notFound("order")
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		updates := map[string]interface{}{}
		if req.Status != nil {
			if !order.Status.CanTransitionTo(*req.Status) {
				return validationError("invalid status %q", *req.Status)
			}
			updates["status"] = *req.Status
		}

		if req.Items != nil {
			items, err := s.buildItems(tx, order.ID, req.Items)
			if err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return fmt.Errorf("failed to delete order items: %w", err)
			}
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to create order items: %w", err)
			}
			updates["total_amount"] = models.SumItems(items)
		}

		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadOrder(s.db.WithContext(ctx), orderID)
}

// buildItems prices replacement items from the submitted price, or from
// the product's current price when none is given.
func (s *OrderService) buildItems(tx *gorm.DB, orderID uint, inputs []OrderItemInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		var product models.Product
		if err := tx.Select("id", "price").First(&product, in.ProductID).Error; err != nil {
			if isNotFound(err) {
				return nil, notFound("product")
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}

		price := product.Price
		if in.Price != nil {
			if in.Price.IsNegative() {
				return nil, validationError("price must not be negative")
			}
			price = *in.Price
		}
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     price,
			Color:     in.Color,
			Size:      in.Size,
		})
	}
	return items, nil
}

func (s *OrderService) loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).Preload("Items.Product").First(&order, orderID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("order")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}
