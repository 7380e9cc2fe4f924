// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/models"
)

type AdminService struct {
	db *gorm.DB
}

type AdminDashboardStats struct {
	TotalProducts  int64                        `json:"totalProducts"`
	OutOfStock     int64                        `json:"outOfStock"`
	TotalOrders    int64                        `json:"totalOrders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"ordersByStatus"`
	// Revenue sums every order that was not cancelled.
	Revenue      decimal.Decimal `json:"revenue"`
	TotalReviews int64           `json:"totalReviews"`
	OpenCarts    int64           `json:"openCarts"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{
		OrdersByStatus: make(map[models.OrderStatus]int64, len(models.OrderStatuses)),
	}

	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Model(&models.Product{}).Where("stock = 0").Count(&stats.OutOfStock).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Model(&models.ProductReview{}).Count(&stats.TotalReviews).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var byStatus []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	for _, status := range models.OrderStatuses {
		stats.OrdersByStatus[status] = 0
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	// Summed in Go so the decimal stays exact on every dialect.
	var totals []decimal.Decimal
	if err := db.Model(&models.Order{}).Where("status <> ?", models.OrderStatusCancelled).
		Pluck("total_amount", &totals).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.Revenue = decimal.Sum(decimal.Zero, totals...)

	if err := db.Model(&models.CartItem{}).
		Select("COUNT(DISTINCT COALESCE(CAST(user_id AS TEXT), guest_id))").
		Scan(&stats.OpenCarts).Error; err != nil {
		return nil, fmt.Errorf("failed to count carts: %w", err)
	}

	return stats, nil
}
