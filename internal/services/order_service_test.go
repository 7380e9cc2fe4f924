package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/models"
	"github.com/javajoker/fanstore-backend/internal/testutil"
)

type recordingNotifier struct {
	orders []uint
	err    error
	panics bool
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) error {
	n.orders = append(n.orders, order.ID)
	if n.panics {
		panic("mail relay exploded")
	}
	return n.err
}

type OrderServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	carts    *CartService
	orders   *OrderService
	notifier *recordingNotifier
	ctx      context.Context
	jersey   *models.Product
	scarf    *models.Product
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.notifier = &recordingNotifier{}
	s.carts = NewCartService(s.db, NewIdentityResolver())
	s.orders = NewOrderService(s.db, s.notifier, testWhatsApp)
	s.ctx = context.Background()
	s.jersey = testutil.CreateProduct(s.T(), s.db, "Home Jersey", "100")
	s.scarf = testutil.CreateProduct(s.T(), s.db, "Scarf", "50")
}

func (s *OrderServiceTestSuite) fillCart(id Identity) {
	_, err := s.carts.Add(s.ctx, id, &AddToCartRequest{ProductID: s.jersey.ID, Quantity: 2})
	s.Require().NoError(err)
	_, err = s.carts.Add(s.ctx, id, &AddToCartRequest{ProductID: s.scarf.ID, Quantity: 1})
	s.Require().NoError(err)
}

var testWhatsApp = config.WhatsAppConfig{BusinessPhone: "+1 555 0100", StoreName: "Fan Store"}

func checkoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		FirstName:   "Ana",
		LastName:    "Lopez",
		Email:       "ana@example.com",
		Address:     "Calle 1, Madrid",
		PhoneNumber: "+34 600 000 000",
	}
}

func (s *OrderServiceTestSuite) cartSize(id Identity) int {
	lines, err := s.carts.List(s.ctx, id)
	s.Require().NoError(err)
	return len(lines)
}

func (s *OrderServiceTestSuite) TestCheckoutTotalsAndFrozenPrices() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)

	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)

	order := res.Order
	s.True(order.TotalAmount.Equal(decimal.NewFromInt(250)), "total %s", order.TotalAmount)
	s.Equal(models.OrderStatusPending, order.Status)
	s.Require().Len(order.Items, 2)
	s.True(order.Items[0].Price.Equal(decimal.NewFromInt(100)))
	s.Equal(2, order.Items[0].Quantity)
	s.True(order.Items[1].Price.Equal(decimal.NewFromInt(50)))

	// Later price changes do not reach the order.
	s.Require().NoError(s.db.Model(s.jersey).Update("price", decimal.NewFromInt(120)).Error)
	reloaded, err := s.orders.GetOrder(s.ctx, order.ID, guest, false)
	s.Require().NoError(err)
	s.True(reloaded.Items[0].Price.Equal(decimal.NewFromInt(100)))
	s.True(reloaded.TotalAmount.Equal(decimal.NewFromInt(250)))

	s.Zero(s.cartSize(guest))
	s.Equal([]uint{order.ID}, s.notifier.orders)
}

func (s *OrderServiceTestSuite) TestCheckoutKeepsCartWhenOrderInsertFails() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	testutil.FailCreatesOn(s.T(), s.db, "orders", errors.New("disk full"))

	_, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().Error(err)

	s.Equal(2, s.cartSize(guest))
	var count int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&count).Error)
	s.Zero(count)
	s.Empty(s.notifier.orders)
}

func (s *OrderServiceTestSuite) TestCheckoutKeepsCartWhenItemInsertFails() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	testutil.FailCreatesOn(s.T(), s.db, "order_items", errors.New("disk full"))

	_, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().Error(err)

	s.Equal(2, s.cartSize(guest))
	var count int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&count).Error)
	s.Zero(count)
}

func (s *OrderServiceTestSuite) TestCheckoutSucceedsWhenReloadFails() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	testutil.FailNextQueryOn(s.T(), s.db, "orders", errors.New("connection reset"))

	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)
	s.Require().NotNil(res.Order)
	s.NotZero(res.Order.ID)
	s.True(res.Order.TotalAmount.Equal(decimal.NewFromInt(250)))
	s.Len(res.Order.Items, 2)
	s.NotEmpty(res.WaLink)
	s.Equal([]uint{res.Order.ID}, s.notifier.orders)

	s.Zero(s.cartSize(guest))
	var count int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *OrderServiceTestSuite) TestCheckoutEmptyCart() {
	_, err := s.orders.Checkout(s.ctx, GuestIdentity("guest-1"), checkoutRequest())
	s.ErrorIs(err, ErrEmptyCart)
}

func (s *OrderServiceTestSuite) TestCheckoutValidatesBeforeTouchingCart() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)

	for name, mutate := range map[string]func(*CheckoutRequest){
		"missing email":   func(r *CheckoutRequest) { r.Email = "" },
		"malformed email": func(r *CheckoutRequest) { r.Email = "not-an-email" },
		"blank address":   func(r *CheckoutRequest) { r.Address = "   " },
		"missing phone":   func(r *CheckoutRequest) { r.PhoneNumber = "" },
	} {
		s.Run(name, func() {
			req := checkoutRequest()
			mutate(req)
			_, err := s.orders.Checkout(s.ctx, guest, req)
			s.ErrorIs(err, ErrValidation)
			s.Equal(2, s.cartSize(guest))
		})
	}
}

func (s *OrderServiceTestSuite) TestCheckoutWithoutIdentity() {
	_, err := s.orders.Checkout(s.ctx, Identity{}, checkoutRequest())
	s.ErrorIs(err, ErrMissingIdentity)
}

func (s *OrderServiceTestSuite) TestGuestJourney() {
	added, err := s.carts.Add(s.ctx, Identity{}, &AddToCartRequest{ProductID: s.jersey.ID, Quantity: 1})
	s.Require().NoError(err)
	s.Require().True(added.Minted)
	guest := GuestIdentity(added.GuestID)

	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)
	s.True(res.Order.TotalAmount.Equal(s.jersey.Price))
	guestID, ok := res.Order.Owner().GuestID()
	s.True(ok)
	s.Equal(added.GuestID, guestID)

	s.Zero(s.cartSize(guest))
}

func (s *OrderServiceTestSuite) TestCheckoutBuildsWhatsAppLink() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)

	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)

	u, err := url.Parse(res.WaLink)
	s.Require().NoError(err)
	s.Equal("/15550100", u.Path)
	text := u.Query().Get("text")
	s.True(strings.HasPrefix(text, "Fan Store - Order #"))
	s.Contains(text, "Total: 250.00")
}

func (s *OrderServiceTestSuite) TestNotificationFailureDoesNotFailCheckout() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	s.notifier.err = errors.New("smtp: connection refused")

	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)
	s.NotZero(res.Order.ID)
	s.Zero(s.cartSize(guest))
}

func (s *OrderServiceTestSuite) TestNotificationPanicDoesNotFailCheckout() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	s.notifier.panics = true

	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)
	s.NotZero(res.Order.ID)
}

func (s *OrderServiceTestSuite) TestIdempotencyKeyReplaysOrder() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)

	req := checkoutRequest()
	req.IdempotencyKey = "attempt-1"
	first, err := s.orders.Checkout(s.ctx, guest, req)
	s.Require().NoError(err)
	s.False(first.Replayed)

	// The cart is empty now; the replay must not report EmptyCart.
	second, err := s.orders.Checkout(s.ctx, guest, req)
	s.Require().NoError(err)
	s.True(second.Replayed)
	s.Equal(first.Order.ID, second.Order.ID)

	var count int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&count).Error)
	s.EqualValues(1, count)
	s.Len(s.notifier.orders, 1)

	_, err = s.orders.Checkout(s.ctx, GuestIdentity("guest-2"), req)
	s.ErrorIs(err, ErrConflict)
}

func (s *OrderServiceTestSuite) TestListForOwnerNewestFirst() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	first, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)
	s.fillCart(guest)
	second, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)

	orders, err := s.orders.ListForOwner(s.ctx, guest)
	s.Require().NoError(err)
	s.Require().Len(orders, 2)
	s.Equal(second.Order.ID, orders[0].ID)
	s.Equal(first.Order.ID, orders[1].ID)

	other, err := s.orders.ListForOwner(s.ctx, GuestIdentity("guest-2"))
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *OrderServiceTestSuite) TestGetOrderAccess() {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)

	_, err = s.orders.GetOrder(s.ctx, res.Order.ID, GuestIdentity("guest-2"), false)
	s.ErrorIs(err, ErrUnauthorized)

	order, err := s.orders.GetOrder(s.ctx, res.Order.ID, Identity{}, true)
	s.Require().NoError(err)
	s.Equal(res.Order.ID, order.ID)

	_, err = s.orders.GetOrder(s.ctx, 999, guest, false)
	s.ErrorIs(err, ErrNotFound)
}

func (s *OrderServiceTestSuite) placeOrder() *models.Order {
	guest := GuestIdentity("guest-1")
	s.fillCart(guest)
	res, err := s.orders.Checkout(s.ctx, guest, checkoutRequest())
	s.Require().NoError(err)
	return res.Order
}

func (s *OrderServiceTestSuite) TestUpdateOrderStatus() {
	order := s.placeOrder()

	shipped := models.OrderStatusShipped
	updated, err := s.orders.UpdateOrder(s.ctx, order.ID, &UpdateOrderRequest{Status: &shipped})
	s.Require().NoError(err)
	s.Equal(models.OrderStatusShipped, updated.Status)

	// Any valid status may follow any other.
	pending := models.OrderStatusPending
	updated, err = s.orders.UpdateOrder(s.ctx, order.ID, &UpdateOrderRequest{Status: &pending})
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, updated.Status)
}

func (s *OrderServiceTestSuite) TestUpdateOrderRejectsUnknownStatus() {
	order := s.placeOrder()

	bogus := models.OrderStatus("LOST")
	_, err := s.orders.UpdateOrder(s.ctx, order.ID, &UpdateOrderRequest{Status: &bogus})
	s.ErrorIs(err, ErrValidation)

	stored, err := s.orders.GetOrder(s.ctx, order.ID, Identity{}, true)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, stored.Status)
}

func (s *OrderServiceTestSuite) TestUpdateOrderReplacesItems() {
	order := s.placeOrder()

	custom := decimal.RequireFromString("80")
	updated, err := s.orders.UpdateOrder(s.ctx, order.ID, &UpdateOrderRequest{Items: []OrderItemInput{
		{ProductID: s.jersey.ID, Quantity: 1, Price: &custom, Size: "L"},
		{ProductID: s.scarf.ID, Quantity: 3},
	}})
	s.Require().NoError(err)

	s.Require().Len(updated.Items, 2)
	s.True(updated.Items[0].Price.Equal(custom))
	s.Equal("L", updated.Items[0].Size)
	s.True(updated.Items[1].Price.Equal(decimal.NewFromInt(50)))
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(230)), "total %s", updated.TotalAmount)

	var count int64
	s.Require().NoError(s.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error)
	s.EqualValues(2, count)
}

func (s *OrderServiceTestSuite) TestUpdateOrderRejectsEmptyItemsAndUnknownProducts() {
	order := s.placeOrder()

	_, err := s.orders.UpdateOrder(s.ctx, order.ID, &UpdateOrderRequest{Items: []OrderItemInput{}})
	s.ErrorIs(err, ErrValidation)

	_, err = s.orders.UpdateOrder(s.ctx, order.ID, &UpdateOrderRequest{Items: []OrderItemInput{{ProductID: 999, Quantity: 1}}})
	s.ErrorIs(err, ErrNotFound)

	stored, err := s.orders.GetOrder(s.ctx, order.ID, Identity{}, true)
	s.Require().NoError(err)
	s.Len(stored.Items, 2)
	s.True(stored.TotalAmount.Equal(decimal.NewFromInt(250)))
}

func (s *OrderServiceTestSuite) TestUpdateMissingOrder() {
	confirmed := models.OrderStatusConfirmed
	_, err := s.orders.UpdateOrder(s.ctx, 999, &UpdateOrderRequest{Status: &confirmed})
	s.ErrorIs(err, ErrNotFound)
}

func (s *OrderServiceTestSuite) TestListOrdersFiltersByStatus() {
	first := s.placeOrder()
	s.placeOrder()

	cancelled := models.OrderStatusCancelled
	_, err := s.orders.UpdateOrder(s.ctx, first.ID, &UpdateOrderRequest{Status: &cancelled})
	s.Require().NoError(err)

	orders, total, err := s.orders.ListOrders(s.ctx, OrderFilter{Status: &cancelled})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(orders, 1)
	s.Equal(first.ID, orders[0].ID)

	_, total, err = s.orders.ListOrders(s.ctx, OrderFilter{})
	s.Require().NoError(err)
	s.EqualValues(2, total)

	bogus := models.OrderStatus("LOST")
	_, _, err = s.orders.ListOrders(s.ctx, OrderFilter{Status: &bogus})
	s.ErrorIs(err, ErrValidation)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
