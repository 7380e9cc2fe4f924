package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/models"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

func newTestNotifier(cfg *config.Config) (*NotificationService, *[]sentMail) {
	var sent []sentMail
	s := NewNotificationService(cfg)
	s.send = func(to []string, subject, body string) error {
		sent = append(sent, sentMail{to: to, subject: subject, body: body})
		return nil
	}
	return s, &sent
}

func sampleOrder() *models.Order {
	order := &models.Order{
		FirstName:   "Ana",
		LastName:    "Lopez",
		Email:       "ana@example.com",
		Address:     "Calle 1",
		PhoneNumber: "555-0100",
		TotalAmount: decimal.RequireFromString("250"),
		Items: []models.OrderItem{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100"), Size: "M", Product: &models.Product{Name: "Home <Jersey>"}},
			{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("50")},
		},
	}
	order.ID = 7
	return order
}

func TestSendOrderConfirmation(t *testing.T) {
	cfg := &config.Config{
		Email:    config.EmailConfig{StoreEmail: "orders@fanstore.example"},
		WhatsApp: config.WhatsAppConfig{StoreName: "Fan Store"},
	}
	s, sent := newTestNotifier(cfg)

	require.NoError(t, s.OrderPlaced(context.Background(), sampleOrder()))
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, []string{"ana@example.com", "orders@fanstore.example"}, mail.to)
	assert.Equal(t, "Your order #7", mail.subject)
	assert.Contains(t, mail.body, "Ana Lopez")
	assert.Contains(t, mail.body, "Home &lt;Jersey&gt; (size M)")
	assert.Contains(t, mail.body, "Product 2")
	assert.Contains(t, mail.body, "Total: 250.00")
	assert.Contains(t, mail.body, "Fan Store")
}

func TestSendOrderConfirmationWithoutStoreCopy(t *testing.T) {
	s, sent := newTestNotifier(&config.Config{})

	require.NoError(t, s.SendOrderConfirmation(sampleOrder()))
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, (*sent)[0].to)
}

func TestSendEmailSkipsWithoutSMTPHost(t *testing.T) {
	s := NewNotificationService(&config.Config{})
	assert.NoError(t, s.SendOrderConfirmation(sampleOrder()))
}
