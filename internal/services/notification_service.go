// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/models"
)

// OrderNotifier is told about an order after it has been committed. Its
// error never affects the order.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
}

type NotificationService struct {
	config *config.Config
	send   func(to []string, subject, body string) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

type orderEmailLine struct {
	Name     string
	Variant  string
	Quantity int
	Price    string
	Subtotal string
}

func NewNotificationService(config *config.Config) *NotificationService {
	s := &NotificationService{config: config}
	s.send = s.sendEmail
	return s
}

func (s *NotificationService) OrderPlaced(_ context.Context, order *models.Order) error {
	return s.SendOrderConfirmation(order)
}

// SendOrderConfirmation mails the order recap to the customer, copying the
// store address when one is configured.
func (s *NotificationService) SendOrderConfirmation(order *models.Order) error {
	tmpl := s.getEmailTemplate("order_confirmation")

	lines := make([]orderEmailLine, 0, len(order.Items))
	for _, item := range order.Items {
		name := fmt.Sprintf("Product %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		lines = append(lines, orderEmailLine{
			Name:     name,
			Variant:  variantLabel(item.Size, item.Color),
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}

	data := map[string]interface{}{
		"StoreName":    s.config.WhatsApp.StoreName,
		"OrderID":      order.ID,
		"CustomerName": strings.TrimSpace(order.FirstName + " " + order.LastName),
		"Address":      order.Address,
		"PhoneNumber":  order.PhoneNumber,
		"Items":        lines,
		"Total":        order.TotalAmount.StringFixed(2),
	}

	subject := fmt.Sprintf(tmpl.Subject, order.ID)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	to := []string{order.Email}
	if store := s.config.Email.StoreEmail; store != "" {
		to = append(to, store)
	}
	return s.send(to, subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to []string, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{
			"to":      strings.Join(to, ","),
			"subject": subject,
		}).Info("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	from := s.config.Email.FromEmail
	if s.config.Email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, strings.Join(to, ", "), subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, to, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"order_confirmation": {
			Subject: "Your order #%d",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you for your order{{if .CustomerName}}, {{.CustomerName}}{{end}}!</h2>
	<p>Order #{{.OrderID}} has been received and is pending confirmation.</p>
	<table>
		<tr><th>Product</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
		{{range .Items}}<tr><td>{{.Name}}{{if .Variant}} ({{.Variant}}){{end}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Subtotal}}</td></tr>
		{{end}}
	</table>
	<p><strong>Total: {{.Total}}</strong></p>
	<p>Shipping to: {{.Address}}<br>Phone: {{.PhoneNumber}}</p>
	<p>Best regards,<br>{{.StoreName}}</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification %d",
		Body:    "<p>{{.StoreName}}</p>",
	}
}
