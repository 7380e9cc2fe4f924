// internal/services/whatsapp.go
package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/javajoker/fanstore-backend/internal/models"
)

// BuildWhatsAppLink returns a wa.me deep link that opens a chat with phone
// prefilled with text. Non-digits are stripped from phone; an empty phone
// yields a link that lets the user pick the contact.
func BuildWhatsAppLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	// Spaces go out as %20; a literal "+" in text is already %2B.
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// OrderSummary renders the plain-text order recap used for the WhatsApp
// message and the e-mail fallback.
func OrderSummary(storeName string, order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - Order #%d\n", storeName, order.ID)
	if name := strings.TrimSpace(order.FirstName + " " + order.LastName); name != "" {
		fmt.Fprintf(&b, "Customer: %s\n", name)
	}
	fmt.Fprintf(&b, "Phone: %s\nEmail: %s\nAddress: %s\n\n", order.PhoneNumber, order.Email, order.Address)
	for _, item := range order.Items {
		name := fmt.Sprintf("Product %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "- %s x%d @ %s", name, item.Quantity, item.Price.StringFixed(2))
		if variant := variantLabel(item.Size, item.Color); variant != "" {
			fmt.Fprintf(&b, " (%s)", variant)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: %s", order.TotalAmount.StringFixed(2))
	return b.String()
}

func variantLabel(size, color string) string {
	var parts []string
	if size != "" {
		parts = append(parts, "size "+size)
	}
	if color != "" {
		parts = append(parts, "color "+color)
	}
	return strings.Join(parts, ", ")
}
