// Package email delivers transactional mail such as order confirmations.
package email

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/01moynul/ecofinds-golang/internal/models"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP server is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Println("====================================================")
	log.Printf("--- NEW EMAIL (NOT SENT) ---")
	log.Printf("To: %s", msg.To)
	log.Printf("Subject: %s", msg.Subject)
	log.Println("--- Body ---")
	log.Println(msg.Body)
	log.Println("====================================================")
	return nil
}

// OrderConfirmation builds the mail sent to a buyer once checkout commits.
func OrderConfirmation(to, name string, o *models.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thanks for shopping second-hand! Your order %s is confirmed.\n\n", o.OrderNumber)
	for _, line := range o.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n", line.Quantity, line.Title, line.Price.StringFixed(2), line.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", o.TotalAmount.StringFixed(2))
	if o.TrackingNumber != nil {
		fmt.Fprintf(&b, "Tracking number: %s\n", *o.TrackingNumber)
	}
	if o.EstimatedDelivery != nil {
		fmt.Fprintf(&b, "Estimated delivery: %s\n", o.EstimatedDelivery.Format("Mon, 02 Jan 2006"))
	}
	b.WriteString("\nThe EcoFinds team\n")

	return Message{
		To:      to,
		Subject: fmt.Sprintf("EcoFinds order %s confirmed", o.OrderNumber),
		Body:    b.String(),
	}
}
