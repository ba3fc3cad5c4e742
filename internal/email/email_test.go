package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/shopspring/decimal"
)

func TestOrderConfirmation(t *testing.T) {
	tracking := "TRK00123456"
	eta := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	o := &models.Order{
		OrderNumber: "ECO-123456-ABCDEF",
		TotalAmount: decimal.NewFromInt(25),
		Items: []models.OrderLine{
			{Title: "book", Quantity: 2, Price: decimal.NewFromInt(10)},
			{Title: "mug", Quantity: 1, Price: decimal.NewFromInt(5)},
		},
		TrackingNumber:    &tracking,
		EstimatedDelivery: &eta,
	}

	msg := OrderConfirmation("ana@example.com", "Ana", o)
	if msg.To != "ana@example.com" || !strings.Contains(msg.Subject, "ECO-123456-ABCDEF") {
		t.Fatalf("unexpected header fields %+v", msg)
	}
	for _, want := range []string{"Hi Ana", "2 x book @ 10.00 = 20.00", "Total: 25.00", "TRK00123456", "Fri, 21 Mar 2025"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestSMTP_Send(t *testing.T) {
	s := NewSMTP("smtp.example.com", "587", "mailer", "pw", "no-reply@ecofinds.dev")

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hello", Body: "line one\nline two"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotAuth == nil {
		t.Fatalf("addr = %q, auth = %v", gotAddr, gotAuth)
	}
	if len(gotTo) != 1 || gotTo[0] != "ana@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	for _, want := range []string{"From: EcoFinds <no-reply@ecofinds.dev>\r\n", "Subject: Hello\r\n", "\r\n\r\nline one\r\nline two"} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestSMTP_SendErrors(t *testing.T) {
	s := NewSMTP("localhost", "25", "", "", "no-reply@ecofinds.dev")
	relay := errors.New("connection refused")
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if a != nil {
			t.Errorf("auth without a user: %v", a)
		}
		return relay
	}

	if err := s.Send(context.Background(), Message{To: "ana@example.com"}); !errors.Is(err, relay) {
		t.Fatalf("expected relay error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, Message{To: "ana@example.com"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLogSender(t *testing.T) {
	if err := (LogSender{}).Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi", Body: "body"}); err != nil {
		t.Fatalf("LogSender: %v", err)
	}
}
