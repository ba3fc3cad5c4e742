// Package services holds the marketplace business logic: the cart, the
// checkout workflow, orders, the product catalog and user accounts.
package services

import (
	"math/rand"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/email"
	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/01moynul/ecofinds-golang/internal/store"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID int64) (string, error)
}

type Service struct {
	store     store.Store
	media     media.Store
	tokens    TokenIssuer
	mailer    email.Sender
	shipAfter time.Duration

	now   func() time.Time
	randN func(int) int
}

// NewService wires the services to their collaborators. shipAfter is how
// long a confirmed order waits before the shipment simulator ships it.
func NewService(st store.Store, images media.Store, tokens TokenIssuer, shipAfter time.Duration) *Service {
	return &Service{
		store:     st,
		media:     images,
		tokens:    tokens,
		mailer:    email.LogSender{},
		shipAfter: shipAfter,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		randN:     rand.Intn,
	}
}

// UseMailer replaces the default log-only mailer.
func (s *Service) UseMailer(m email.Sender) {
	s.mailer = m
}
