package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
)

const minPasswordLength = 6

// Session is a signed-in user and their token.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	// 1. --- Validate ---
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, validation("Name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("Invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	// 2. --- Hash the password ---
	var pw models.Password
	if err := pw.Set(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 3. --- Save ---
	now := s.now()
	user := &models.User{Name: name, Email: email, PasswordHash: pw.Hash, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflict("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.session(user)
}

// Login checks the credentials and returns a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := &Error{Kind: ErrUnauthorized, Message: "Invalid credentials"}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	pw := models.Password{Hash: user.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, invalid
	}
	return s.session(user)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}
