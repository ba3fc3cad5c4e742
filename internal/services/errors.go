package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Service either matches one of
// these with errors.Is or is an internal failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrUpstream     = errors.New("upstream failure")
)

// Error is a service failure with a short message that is safe to show
// to the user.
type Error struct {
	Kind    error
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }
func notFound(msg string) error   { return &Error{Kind: ErrNotFound, Message: msg} }
func conflict(msg string) error   { return &Error{Kind: ErrConflict, Message: msg} }
func forbidden(msg string) error  { return &Error{Kind: ErrForbidden, Message: msg} }

// UnavailableProductError reports a product in the cart that can no longer
// be bought. It is a conflict.
type UnavailableProductError struct {
	ProductID int64
	Title     string // empty when the product was deleted
}

func (e *UnavailableProductError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("Product %d is no longer available", e.ProductID)
	}
	return fmt.Sprintf("Product %q is no longer available", e.Title)
}

func (e *UnavailableProductError) Is(target error) bool { return target == ErrConflict }
