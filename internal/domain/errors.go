package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel failures shared by every store operation. Handlers translate
// them to HTTP status codes with StatusCode and never rewrite their meaning.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConstraint   = errors.New("constraint violation")
)

// InsufficientStockError names the product that would have been oversold.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// InsufficientPointsError carries both sides of the failed balance check so
// the response payload can show them.
type InsufficientPointsError struct {
	Available int64
	Required  int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: available %d, required %d", e.Available, e.Required)
}

func StatusCode(err error) int {
	var stock *InsufficientStockError
	var points *InsufficientPointsError

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConstraint):
		return http.StatusConflict
	case errors.As(err, &stock), errors.As(err, &points):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
