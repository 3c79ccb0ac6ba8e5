package api

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

func newActivityID() string { return uuid.New().String() }

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func validationError(message string) error {
	return errors.Newf("%s", message).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}

// pagination extracts limit/offset query parameters with sane bounds.
func pagination(ctx echo.Context) (limit, offset int) {
	limit = defaultPageLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if raw := ctx.QueryParam("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}
