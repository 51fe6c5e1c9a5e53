package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/omiam/omiam-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL constraint error to an AppError.
// Returns nil if the error is not a pq.Error or the code is not mapped.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced inventory item does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "current_stock"):
		return errors.BadRequest("stock level cannot become negative")
	case strings.Contains(constraint, "min_stock"):
		return errors.Validation(map[string]string{
			"minStock": "must not be negative",
		})
	case strings.Contains(constraint, "prices"):
		return errors.Validation(map[string]string{
			"cost":         "must not be negative",
			"sellingPrice": "must not be negative",
		})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	switch {
	case strings.Contains(pqErr.Constraint, "sku"):
		return "an inventory item with this SKU already exists"
	default:
		return "a record with these values already exists"
	}
}
