package repository

import (
	"context"

	"tatami-backend/internal/domain/entity"
)

// ResultRepository defines the interface for persisting match results.
type ResultRepository interface {
	// Save appends a result to the record.
	Save(ctx context.Context, result *entity.Result) error

	// List retrieves all recorded results in recording order.
	// Returns an empty slice (not nil) when none are recorded.
	List(ctx context.Context) ([]*entity.Result, error)
}
