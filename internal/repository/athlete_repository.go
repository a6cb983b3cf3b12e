package repository

import (
	"context"

	"tatami-backend/internal/domain/entity"
)

// AthleteRepository defines the interface for persisting registered athletes.
type AthleteRepository interface {
	// Save appends an athlete to the registry.
	Save(ctx context.Context, athlete *entity.Athlete) error

	// List retrieves all registered athletes in registration order.
	// Returns an empty slice (not nil) when none are registered.
	List(ctx context.Context) ([]*entity.Athlete, error)

	// Count returns the number of registered athletes.
	Count(ctx context.Context) (int, error)
}
