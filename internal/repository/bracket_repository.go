package repository

import (
	"context"

	"tatami-backend/internal/domain/entity"
)

// BracketRepository defines the interface for persisting the current bracket.
// Regenerating the bracket replaces the previous one entirely.
type BracketRepository interface {
	// Replace discards the stored bracket and saves the given matches.
	Replace(ctx context.Context, matches []entity.Match) error

	// List retrieves the matches of the current bracket in order.
	// Returns an empty slice (not nil) when no bracket has been generated.
	List(ctx context.Context) ([]entity.Match, error)
}
