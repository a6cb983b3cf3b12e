package filestore

import (
	"context"
	"path/filepath"

	"tatami-backend/internal/domain/entity"
)

// AthleteRepository persists athletes in athletes.json under the state
// directory.
type AthleteRepository struct {
	table *table[entity.Athlete]
}

// NewAthleteRepository creates a file-backed athlete repository under dir.
func NewAthleteRepository(dir string) (*AthleteRepository, error) {
	t, err := newTable[entity.Athlete](filepath.Join(dir, "athletes.json"))
	if err != nil {
		return nil, err
	}
	return &AthleteRepository{table: t}, nil
}

// Save appends an athlete to the registry.
func (r *AthleteRepository) Save(ctx context.Context, athlete *entity.Athlete) error {
	return r.table.appendItem(*athlete)
}

// List retrieves all registered athletes in registration order.
func (r *AthleteRepository) List(ctx context.Context) ([]*entity.Athlete, error) {
	items, err := r.table.all()
	if err != nil {
		return nil, err
	}
	athletes := make([]*entity.Athlete, len(items))
	for i := range items {
		athletes[i] = &items[i]
	}
	return athletes, nil
}

// Count returns the number of registered athletes.
func (r *AthleteRepository) Count(ctx context.Context) (int, error) {
	items, err := r.table.all()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
