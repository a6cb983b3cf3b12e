package filestore

import (
	"context"
	"path/filepath"

	"tatami-backend/internal/domain/entity"
)

// ResultRepository persists match results in results.json under the state
// directory.
type ResultRepository struct {
	table *table[entity.Result]
}

// NewResultRepository creates a file-backed result repository under dir.
func NewResultRepository(dir string) (*ResultRepository, error) {
	t, err := newTable[entity.Result](filepath.Join(dir, "results.json"))
	if err != nil {
		return nil, err
	}
	return &ResultRepository{table: t}, nil
}

// Save appends a result to the record.
func (r *ResultRepository) Save(ctx context.Context, result *entity.Result) error {
	return r.table.appendItem(*result)
}

// List retrieves all recorded results in recording order.
func (r *ResultRepository) List(ctx context.Context) ([]*entity.Result, error) {
	items, err := r.table.all()
	if err != nil {
		return nil, err
	}
	results := make([]*entity.Result, len(items))
	for i := range items {
		results[i] = &items[i]
	}
	return results, nil
}
