package filestore

import (
	"context"
	"path/filepath"

	"tatami-backend/internal/domain/entity"
)

// BracketRepository persists the current bracket in brackets.json under the
// state directory.
type BracketRepository struct {
	table *table[entity.Match]
}

// NewBracketRepository creates a file-backed bracket repository under dir.
func NewBracketRepository(dir string) (*BracketRepository, error) {
	t, err := newTable[entity.Match](filepath.Join(dir, "brackets.json"))
	if err != nil {
		return nil, err
	}
	return &BracketRepository{table: t}, nil
}

// Replace discards the stored bracket and saves the given matches.
func (r *BracketRepository) Replace(ctx context.Context, matches []entity.Match) error {
	if matches == nil {
		matches = []entity.Match{}
	}
	return r.table.replaceAll(matches)
}

// List retrieves the matches of the current bracket in order.
func (r *BracketRepository) List(ctx context.Context) ([]entity.Match, error) {
	return r.table.all()
}
