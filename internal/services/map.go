package services

import (
	"context"
	"fmt"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
)

// MapService manages individual map records.
type MapService struct {
	store store.Store
}

func NewMapService(s store.Store) *MapService {
	return &MapService{store: s}
}

func (s *MapService) Create(ctx context.Context, m *model.Map) (*model.Map, error) {
	return s.store.Maps().Create(ctx, m)
}

func (s *MapService) Get(ctx context.Context, mapset, id string) (*model.Map, error) {
	return s.store.Maps().Get(ctx, mapset, id)
}

func (s *MapService) List(ctx context.Context, mapset string, kind model.MapKind) ([]*model.Map, error) {
	return s.store.Maps().List(ctx, mapset, kind)
}

// Datasets lists the ids of every dataset the map is registered in.
func (s *MapService) Datasets(ctx context.Context, mapset, id string) ([]string, error) {
	m, err := s.store.Maps().Get(ctx, mapset, id)
	if err != nil {
		return nil, err
	}
	return s.store.Registry().DatasetIDs(ctx, m)
}

// Delete removes a map record. A map that is still registered in any dataset
// cannot be deleted; it must be unregistered first so no ledger is left
// pointing at a missing record.
func (s *MapService) Delete(ctx context.Context, mapset, id string) error {
	m, err := s.store.Maps().Get(ctx, mapset, id)
	if err != nil {
		return err
	}
	ids, err := s.store.Registry().DatasetIDs(ctx, m)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return fmt.Errorf("map %q is registered in %d dataset(s): %w", id, len(ids), model.ErrConflict)
	}
	return s.store.Maps().Delete(ctx, mapset, id)
}
