package store

import (
	"context"

	"github.com/mwort/grass/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
type Store interface {
	Datasets() Datasets
	Maps() Maps
	Registry() Registry
}

// Datasets manages space-time dataset records.
type Datasets interface {
	Create(ctx context.Context, d *model.Dataset) (*model.Dataset, error)
	Get(ctx context.Context, mapset, id string) (*model.Dataset, error)
	List(ctx context.Context, mapset string) ([]*model.Dataset, error)
	Delete(ctx context.Context, mapset, id string) error
}

// Maps manages individual time-stamped map records.
type Maps interface {
	Create(ctx context.Context, m *model.Map) (*model.Map, error)
	Get(ctx context.Context, mapset, id string) (*model.Map, error)
	List(ctx context.Context, mapset string, kind model.MapKind) ([]*model.Map, error)
	Delete(ctx context.Context, mapset, id string) error
}

// Registry is the membership ledger between datasets and maps. It maintains the
// two lazily created junction tables (dataset-side and map-side) so that the
// same (dataset, map) pairs are encoded in both, and keeps the dataset's derived
// temporal extent and classification consistent via Refresh.
type Registry interface {
	// Register adds the map to the dataset's ledger. It returns false without
	// writing when the pair is already registered. Both junction tables are
	// created on first use; all writes happen in one transaction.
	Register(ctx context.Context, d *model.Dataset, m *model.Map) (bool, error)

	// Unregister removes the map from the dataset's ledger. It returns false
	// when the pair was not registered. Both deletes share one transaction.
	Unregister(ctx context.Context, d *model.Dataset, m *model.Map) (bool, error)

	// IsRegistered reports whether the map id is present in the dataset-side
	// junction table. False when no table has been created yet.
	IsRegistered(ctx context.Context, d *model.Dataset, mapID string) (bool, error)

	// MemberIDs returns the ids of all registered members, unordered. Empty,
	// not an error, when the dataset has no register table.
	MemberIDs(ctx context.Context, d *model.Dataset) ([]string, error)

	// DatasetIDs returns the ids of all datasets the map is registered in,
	// read from the map-side junction table. Empty when the map has never
	// been registered.
	DatasetIDs(ctx context.Context, m *model.Map) ([]string, error)

	// Members returns registered map records with the request's temporal
	// filters and sort key applied.
	Members(ctx context.Context, d *model.Dataset, req model.ListMembersRequest) ([]*model.Map, error)

	// Refresh recomputes the dataset's aggregate temporal bounds, member count
	// and time-type classification from current membership. No-op when the
	// dataset has no register table. The dataset struct is updated in place.
	Refresh(ctx context.Context, d *model.Dataset) error

	// DropRegister drops the dataset-side junction table and clears the
	// persisted table name. The ledger must already be empty.
	DropRegister(ctx context.Context, d *model.Dataset) error
}
