package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/cafestock/internal/domain"
)

// CatalogRepository persists catalog items and the ranked collections
// they live in.
type CatalogRepository interface {
	CreateItem(ctx context.Context, item *domain.CatalogItem) error
	// ListItems returns items ordered by sort rank. Soft-deleted items
	// are included only when includeDeleted is set.
	ListItems(ctx context.Context, includeDeleted bool) ([]*domain.CatalogItem, error)
	GetItem(ctx context.Context, id int) (*domain.CatalogItem, error)
	UpdateItem(ctx context.Context, item *domain.CatalogItem) error
	SoftDeleteItem(ctx context.Context, id int, at time.Time) error
	RestoreItem(ctx context.Context, id int) error
	// HardDeleteItem permanently removes the item, its order lines and
	// its collection membership. This destroys history and cannot be
	// undone; soft delete is the reversible operation.
	HardDeleteItem(ctx context.Context, id int) error

	CreateCategory(ctx context.Context, category *domain.Category) error
	CreateSupplier(ctx context.Context, supplier *domain.Supplier) error
	CreateLocation(ctx context.Context, location *domain.Location) error

	// ListRanked returns the rank-sorted view of any collection.
	ListRanked(ctx context.Context, collection domain.Collection) ([]domain.RankedRecord, error)
	// SetRank persists one member's rank. Reorder sequences call it
	// once per affected member, awaited, never fire-and-forget.
	SetRank(ctx context.Context, collection domain.Collection, id, rank int) error
}

// OrderRepository persists orders, lines and the status change log.
type OrderRepository interface {
	// Create persists the order and all of its lines in one
	// transaction; partial creation is surfaced as failure.
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id int) (*domain.Order, error)
	// List returns orders newest first, excluding archived ones unless
	// includeArchived is set.
	List(ctx context.Context, includeArchived bool) ([]*domain.Order, error)
	SetLineFulfillment(ctx context.Context, orderID, lineID int, fulfilled bool, actor *string, at *time.Time) error
	SetStatus(ctx context.Context, orderID int, status domain.Status, updatedAt time.Time) error
	SetArchived(ctx context.Context, orderID int, archived bool, updatedAt time.Time) error
	LogStatus(ctx context.Context, orderID int, status domain.Status, changedBy string, manual bool) error
	StatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}
