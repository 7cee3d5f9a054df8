package interfaces

import (
	"context"

	"github.com/YelzhanWeb/cafestock/internal/domain"
)

// Commands carry validated transport payloads into the business layer.

type CreateItemCommand struct {
	Name             string
	Unit             string
	MinimumThreshold int
	PresenceOnly     bool
	CategoryID       *int
	SupplierID       *int
}

type UpdateItemCommand struct {
	ID               int
	Name             string
	Unit             string
	MinimumThreshold int
	Hidden           bool
}

type ReorderCommand struct {
	Collection domain.Collection
	FromIndex  int
	ToIndex    int
}

// ItemSortField selects the primary key for an auto-sort pass over
// the item collection. Ties always break on the item's own name.
type ItemSortField string

const (
	SortByName     ItemSortField = "name"
	SortBySupplier ItemSortField = "supplier"
	SortByCategory ItemSortField = "category"
)

type SubmitOrderCommand struct {
	SessionID   string
	SubmittedBy string
	Note        *string
}

// CatalogService manages the item catalog and every ranked collection.
type CatalogService interface {
	CreateItem(ctx context.Context, cmd CreateItemCommand) (*domain.CatalogItem, error)
	ListItems(ctx context.Context, includeDeleted bool) ([]*domain.CatalogItem, error)
	UpdateItem(ctx context.Context, cmd UpdateItemCommand) (*domain.CatalogItem, error)
	SoftDeleteItem(ctx context.Context, id int) error
	RestoreItem(ctx context.Context, id int) error
	HardDeleteItem(ctx context.Context, id int) error

	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	CreateSupplier(ctx context.Context, name string) (*domain.Supplier, error)
	CreateLocation(ctx context.Context, name string) (*domain.Location, error)

	ListCollection(ctx context.Context, collection domain.Collection) ([]domain.RankedRecord, error)
	Reorder(ctx context.Context, cmd ReorderCommand) ([]domain.RankedRecord, error)
	AutoSortItems(ctx context.Context, field ItemSortField) ([]domain.RankedRecord, error)
}

// CountingService owns in-progress counting sessions and turns a
// finished session into an order.
type CountingService interface {
	StartSession(ctx context.Context, locationID int) (string, error)
	SetCount(ctx context.Context, sessionID string, itemID, quantity int) (domain.CountEntry, error)
	SetFlag(ctx context.Context, sessionID string, itemID int, flagged bool) (domain.CountEntry, error)
	SessionEntries(ctx context.Context, sessionID string) ([]domain.CountEntry, error)
	Submit(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error)
}

// FulfillmentService mutates line fulfillment and drives order status.
type FulfillmentService interface {
	GetOrder(ctx context.Context, orderID int) (*domain.Order, error)
	ListOrders(ctx context.Context, includeArchived bool) ([]*domain.Order, error)
	ToggleLine(ctx context.Context, orderID, lineID int, actor string) (*domain.Order, error)
	ClearAll(ctx context.Context, orderID int, actor string) (*domain.Order, error)
	OverrideStatus(ctx context.Context, orderID int, status domain.Status, actor string) (*domain.Order, error)
	SetArchived(ctx context.Context, orderID int, archived bool) (*domain.Order, error)
	StatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}
