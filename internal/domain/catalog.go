package domain

import (
	"errors"
	"time"
)

// CatalogItem represents one product in a location's catalog.
// PresenceOnly items are tracked by a yes/no "is it needed" flag
// instead of a counted quantity.
type CatalogItem struct {
	ID               int
	Name             string
	Unit             string
	MinimumThreshold int
	PresenceOnly     bool
	Hidden           bool
	SortRank         int
	CategoryID       *int
	SupplierID       *int
	DeletedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCatalogItem creates a catalog item with business rules applied.
func NewCatalogItem(name, unit string, minimumThreshold int, presenceOnly bool) (*CatalogItem, error) {
	if len(name) < 1 || len(name) > 100 {
		return nil, errors.New("item name must be 1-100 characters")
	}
	if minimumThreshold < 0 {
		return nil, errors.New("minimum threshold cannot be negative")
	}
	if presenceOnly && minimumThreshold != 0 {
		return nil, errors.New("presence-only items have no threshold")
	}

	now := time.Now()
	return &CatalogItem{
		Name:             name,
		Unit:             unit,
		MinimumThreshold: minimumThreshold,
		PresenceOnly:     presenceOnly,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Active reports whether the item is visible to new counting sessions.
func (i *CatalogItem) Active() bool {
	return i.DeletedAt == nil && !i.Hidden
}

// SoftDelete hides the item from active catalog views and from new
// counting sessions. Order lines that snapshot it are untouched.
func (i *CatalogItem) SoftDelete(now time.Time) {
	i.DeletedAt = &now
	i.UpdatedAt = now
}

// Restore reverses a soft delete.
func (i *CatalogItem) Restore(now time.Time) {
	i.DeletedAt = nil
	i.UpdatedAt = now
}

// Category groups catalog items and is manually orderable.
type Category struct {
	ID       int
	Name     string
	SortRank int
}

// Supplier is a vendor association for catalog items, manually orderable.
type Supplier struct {
	ID       int
	Name     string
	SortRank int
}

// Location is one café in the chain, manually orderable.
type Location struct {
	ID       int
	Name     string
	SortRank int
}
