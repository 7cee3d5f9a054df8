package domain

import (
	"fmt"
	"time"
)

// CountEntry records one item's state within a counting session.
type CountEntry struct {
	ItemID          int
	CountedQuantity int
	FlaggedForOrder bool
}

// CountSession owns the in-progress count for one location. It is the
// single state owner for its entries until Submit, so the flag rules
// below are the only way entries mutate.
type CountSession struct {
	LocationID int
	StartedAt  time.Time

	items   map[int]*CatalogItem
	entries map[int]*CountEntry
	order   []int // item ids in catalog rank order, for deterministic iteration
}

// NewCountSession starts a session over the active portion of the
// given catalog. Soft-deleted and hidden items are not eligible for
// new entries.
func NewCountSession(locationID int, catalog []*CatalogItem) *CountSession {
	s := &CountSession{
		LocationID: locationID,
		StartedAt:  time.Now(),
		items:      make(map[int]*CatalogItem),
		entries:    make(map[int]*CountEntry),
	}
	for _, item := range catalog {
		if !item.Active() {
			continue
		}
		s.items[item.ID] = item
		s.entries[item.ID] = &CountEntry{ItemID: item.ID}
		s.order = append(s.order, item.ID)
	}
	return s
}

// SetQuantity records a counted quantity. For quantity-based items the
// order flag is recomputed against the item's threshold on every
// change; for presence-only items the existing flag is preserved
// verbatim. Negative input is rejected with no mutation.
func (s *CountSession) SetQuantity(itemID, quantity int) error {
	item, ok := s.items[itemID]
	if !ok {
		return &NotFoundError{Kind: "item", ID: itemID}
	}
	if quantity < 0 {
		return &ValidationError{Field: "counted_quantity", Message: fmt.Sprintf("cannot be negative, got %d", quantity)}
	}

	entry := s.entries[itemID]
	entry.CountedQuantity = quantity
	if !item.PresenceOnly {
		entry.FlaggedForOrder = quantity < item.MinimumThreshold
	}
	return nil
}

// SetFlag records an operator's explicit flag choice. For presence-only
// items this is the sole ordering signal; for quantity-based items it
// overrides the automatic default until the next quantity change.
func (s *CountSession) SetFlag(itemID int, flagged bool) error {
	if _, ok := s.items[itemID]; !ok {
		return &NotFoundError{Kind: "item", ID: itemID}
	}
	s.entries[itemID].FlaggedForOrder = flagged
	return nil
}

// Entry returns a copy of the entry for itemID.
func (s *CountSession) Entry(itemID int) (CountEntry, error) {
	entry, ok := s.entries[itemID]
	if !ok {
		return CountEntry{}, &NotFoundError{Kind: "item", ID: itemID}
	}
	return *entry, nil
}

// Entries returns copies of all entries in catalog rank order.
func (s *CountSession) Entries() []CountEntry {
	out := make([]CountEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.entries[id])
	}
	return out
}

// BuildOrder filters the session to entries flagged for ordering and
// produces an order with one line per flagged entry. Every snapshot
// field is frozen from the catalog and the entry as they are right
// now; later catalog edits never touch the resulting lines.
func BuildOrder(locationID int, submittedBy string, note *string, session *CountSession, now time.Time) (*Order, error) {
	if locationID <= 0 {
		return nil, &ValidationError{Field: "location_id", Message: "required"}
	}
	if submittedBy == "" {
		return nil, &ValidationError{Field: "submitted_by", Message: "required"}
	}

	var lines []OrderLine
	for _, entry := range session.Entries() {
		if !entry.FlaggedForOrder {
			continue
		}
		item := session.items[entry.ItemID]
		lines = append(lines, OrderLine{
			ItemID:           item.ID,
			ItemName:         item.Name,
			CountedQuantity:  entry.CountedQuantity,
			MinimumThreshold: item.MinimumThreshold,
			PresenceOnly:     item.PresenceOnly,
			NeedsOrdering:    needsOrdering(item, entry),
		})
	}
	if len(lines) == 0 {
		return nil, ErrEmptySubmission
	}

	return &Order{
		LocationID:  locationID,
		SubmittedBy: submittedBy,
		Note:        note,
		Status:      StatusPending,
		Lines:       lines,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// needsOrdering decides, once, whether the line was actually
// under-stock or merely counted. Presence-only items follow the
// operator's checkbox; quantity-based items compare count against
// threshold regardless of any flag override.
func needsOrdering(item *CatalogItem, entry CountEntry) bool {
	if item.PresenceOnly {
		return entry.FlaggedForOrder
	}
	return entry.CountedQuantity < item.MinimumThreshold
}
