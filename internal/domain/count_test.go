package domain

import (
	"errors"
	"testing"
	"time"
)

func quantityItem(id int, name string, threshold int) *CatalogItem {
	return &CatalogItem{ID: id, Name: name, Unit: "kg", MinimumThreshold: threshold}
}

func presenceItem(id int, name string) *CatalogItem {
	return &CatalogItem{ID: id, Name: name, PresenceOnly: true}
}

func TestCountSession_QuantityRecomputesFlag(t *testing.T) {
	testCases := []struct {
		name     string
		counted  int
		expected bool
	}{
		{"below threshold", 7, true},
		{"at threshold", 10, false},
		{"above threshold", 11, false},
		{"zero", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10)})

			if err := session.SetQuantity(1, tc.counted); err != nil {
				t.Fatalf("Expected set quantity to succeed: %v", err)
			}

			entry, err := session.Entry(1)
			if err != nil {
				t.Fatalf("Expected entry: %v", err)
			}
			if entry.FlaggedForOrder != tc.expected {
				t.Errorf("counted=%d: expected flagged=%v, got %v", tc.counted, tc.expected, entry.FlaggedForOrder)
			}
		})
	}
}

func TestCountSession_QuantityChangeOverridesFlag(t *testing.T) {
	session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10)})

	// Operator unflags an under-stock item, then changes the quantity:
	// the automatic default wins again.
	if err := session.SetQuantity(1, 4); err != nil {
		t.Fatal(err)
	}
	if err := session.SetFlag(1, false); err != nil {
		t.Fatal(err)
	}
	entry, _ := session.Entry(1)
	if entry.FlaggedForOrder {
		t.Fatal("Expected operator override to stick until next count")
	}

	if err := session.SetQuantity(1, 3); err != nil {
		t.Fatal(err)
	}
	entry, _ = session.Entry(1)
	if !entry.FlaggedForOrder {
		t.Error("Expected flag recomputed from threshold after quantity change")
	}
}

func TestCountSession_PresenceOnlyFlagPreserved(t *testing.T) {
	session := NewCountSession(1, []*CatalogItem{presenceItem(1, "Napkins")})

	if err := session.SetFlag(1, true); err != nil {
		t.Fatal(err)
	}
	// A quantity change must not touch a presence-only item's flag.
	if err := session.SetQuantity(1, 50); err != nil {
		t.Fatal(err)
	}

	entry, _ := session.Entry(1)
	if !entry.FlaggedForOrder {
		t.Error("Expected presence-only flag preserved verbatim across quantity changes")
	}
}

func TestCountSession_NegativeQuantityRejected(t *testing.T) {
	session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10)})

	if err := session.SetQuantity(1, 12); err != nil {
		t.Fatal(err)
	}

	err := session.SetQuantity(1, -1)
	if err == nil {
		t.Fatal("Expected error for negative quantity, but got none")
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}

	// Prior value retained, no partial mutation.
	entry, _ := session.Entry(1)
	if entry.CountedQuantity != 12 {
		t.Errorf("Expected prior quantity 12 retained, got %d", entry.CountedQuantity)
	}
	if entry.FlaggedForOrder {
		t.Error("Expected prior flag retained")
	}
}

func TestCountSession_UnknownItem(t *testing.T) {
	session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10)})

	err := session.SetQuantity(99, 5)
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestCountSession_ExcludesInactiveItems(t *testing.T) {
	deleted := quantityItem(2, "Old Syrup", 5)
	now := time.Now()
	deleted.DeletedAt = &now
	hidden := quantityItem(3, "Seasonal Cups", 5)
	hidden.Hidden = true

	session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10), deleted, hidden})

	if got := len(session.Entries()); got != 1 {
		t.Fatalf("Expected 1 eligible entry, got %d", got)
	}
	if err := session.SetQuantity(2, 1); err == nil {
		t.Error("Expected soft-deleted item to be ineligible for counting")
	}
}

func TestBuildOrder_EmptySubmissionRejected(t *testing.T) {
	session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10)})
	if err := session.SetQuantity(1, 20); err != nil {
		t.Fatal(err)
	}

	_, err := BuildOrder(1, "aidar", nil, session, time.Now())
	if !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("Expected ErrEmptySubmission, got %v", err)
	}
}

func TestBuildOrder_MissingLocation(t *testing.T) {
	session := NewCountSession(1, []*CatalogItem{quantityItem(1, "Beans", 10)})
	session.SetQuantity(1, 4)

	_, err := BuildOrder(0, "aidar", nil, session, time.Now())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for missing location, got %v", err)
	}
}

func TestBuildOrder_SnapshotsAndEligibility(t *testing.T) {
	beans := quantityItem(1, "Beans", 10)
	extra := quantityItem(2, "Sugar", 5)
	napkins := presenceItem(3, "Napkins")

	session := NewCountSession(1, []*CatalogItem{beans, extra, napkins})
	session.SetQuantity(1, 4)  // under-stock, auto-flagged
	session.SetQuantity(2, 50) // well stocked
	session.SetFlag(2, true)   // but operator wants it anyway
	session.SetFlag(3, true)   // presence-only checkbox

	order, err := BuildOrder(1, "aidar", nil, session, time.Now())
	if err != nil {
		t.Fatalf("Expected order: %v", err)
	}

	if len(order.Lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(order.Lines))
	}
	if order.Status != StatusPending {
		t.Errorf("Expected initial status pending, got %s", order.Status)
	}

	byItem := make(map[int]OrderLine)
	for _, line := range order.Lines {
		byItem[line.ItemID] = line
	}

	if !byItem[1].NeedsOrdering {
		t.Error("Expected under-stock quantity line to need ordering")
	}
	if byItem[2].NeedsOrdering {
		t.Error("Expected merely-counted line to be ineligible for status math")
	}
	if !byItem[3].NeedsOrdering {
		t.Error("Expected checked presence-only line to need ordering unconditionally")
	}

	if byItem[1].ItemName != "Beans" || byItem[1].MinimumThreshold != 10 || byItem[1].CountedQuantity != 4 {
		t.Errorf("Expected snapshot of name/threshold/count, got %+v", byItem[1])
	}

	// Later catalog edits must not leak into the frozen lines.
	beans.MinimumThreshold = 99
	beans.Name = "Renamed"
	if byItem[1].MinimumThreshold != 10 || order.Lines[0].MinimumThreshold != 10 {
		t.Error("Expected threshold snapshot to be immutable after creation")
	}
}

func TestBuildOrder_UncheckedPresenceOnlyExcluded(t *testing.T) {
	napkins := presenceItem(1, "Napkins")
	beans := quantityItem(2, "Beans", 10)

	session := NewCountSession(1, []*CatalogItem{napkins, beans})
	session.SetQuantity(2, 3)
	// Napkins box never checked.

	order, err := BuildOrder(1, "aidar", nil, session, time.Now())
	if err != nil {
		t.Fatalf("Expected order: %v", err)
	}
	if len(order.Lines) != 1 {
		t.Fatalf("Expected only the flagged item, got %d lines", len(order.Lines))
	}
	if order.Lines[0].ItemID != 2 {
		t.Errorf("Expected Beans line, got item %d", order.Lines[0].ItemID)
	}
}
