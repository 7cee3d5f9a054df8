package domain

import (
	"sort"
	"time"
)

// Order is a restocking order for one location. The header is
// immutable after creation except Status, Archived and UpdatedAt.
type Order struct {
	ID          int
	LocationID  int
	SubmittedBy string
	Note        *string
	Status      Status
	Archived    bool
	Lines       []OrderLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine belongs to exactly one order. All fields except the
// fulfillment trio are snapshots frozen at order creation; the line is
// a historical record, not a live view of the catalog item.
type OrderLine struct {
	ID               int
	OrderID          int
	ItemID           int
	ItemName         string
	CountedQuantity  int
	MinimumThreshold int
	PresenceOnly     bool
	NeedsOrdering    bool
	Fulfilled        bool
	FulfilledBy      *string
	FulfilledAt      *time.Time
}

// Eligible reports whether the line participates in status math. Lines
// present only because they were counted never count toward status.
func (l OrderLine) Eligible() bool {
	return l.NeedsOrdering
}

// DeriveStatus computes the order status from the current line flags.
// It is a pure function of the line set: 0 eligible lines fulfilled is
// pending, some is in_progress, all is completed. The second return is
// false for the degenerate order with no eligible lines, where the
// stored status must be left as-is.
func (o *Order) DeriveStatus() (Status, bool) {
	eligible, fulfilled := 0, 0
	for _, line := range o.Lines {
		if !line.Eligible() {
			continue
		}
		eligible++
		if line.Fulfilled {
			fulfilled++
		}
	}

	switch {
	case eligible == 0:
		return o.Status, false
	case fulfilled == 0:
		return StatusPending, true
	case fulfilled < eligible:
		return StatusInProgress, true
	default:
		return StatusCompleted, true
	}
}

// ToggleFulfilled flips the fulfillment flag on one line, stamping the
// actor and time on fulfill and clearing both on unfulfill, then
// recomputes the order status from the full current line set. The
// recomputation never reads the previous status, so unchecking lines
// after completion reverts correctly.
func (o *Order) ToggleFulfilled(lineID int, actor string, now time.Time) error {
	line := o.findLine(lineID)
	if line == nil {
		return &NotFoundError{Kind: "order line", ID: lineID}
	}

	line.Fulfilled = !line.Fulfilled
	if line.Fulfilled {
		line.FulfilledBy = &actor
		line.FulfilledAt = &now
	} else {
		line.FulfilledBy = nil
		line.FulfilledAt = nil
	}

	o.refreshStatus(now)
	return nil
}

// ClearAllFulfillment resets every line's fulfillment in one pass and
// recomputes the status.
func (o *Order) ClearAllFulfillment(now time.Time) {
	for i := range o.Lines {
		o.Lines[i].Fulfilled = false
		o.Lines[i].FulfilledBy = nil
		o.Lines[i].FulfilledAt = nil
	}
	o.refreshStatus(now)
}

// OverrideStatus writes a status directly without touching line flags.
// The next fulfillment toggle recomputes from the lines and may
// overwrite the manual choice; the derived status always wins.
func (o *Order) OverrideStatus(status Status, now time.Time) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Message: "must be one of: pending, in_progress, completed"}
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

// SetArchived toggles the order's visibility in default listings with
// no other side effect.
func (o *Order) SetArchived(archived bool, now time.Time) {
	o.Archived = archived
	o.UpdatedAt = now
}

// DisplayLines returns the lines in display order: unfulfilled first
// in their original order, then fulfilled lines ascending by
// fulfillment time.
func (o *Order) DisplayLines() []OrderLine {
	out := make([]OrderLine, len(o.Lines))
	copy(out, o.Lines)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Fulfilled != out[j].Fulfilled {
			return !out[i].Fulfilled
		}
		if out[i].Fulfilled && out[j].Fulfilled {
			return out[i].FulfilledAt.Before(*out[j].FulfilledAt)
		}
		return false
	})
	return out
}

func (o *Order) findLine(lineID int) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *Order) refreshStatus(now time.Time) {
	if status, ok := o.DeriveStatus(); ok {
		o.Status = status
	}
	o.UpdatedAt = now
}
