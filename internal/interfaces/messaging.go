package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/cafestock/internal/domain"
)

// OrderCreatedMessage is published to the restock topic exchange after
// an order and its lines are committed.
type OrderCreatedMessage struct {
	CorrelationID string    `json:"correlation_id"`
	OrderID       int       `json:"order_id"`
	LocationID    int       `json:"location_id"`
	SubmittedBy   string    `json:"submitted_by"`
	LineCount     int       `json:"line_count"`
	EligibleCount int       `json:"eligible_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusChangedMessage is published to the notifications fanout
// exchange on every status change, derived or manual.
type StatusChangedMessage struct {
	CorrelationID string        `json:"correlation_id"`
	OrderID       int           `json:"order_id"`
	OldStatus     domain.Status `json:"old_status"`
	NewStatus     domain.Status `json:"new_status"`
	ChangedBy     string        `json:"changed_by"`
	Manual        bool          `json:"manual"`
	Timestamp     time.Time     `json:"timestamp"`
}

type MessagePublisher interface {
	PublishOrderCreated(ctx context.Context, msg OrderCreatedMessage) error
	PublishStatusChanged(ctx context.Context, msg StatusChangedMessage) error
}

type MessageConsumer interface {
	ConsumeStatusUpdates(ctx context.Context, handler StatusUpdateHandler) error
}

type StatusUpdateHandler func(ctx context.Context, body []byte) error
