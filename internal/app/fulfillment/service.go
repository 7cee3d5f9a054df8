package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

// Service mutates line fulfillment and keeps the denormalized order
// status in sync. Every mutation re-reads the order so the
// recomputation always sees the latest full line set, and the status
// write is always a full overwrite of the derived value, never a
// read-modify of the previous status.
type Service struct {
	repo      interfaces.OrderRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewService(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

func (s *Service) GetOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, includeArchived bool) ([]*domain.Order, error) {
	return s.repo.List(ctx, includeArchived)
}

// ToggleLine flips fulfillment on one line. Close-together toggles on
// different lines of the same order resolve last-write-wins per line
// with a full recompute after each.
func (s *Service) ToggleLine(ctx context.Context, orderID, lineID int, actor string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if err := order.ToggleFulfilled(lineID, actor, time.Now()); err != nil {
		return nil, err
	}

	line := lineByID(order, lineID)
	if err := s.repo.SetLineFulfillment(ctx, orderID, lineID, line.Fulfilled, line.FulfilledBy, line.FulfilledAt); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, orderID, order.Status, order.UpdatedAt); err != nil {
		return nil, err
	}

	s.recordStatusChange(ctx, order, oldStatus, actor, false)
	return order, nil
}

// ClearAll resets every line's fulfillment in one pass.
func (s *Service) ClearAll(ctx context.Context, orderID int, actor string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	order.ClearAllFulfillment(time.Now())

	for _, line := range order.Lines {
		if err := s.repo.SetLineFulfillment(ctx, orderID, line.ID, false, nil, nil); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetStatus(ctx, orderID, order.Status, order.UpdatedAt); err != nil {
		return nil, err
	}

	s.recordStatusChange(ctx, order, oldStatus, actor, false)
	return order, nil
}

// OverrideStatus writes an operator-picked status without touching
// line flags. The derived status wins again on the next toggle; the
// override is logged as manual so the history shows who picked it.
func (s *Service) OverrideStatus(ctx context.Context, orderID int, status domain.Status, actor string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if err := order.OverrideStatus(status, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, orderID, order.Status, order.UpdatedAt); err != nil {
		return nil, err
	}

	s.recordStatusChange(ctx, order, oldStatus, actor, true)
	return order, nil
}

func (s *Service) SetArchived(ctx context.Context, orderID int, archived bool) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.SetArchived(archived, time.Now())
	if err := s.repo.SetArchived(ctx, orderID, archived, order.UpdatedAt); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) StatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	return s.repo.StatusHistory(ctx, orderID)
}

func (s *Service) recordStatusChange(ctx context.Context, order *domain.Order, oldStatus domain.Status, actor string, manual bool) {
	if order.Status == oldStatus && !manual {
		return
	}

	if err := s.repo.LogStatus(ctx, order.ID, order.Status, actor, manual); err != nil {
		s.logger.Error("status_log_failed", "Failed to log status change", "", map[string]interface{}{
			"order_id": order.ID,
		}, err)
	}

	msg := interfaces.StatusChangedMessage{
		CorrelationID: uuid.NewString(),
		OrderID:       order.ID,
		OldStatus:     oldStatus,
		NewStatus:     order.Status,
		ChangedBy:     actor,
		Manual:        manual,
		Timestamp:     order.UpdatedAt,
	}
	if err := s.publisher.PublishStatusChanged(ctx, msg); err != nil {
		s.logger.Error("publish_failed", "Failed to publish status change", "", map[string]interface{}{
			"order_id": order.ID,
		}, err)
	}
}

func lineByID(order *domain.Order, lineID int) *domain.OrderLine {
	for i := range order.Lines {
		if order.Lines[i].ID == lineID {
			return &order.Lines[i]
		}
	}
	return nil
}
