package counting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

// ErrSessionNotFound is returned when a session id does not match an
// in-progress counting session (it may have been submitted already).
var ErrSessionNotFound = errors.New("counting session not found")

// Service owns in-progress counting sessions. Each session has exactly
// one state owner here, so entry mutations need no ordering guarantee
// until Submit reads the consistent snapshot.
type Service struct {
	catalogRepo interfaces.CatalogRepository
	orderRepo   interfaces.OrderRepository
	publisher   interfaces.MessagePublisher
	logger      logger.Logger

	mu       sync.Mutex
	sessions map[string]*domain.CountSession
}

func NewService(catalogRepo interfaces.CatalogRepository, orderRepo interfaces.OrderRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		catalogRepo: catalogRepo,
		orderRepo:   orderRepo,
		publisher:   publisher,
		logger:      logger,
		sessions:    make(map[string]*domain.CountSession),
	}
}

// StartSession opens a session over the active catalog and returns its id.
func (s *Service) StartSession(ctx context.Context, locationID int) (string, error) {
	if locationID <= 0 {
		return "", &domain.ValidationError{Field: "location_id", Message: "required"}
	}

	items, err := s.catalogRepo.ListItems(ctx, false)
	if err != nil {
		return "", err
	}

	session := domain.NewCountSession(locationID, items)
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	s.logger.Debug("session_started", "Counting session started", id, map[string]interface{}{
		"location_id": locationID,
		"item_count":  len(session.Entries()),
	})
	return id, nil
}

func (s *Service) SetCount(ctx context.Context, sessionID string, itemID, quantity int) (domain.CountEntry, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.CountEntry{}, err
	}
	if err := session.SetQuantity(itemID, quantity); err != nil {
		return domain.CountEntry{}, err
	}
	return session.Entry(itemID)
}

func (s *Service) SetFlag(ctx context.Context, sessionID string, itemID int, flagged bool) (domain.CountEntry, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.CountEntry{}, err
	}
	if err := session.SetFlag(itemID, flagged); err != nil {
		return domain.CountEntry{}, err
	}
	return session.Entry(itemID)
}

func (s *Service) SessionEntries(ctx context.Context, sessionID string) ([]domain.CountEntry, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Entries(), nil
}

// Submit turns the session into a persisted order. The order and all
// of its lines are created in one repository transaction; on success
// the session is discarded and an order_created event is published.
func (s *Service) Submit(ctx context.Context, cmd interfaces.SubmitOrderCommand) (*domain.Order, error) {
	session, err := s.session(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	order, err := domain.BuildOrder(session.LocationID, cmd.SubmittedBy, cmd.Note, session, time.Now())
	if err != nil {
		s.logger.Error("submission_rejected", "Order submission rejected", cmd.SessionID, nil, err)
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// The transaction rolled back; nothing partial was saved and
		// the session stays open for a retry.
		s.logger.Error("order_create_failed", "Failed to create order", cmd.SessionID, nil, err)
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, cmd.SessionID)
	s.mu.Unlock()

	eligible := 0
	for _, line := range order.Lines {
		if line.Eligible() {
			eligible++
		}
	}

	msg := interfaces.OrderCreatedMessage{
		CorrelationID: uuid.NewString(),
		OrderID:       order.ID,
		LocationID:    order.LocationID,
		SubmittedBy:   order.SubmittedBy,
		LineCount:     len(order.Lines),
		EligibleCount: eligible,
		CreatedAt:     order.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(ctx, msg); err != nil {
		// The order is durable; the event is best-effort.
		s.logger.Error("publish_failed", "Failed to publish order_created", cmd.SessionID, nil, err)
	}

	s.logger.Info("order_created", "Restock order created", cmd.SessionID, map[string]interface{}{
		"order_id":       order.ID,
		"line_count":     len(order.Lines),
		"eligible_count": eligible,
	})
	return order, nil
}

func (s *Service) session(id string) (*domain.CountSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
