package counting

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

type fakeCatalogRepo struct {
	items []*domain.CatalogItem
}

func (f *fakeCatalogRepo) CreateItem(ctx context.Context, item *domain.CatalogItem) error {
	return nil
}

func (f *fakeCatalogRepo) ListItems(ctx context.Context, includeDeleted bool) ([]*domain.CatalogItem, error) {
	out := make([]*domain.CatalogItem, len(f.items))
	copy(out, f.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortRank < out[j].SortRank })
	return out, nil
}

func (f *fakeCatalogRepo) GetItem(ctx context.Context, id int) (*domain.CatalogItem, error) {
	return nil, &domain.NotFoundError{Kind: "item", ID: id}
}

func (f *fakeCatalogRepo) UpdateItem(ctx context.Context, item *domain.CatalogItem) error { return nil }
func (f *fakeCatalogRepo) SoftDeleteItem(ctx context.Context, id int, at time.Time) error {
	return nil
}
func (f *fakeCatalogRepo) RestoreItem(ctx context.Context, id int) error    { return nil }
func (f *fakeCatalogRepo) HardDeleteItem(ctx context.Context, id int) error { return nil }
func (f *fakeCatalogRepo) CreateCategory(ctx context.Context, c *domain.Category) error {
	return nil
}
func (f *fakeCatalogRepo) CreateSupplier(ctx context.Context, s *domain.Supplier) error {
	return nil
}
func (f *fakeCatalogRepo) CreateLocation(ctx context.Context, l *domain.Location) error {
	return nil
}
func (f *fakeCatalogRepo) ListRanked(ctx context.Context, c domain.Collection) ([]domain.RankedRecord, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) SetRank(ctx context.Context, c domain.Collection, id, rank int) error {
	return nil
}

type fakeOrderRepo struct {
	created    []*domain.Order
	failCreate bool
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	if f.failCreate {
		return &domain.TransientStoreError{Op: "create order", Err: errors.New("connection reset")}
	}
	order.ID = len(f.created) + 1
	for i := range order.Lines {
		order.Lines[i].ID = i + 1
		order.Lines[i].OrderID = order.ID
	}
	f.created = append(f.created, order)
	return nil
}

func (f *fakeOrderRepo) Get(ctx context.Context, id int) (*domain.Order, error) {
	return nil, &domain.NotFoundError{Kind: "order", ID: id}
}
func (f *fakeOrderRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Order, error) {
	return f.created, nil
}
func (f *fakeOrderRepo) SetLineFulfillment(ctx context.Context, orderID, lineID int, fulfilled bool, actor *string, at *time.Time) error {
	return nil
}
func (f *fakeOrderRepo) SetStatus(ctx context.Context, orderID int, status domain.Status, updatedAt time.Time) error {
	return nil
}
func (f *fakeOrderRepo) SetArchived(ctx context.Context, orderID int, archived bool, updatedAt time.Time) error {
	return nil
}
func (f *fakeOrderRepo) LogStatus(ctx context.Context, orderID int, status domain.Status, changedBy string, manual bool) error {
	return nil
}
func (f *fakeOrderRepo) StatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	return nil, nil
}

type fakePublisher struct {
	orderCreated  []interfaces.OrderCreatedMessage
	statusChanged []interfaces.StatusChangedMessage
	failPublish   bool
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, msg interfaces.OrderCreatedMessage) error {
	if f.failPublish {
		return errors.New("broker down")
	}
	f.orderCreated = append(f.orderCreated, msg)
	return nil
}

func (f *fakePublisher) PublishStatusChanged(ctx context.Context, msg interfaces.StatusChangedMessage) error {
	f.statusChanged = append(f.statusChanged, msg)
	return nil
}

func testCatalog() *fakeCatalogRepo {
	return &fakeCatalogRepo{items: []*domain.CatalogItem{
		{ID: 1, Name: "Beans", Unit: "kg", MinimumThreshold: 10},
		{ID: 2, Name: "Napkins", PresenceOnly: true, SortRank: 1},
	}}
}

func newTestService(catalog *fakeCatalogRepo, orders *fakeOrderRepo, pub *fakePublisher) *Service {
	return NewService(catalog, orders, pub, logger.New("test"))
}

func TestStartSession_RequiresLocation(t *testing.T) {
	service := newTestService(testCatalog(), &fakeOrderRepo{}, &fakePublisher{})

	_, err := service.StartSession(context.Background(), 0)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestSetCount_UnknownSession(t *testing.T) {
	service := newTestService(testCatalog(), &fakeOrderRepo{}, &fakePublisher{})

	_, err := service.SetCount(context.Background(), "nope", 1, 5)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmit_EmptySubmissionCreatesNothing(t *testing.T) {
	orders := &fakeOrderRepo{}
	service := newTestService(testCatalog(), orders, &fakePublisher{})
	ctx := context.Background()

	sessionID, err := service.StartSession(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Everything well stocked, nothing flagged.
	if _, err := service.SetCount(ctx, sessionID, 1, 50); err != nil {
		t.Fatal(err)
	}

	_, err = service.Submit(ctx, interfaces.SubmitOrderCommand{SessionID: sessionID, SubmittedBy: "aidar"})
	if !errors.Is(err, domain.ErrEmptySubmission) {
		t.Fatalf("Expected ErrEmptySubmission, got %v", err)
	}
	if len(orders.created) != 0 {
		t.Errorf("Expected no order created, got %d", len(orders.created))
	}

	// The session survives a rejected submission.
	if _, err := service.SetCount(ctx, sessionID, 1, 2); err != nil {
		t.Errorf("Expected session still open: %v", err)
	}
}

func TestSubmit_CreatesOrderAndPublishes(t *testing.T) {
	orders := &fakeOrderRepo{}
	pub := &fakePublisher{}
	service := newTestService(testCatalog(), orders, pub)
	ctx := context.Background()

	sessionID, _ := service.StartSession(ctx, 1)
	service.SetCount(ctx, sessionID, 1, 4) // under threshold, auto-flagged
	service.SetFlag(ctx, sessionID, 2, true)

	order, err := service.Submit(ctx, interfaces.SubmitOrderCommand{SessionID: sessionID, SubmittedBy: "aidar"})
	if err != nil {
		t.Fatalf("Expected submit to succeed: %v", err)
	}

	if len(order.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(order.Lines))
	}
	if order.Status != domain.StatusPending {
		t.Errorf("Expected pending, got %s", order.Status)
	}
	if len(orders.created) != 1 {
		t.Fatalf("Expected 1 persisted order, got %d", len(orders.created))
	}

	if len(pub.orderCreated) != 1 {
		t.Fatalf("Expected 1 order_created event, got %d", len(pub.orderCreated))
	}
	msg := pub.orderCreated[0]
	if msg.OrderID != order.ID || msg.LineCount != 2 || msg.EligibleCount != 2 {
		t.Errorf("Unexpected event payload: %+v", msg)
	}
	if msg.CorrelationID == "" {
		t.Error("Expected a correlation id on the event")
	}

	// The session is consumed by a successful submit.
	_, err = service.Submit(ctx, interfaces.SubmitOrderCommand{SessionID: sessionID, SubmittedBy: "aidar"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on resubmit, got %v", err)
	}
}

func TestSubmit_StoreFailureKeepsSession(t *testing.T) {
	orders := &fakeOrderRepo{failCreate: true}
	service := newTestService(testCatalog(), orders, &fakePublisher{})
	ctx := context.Background()

	sessionID, _ := service.StartSession(ctx, 1)
	service.SetCount(ctx, sessionID, 1, 4)

	_, err := service.Submit(ctx, interfaces.SubmitOrderCommand{SessionID: sessionID, SubmittedBy: "aidar"})
	var storeErr *domain.TransientStoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected TransientStoreError, got %v", err)
	}

	// Nothing partial was saved and the session stays open for retry.
	orders.failCreate = false
	order, err := service.Submit(ctx, interfaces.SubmitOrderCommand{SessionID: sessionID, SubmittedBy: "aidar"})
	if err != nil {
		t.Fatalf("Expected retry to succeed: %v", err)
	}
	if len(order.Lines) != 1 {
		t.Errorf("Expected 1 line on retry, got %d", len(order.Lines))
	}
}

func TestSubmit_PublishFailureDoesNotLoseOrder(t *testing.T) {
	orders := &fakeOrderRepo{}
	pub := &fakePublisher{failPublish: true}
	service := newTestService(testCatalog(), orders, pub)
	ctx := context.Background()

	sessionID, _ := service.StartSession(ctx, 1)
	service.SetCount(ctx, sessionID, 1, 4)

	order, err := service.Submit(ctx, interfaces.SubmitOrderCommand{SessionID: sessionID, SubmittedBy: "aidar"})
	if err != nil {
		t.Fatalf("Expected submit to succeed despite broker failure: %v", err)
	}
	if order.ID == 0 || len(orders.created) != 1 {
		t.Error("Expected the order to be durable")
	}
}
