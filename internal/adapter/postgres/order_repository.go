package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and all of its lines transactionally.
// A failure anywhere rolls the whole order back; partial creation is
// never left behind.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &domain.TransientStoreError{Op: "begin create order", Err: err}
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (location_id, submitted_by, note, status, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.LocationID, order.SubmittedBy, order.Note, order.Status,
		order.Archived, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return &domain.TransientStoreError{Op: "insert order", Err: err}
	}

	for i := range order.Lines {
		lineQuery := `
			INSERT INTO order_lines (order_id, item_id, item_name, counted_quantity,
			                         minimum_threshold, presence_only, needs_ordering, fulfilled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false)
			RETURNING id
		`
		line := &order.Lines[i]
		err = tx.QueryRow(ctx, lineQuery,
			order.ID, line.ItemID, line.ItemName, line.CountedQuantity,
			line.MinimumThreshold, line.PresenceOnly, line.NeedsOrdering,
		).Scan(&line.ID)
		if err != nil {
			return &domain.TransientStoreError{Op: "insert order line", Err: err}
		}
		line.OrderID = order.ID
	}

	logQuery := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, manual)
		VALUES ($1, $2, $3, $4, false)
	`
	if _, err := tx.Exec(ctx, logQuery, order.ID, order.Status, order.SubmittedBy, order.CreatedAt); err != nil {
		return &domain.TransientStoreError{Op: "log initial status", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.TransientStoreError{Op: "commit create order", Err: err}
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int) (*domain.Order, error) {
	query := `
		SELECT id, location_id, submitted_by, note, status, archived, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order domain.Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.LocationID, &order.SubmittedBy, &order.Note,
		&order.Status, &order.Archived, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "order", ID: id}
	}
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "get order", Err: err}
	}

	if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, includeArchived bool) ([]*domain.Order, error) {
	query := `
		SELECT id, location_id, submitted_by, note, status, archived, created_at, updated_at
		FROM orders
	`
	if !includeArchived {
		query += ` WHERE NOT archived`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "list orders", Err: err}
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.LocationID, &order.SubmittedBy, &order.Note,
			&order.Status, &order.Archived, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, &domain.TransientStoreError{Op: "scan order", Err: err}
		}
		orders = append(orders, &order)
	}

	for _, order := range orders {
		if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// loadLines reads an order's lines with a strict row parse: NULL in a
// required snapshot column fails the scan instead of defaulting, so a
// half-written line surfaces as an error rather than a wrong screen.
func (r *orderRepository) loadLines(ctx context.Context, orderID int) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, item_id, item_name, counted_quantity,
		       minimum_threshold, presence_only, needs_ordering,
		       fulfilled, fulfilled_by, fulfilled_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "load order lines", Err: err}
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ItemID, &line.ItemName, &line.CountedQuantity,
			&line.MinimumThreshold, &line.PresenceOnly, &line.NeedsOrdering,
			&line.Fulfilled, &line.FulfilledBy, &line.FulfilledAt,
		); err != nil {
			return nil, &domain.ValidationError{Field: "order_line", Message: "malformed stored line: " + err.Error()}
		}
		lines = append(lines, line)
	}

	return lines, nil
}

func (r *orderRepository) SetLineFulfillment(ctx context.Context, orderID, lineID int, fulfilled bool, actor *string, at *time.Time) error {
	query := `
		UPDATE order_lines
		SET fulfilled = $1, fulfilled_by = $2, fulfilled_at = $3
		WHERE id = $4 AND order_id = $5
	`
	tag, err := r.db.Exec(ctx, query, fulfilled, actor, at, lineID, orderID)
	if err != nil {
		return &domain.TransientStoreError{Op: "set line fulfillment", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "order line", ID: lineID}
	}
	return nil
}

func (r *orderRepository) SetStatus(ctx context.Context, orderID int, status domain.Status, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, status, updatedAt, orderID)
	if err != nil {
		return &domain.TransientStoreError{Op: "set order status", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	return nil
}

func (r *orderRepository) SetArchived(ctx context.Context, orderID int, archived bool, updatedAt time.Time) error {
	query := `UPDATE orders SET archived = $1, updated_at = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, archived, updatedAt, orderID)
	if err != nil {
		return &domain.TransientStoreError{Op: "set order archived", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	return nil
}

func (r *orderRepository) LogStatus(ctx context.Context, orderID int, status domain.Status, changedBy string, manual bool) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, manual)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, orderID, status, changedBy, time.Now(), manual); err != nil {
		return &domain.TransientStoreError{Op: "log status", Err: err}
	}
	return nil
}

func (r *orderRepository) StatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, manual
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "status history", Err: err}
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Manual); err != nil {
			return nil, &domain.TransientStoreError{Op: "scan status log", Err: err}
		}
		logs = append(logs, &log)
	}

	return logs, nil
}
