package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) interfaces.CatalogRepository {
	return &catalogRepository{db: db}
}

// rankedTables maps collection names to their backing tables. Every
// table carries (id, name, sort_rank).
var rankedTables = map[domain.Collection]string{
	domain.CollectionItems:      "items",
	domain.CollectionCategories: "categories",
	domain.CollectionSuppliers:  "suppliers",
	domain.CollectionLocations:  "locations",
}

func (r *catalogRepository) CreateItem(ctx context.Context, item *domain.CatalogItem) error {
	// New items go to the end of the ranked collection.
	query := `
		INSERT INTO items (name, unit, minimum_threshold, presence_only, hidden,
		                   sort_rank, category_id, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
		        (SELECT COALESCE(MAX(sort_rank) + 1, 0) FROM items),
		        $6, $7, $8, $9)
		RETURNING id, sort_rank
	`
	err := r.db.QueryRow(ctx, query,
		item.Name, item.Unit, item.MinimumThreshold, item.PresenceOnly, item.Hidden,
		item.CategoryID, item.SupplierID, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID, &item.SortRank)
	if err != nil {
		return &domain.TransientStoreError{Op: "create item", Err: err}
	}
	return nil
}

func (r *catalogRepository) ListItems(ctx context.Context, includeDeleted bool) ([]*domain.CatalogItem, error) {
	query := `
		SELECT id, name, unit, minimum_threshold, presence_only, hidden,
		       sort_rank, category_id, supplier_id, deleted_at, created_at, updated_at
		FROM items
	`
	if !includeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY sort_rank`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "list items", Err: err}
	}
	defer rows.Close()

	var items []*domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Unit, &item.MinimumThreshold, &item.PresenceOnly,
			&item.Hidden, &item.SortRank, &item.CategoryID, &item.SupplierID,
			&item.DeletedAt, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, &domain.TransientStoreError{Op: "scan item", Err: err}
		}
		items = append(items, &item)
	}

	return items, nil
}

func (r *catalogRepository) GetItem(ctx context.Context, id int) (*domain.CatalogItem, error) {
	query := `
		SELECT id, name, unit, minimum_threshold, presence_only, hidden,
		       sort_rank, category_id, supplier_id, deleted_at, created_at, updated_at
		FROM items
		WHERE id = $1
	`

	var item domain.CatalogItem
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Unit, &item.MinimumThreshold, &item.PresenceOnly,
		&item.Hidden, &item.SortRank, &item.CategoryID, &item.SupplierID,
		&item.DeletedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "item", ID: id}
	}
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "get item", Err: err}
	}

	return &item, nil
}

func (r *catalogRepository) UpdateItem(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		UPDATE items
		SET name = $1, unit = $2, minimum_threshold = $3, hidden = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		item.Name, item.Unit, item.MinimumThreshold, item.Hidden, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return &domain.TransientStoreError{Op: "update item", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "item", ID: item.ID}
	}
	return nil
}

func (r *catalogRepository) SoftDeleteItem(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE items SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return &domain.TransientStoreError{Op: "soft delete item", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "item", ID: id}
	}
	return nil
}

func (r *catalogRepository) RestoreItem(ctx context.Context, id int) error {
	query := `UPDATE items SET deleted_at = NULL, updated_at = $1 WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return &domain.TransientStoreError{Op: "restore item", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "item", ID: id}
	}
	return nil
}

// HardDeleteItem permanently removes the item together with every
// order line that snapshots it. This destroys order history; callers
// wanting reversible removal use SoftDeleteItem.
func (r *catalogRepository) HardDeleteItem(ctx context.Context, id int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &domain.TransientStoreError{Op: "begin hard delete", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE item_id = $1`, id); err != nil {
		return &domain.TransientStoreError{Op: "delete order lines", Err: err}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return &domain.TransientStoreError{Op: "delete item", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "item", ID: id}
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.TransientStoreError{Op: "commit hard delete", Err: err}
	}
	return nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	return r.createRanked(ctx, "categories", category.Name, &category.ID, &category.SortRank)
}

func (r *catalogRepository) CreateSupplier(ctx context.Context, supplier *domain.Supplier) error {
	return r.createRanked(ctx, "suppliers", supplier.Name, &supplier.ID, &supplier.SortRank)
}

func (r *catalogRepository) CreateLocation(ctx context.Context, location *domain.Location) error {
	return r.createRanked(ctx, "locations", location.Name, &location.ID, &location.SortRank)
}

func (r *catalogRepository) createRanked(ctx context.Context, table, name string, id, rank *int) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, sort_rank)
		VALUES ($1, (SELECT COALESCE(MAX(sort_rank) + 1, 0) FROM %s))
		RETURNING id, sort_rank
	`, table, table)
	if err := r.db.QueryRow(ctx, query, name).Scan(id, rank); err != nil {
		return &domain.TransientStoreError{Op: "create " + table, Err: err}
	}
	return nil
}

func (r *catalogRepository) ListRanked(ctx context.Context, collection domain.Collection) ([]domain.RankedRecord, error) {
	table, ok := rankedTables[collection]
	if !ok {
		return nil, &domain.ValidationError{Field: "collection", Message: "unknown collection " + string(collection)}
	}

	query := fmt.Sprintf(`SELECT id, name, sort_rank FROM %s`, table)
	if collection == domain.CollectionItems {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY sort_rank`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "list " + table, Err: err}
	}
	defer rows.Close()

	var records []domain.RankedRecord
	for rows.Next() {
		var rec domain.RankedRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.SortRank); err != nil {
			return nil, &domain.TransientStoreError{Op: "scan " + table, Err: err}
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *catalogRepository) SetRank(ctx context.Context, collection domain.Collection, id, rank int) error {
	table, ok := rankedTables[collection]
	if !ok {
		return &domain.ValidationError{Field: "collection", Message: "unknown collection " + string(collection)}
	}

	query := fmt.Sprintf(`UPDATE %s SET sort_rank = $1 WHERE id = $2`, table)
	tag, err := r.db.Exec(ctx, query, rank, id)
	if err != nil {
		return &domain.TransientStoreError{Op: "set rank on " + table, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: string(collection), ID: id}
	}
	return nil
}
