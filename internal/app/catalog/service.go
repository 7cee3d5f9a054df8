package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

// Service manages the item catalog and rank maintenance for every
// manually-orderable collection.
type Service struct {
	repo   interfaces.CatalogRepository
	logger logger.Logger

	// Rank rewrites are a critical section per collection: two
	// concurrent reorders on the same collection would corrupt the
	// contiguous-rank invariant.
	locks map[domain.Collection]*sync.Mutex
}

func NewService(repo interfaces.CatalogRepository, logger logger.Logger) *Service {
	locks := make(map[domain.Collection]*sync.Mutex)
	for _, c := range []domain.Collection{
		domain.CollectionItems,
		domain.CollectionCategories,
		domain.CollectionSuppliers,
		domain.CollectionLocations,
	} {
		locks[c] = &sync.Mutex{}
	}
	return &Service{repo: repo, logger: logger, locks: locks}
}

func (s *Service) CreateItem(ctx context.Context, cmd interfaces.CreateItemCommand) (*domain.CatalogItem, error) {
	item, err := domain.NewCatalogItem(cmd.Name, cmd.Unit, cmd.MinimumThreshold, cmd.PresenceOnly)
	if err != nil {
		return nil, &domain.ValidationError{Field: "item", Message: err.Error()}
	}
	item.CategoryID = cmd.CategoryID
	item.SupplierID = cmd.SupplierID

	if err := s.repo.CreateItem(ctx, item); err != nil {
		s.logger.Error("item_create_failed", "Failed to create catalog item", "", nil, err)
		return nil, err
	}

	s.logger.Debug("item_created", "Catalog item created", "", map[string]interface{}{"item_id": item.ID})
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, includeDeleted bool) ([]*domain.CatalogItem, error) {
	return s.repo.ListItems(ctx, includeDeleted)
}

func (s *Service) UpdateItem(ctx context.Context, cmd interfaces.UpdateItemCommand) (*domain.CatalogItem, error) {
	item, err := s.repo.GetItem(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if len(cmd.Name) < 1 || len(cmd.Name) > 100 {
		return nil, &domain.ValidationError{Field: "name", Message: "must be 1-100 characters"}
	}
	if cmd.MinimumThreshold < 0 {
		return nil, &domain.ValidationError{Field: "minimum_threshold", Message: "cannot be negative"}
	}

	item.Name = cmd.Name
	item.Unit = cmd.Unit
	item.MinimumThreshold = cmd.MinimumThreshold
	item.Hidden = cmd.Hidden
	item.UpdatedAt = time.Now()

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) SoftDeleteItem(ctx context.Context, id int) error {
	return s.repo.SoftDeleteItem(ctx, id, time.Now())
}

func (s *Service) RestoreItem(ctx context.Context, id int) error {
	return s.repo.RestoreItem(ctx, id)
}

// HardDeleteItem permanently removes the item and cascades into its
// order-line snapshots. Historical orders lose those lines for good.
func (s *Service) HardDeleteItem(ctx context.Context, id int) error {
	if err := s.repo.HardDeleteItem(ctx, id); err != nil {
		return err
	}
	s.logger.Info("item_hard_deleted", "Catalog item and its order history destroyed", "",
		map[string]interface{}{"item_id": id})
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}
	category := &domain.Category{Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) CreateSupplier(ctx context.Context, name string) (*domain.Supplier, error) {
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}
	supplier := &domain.Supplier{Name: name}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *Service) CreateLocation(ctx context.Context, name string) (*domain.Location, error) {
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}
	location := &domain.Location{Name: name}
	if err := s.repo.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *Service) ListCollection(ctx context.Context, collection domain.Collection) ([]domain.RankedRecord, error) {
	if !collection.Valid() {
		return nil, &domain.ValidationError{Field: "collection", Message: "unknown collection " + string(collection)}
	}
	return s.repo.ListRanked(ctx, collection)
}

// Reorder moves one member of a collection and renormalizes every
// member's rank to 0..n-1. Previous ranks may contain gaps from
// deletions; the whole collection is rewritten, one awaited SetRank
// per member. On a mid-sequence failure the optimistic result is
// discarded and the authoritative state is reloaded and returned
// alongside the error.
func (s *Service) Reorder(ctx context.Context, cmd interfaces.ReorderCommand) ([]domain.RankedRecord, error) {
	if !cmd.Collection.Valid() {
		return nil, &domain.ValidationError{Field: "collection", Message: "unknown collection " + string(cmd.Collection)}
	}

	mu := s.locks[cmd.Collection]
	mu.Lock()
	defer mu.Unlock()

	records, err := s.repo.ListRanked(ctx, cmd.Collection)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(records))
	byID := make(map[int]domain.RankedRecord, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		byID[rec.ID] = rec
	}

	reordered, err := domain.Reorder(ids, cmd.FromIndex, cmd.ToIndex)
	if err != nil {
		return nil, err
	}

	return s.persistRanks(ctx, cmd.Collection, reordered, byID)
}

// AutoSortItems assigns ranks from a full sort of the item collection
// by the requested field, tie-broken by item name so repeated runs are
// stable. Same renormalization and failure discipline as Reorder.
func (s *Service) AutoSortItems(ctx context.Context, field interfaces.ItemSortField) ([]domain.RankedRecord, error) {
	mu := s.locks[domain.CollectionItems]
	mu.Lock()
	defer mu.Unlock()

	items, err := s.repo.ListItems(ctx, false)
	if err != nil {
		return nil, err
	}

	categoryNames, supplierNames, err := s.lookupNames(ctx, field)
	if err != nil {
		return nil, err
	}

	keys := make([]domain.AutoSortKey, 0, len(items))
	byID := make(map[int]domain.RankedRecord, len(items))
	for _, item := range items {
		key := domain.AutoSortKey{ID: item.ID, Name: item.Name}
		switch field {
		case interfaces.SortByName:
			key.Primary = item.Name
		case interfaces.SortBySupplier:
			if item.SupplierID != nil {
				key.Primary = supplierNames[*item.SupplierID]
			}
		case interfaces.SortByCategory:
			if item.CategoryID != nil {
				key.Primary = categoryNames[*item.CategoryID]
			}
		default:
			return nil, &domain.ValidationError{Field: "sort_field", Message: "must be one of: name, supplier, category"}
		}
		keys = append(keys, key)
		byID[item.ID] = domain.RankedRecord{ID: item.ID, Name: item.Name}
	}

	ordered := domain.OrderByKeys(keys)
	return s.persistRanks(ctx, domain.CollectionItems, ordered, byID)
}

func (s *Service) lookupNames(ctx context.Context, field interfaces.ItemSortField) (categories, suppliers map[int]string, err error) {
	names := func(collection domain.Collection) (map[int]string, error) {
		records, err := s.repo.ListRanked(ctx, collection)
		if err != nil {
			return nil, err
		}
		m := make(map[int]string, len(records))
		for _, rec := range records {
			m[rec.ID] = rec.Name
		}
		return m, nil
	}

	switch field {
	case interfaces.SortByCategory:
		categories, err = names(domain.CollectionCategories)
	case interfaces.SortBySupplier:
		suppliers, err = names(domain.CollectionSuppliers)
	}
	return categories, suppliers, err
}

// persistRanks writes rank = index for every member, sequentially and
// awaited. Any failure discards the optimistic result and returns the
// reloaded authoritative collection together with the error.
func (s *Service) persistRanks(ctx context.Context, collection domain.Collection, ids []int, byID map[int]domain.RankedRecord) ([]domain.RankedRecord, error) {
	result := make([]domain.RankedRecord, len(ids))
	for rank, id := range ids {
		if err := s.repo.SetRank(ctx, collection, id, rank); err != nil {
			s.logger.Error("rank_write_failed", "Rank rewrite failed mid-sequence, reloading collection", "",
				map[string]interface{}{"collection": string(collection), "member_id": id, "rank": rank}, err)

			authoritative, reloadErr := s.repo.ListRanked(ctx, collection)
			if reloadErr != nil {
				return nil, fmt.Errorf("rank rewrite failed and reload failed: %w", reloadErr)
			}
			return authoritative, err
		}
		rec := byID[id]
		rec.SortRank = rank
		result[rank] = rec
	}
	return result, nil
}
