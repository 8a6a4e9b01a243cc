// Package service implements the emulator's business rules between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/anchor-labs/anchor/internal/models"
)

// ItemRepository defines the persistence operations the ItemService needs.
type ItemRepository interface {
	List(ctx context.Context, userID string, groupID *string, offset, limit int) ([]models.Item, error)
	FindByNormalizedURL(ctx context.Context, userID, normalized string) (*models.Item, error)
	Insert(ctx context.Context, it models.Item) error
	Update(ctx context.Context, userID, id string, patch models.ItemPatch) (*models.Item, error)
	SoftDelete(ctx context.Context, userID, id string) error
}

// LabelRepository defines the persistence operations for labels and join rows.
type LabelRepository interface {
	FindByName(ctx context.Context, userID, name string) (*models.Label, error)
	Insert(ctx context.Context, l models.Label) error
	ListItemLabels(ctx context.Context, userID string, itemIDs []string) ([]models.ItemLabel, error)
	SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error
}

// maxPageSize caps range-limited reads regardless of what the client asks for.
const maxPageSize = 100

// ItemService implements item and label operations.
type ItemService struct {
	items  ItemRepository
	labels LabelRepository
}

// NewItemService constructs an ItemService from its repositories.
func NewItemService(items ItemRepository, labels LabelRepository) *ItemService {
	return &ItemService{items: items, labels: labels}
}

// List returns one page of the user's items. Limit is clamped to maxPageSize;
// a non-positive limit selects the default of 30.
func (s *ItemService) List(ctx context.Context, userID string, groupID *string, offset, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = 30
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.items.List(ctx, userID, groupID, offset, limit)
}

// FindByNormalizedURL resolves the duplicate-check lookup.
func (s *ItemService) FindByNormalizedURL(ctx context.Context, userID, normalized string) (*models.Item, error) {
	return s.items.FindByNormalizedURL(ctx, userID, normalized)
}

// Insert stores a new item for the user. The owning user always comes from
// the authenticated identity, never the payload.
func (s *ItemService) Insert(ctx context.Context, userID string, it models.Item) (models.Item, error) {
	it.UserID = userID
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if err := s.items.Insert(ctx, it); err != nil {
		return models.Item{}, err
	}
	return it, nil
}

// Update patches the user's item.
func (s *ItemService) Update(ctx context.Context, userID, id string, patch models.ItemPatch) (*models.Item, error) {
	if err := models.ValidatePatch(patch); err != nil {
		return nil, err
	}
	return s.items.Update(ctx, userID, id, patch)
}

// Delete soft-deletes the user's item.
func (s *ItemService) Delete(ctx context.Context, userID, id string) error {
	return s.items.SoftDelete(ctx, userID, id)
}

// ItemLabels returns all join rows for the given item set in one query.
func (s *ItemService) ItemLabels(ctx context.Context, userID string, itemIDs []string) ([]models.ItemLabel, error) {
	if len(itemIDs) == 0 {
		return []models.ItemLabel{}, nil
	}
	return s.labels.ListItemLabels(ctx, userID, itemIDs)
}

// EnsureLabel resolves a label by name, creating it on first use.
func (s *ItemService) EnsureLabel(ctx context.Context, userID, name string) (models.Label, error) {
	existing, err := s.labels.FindByName(ctx, userID, name)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.Label{}, err
	}
	l := models.Label{ID: uuid.NewString(), UserID: userID, Name: name}
	if err := s.labels.Insert(ctx, l); err != nil {
		return models.Label{}, err
	}
	return l, nil
}

// SetItemLabels replaces the item's label set.
func (s *ItemService) SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error {
	return s.labels.SetItemLabels(ctx, itemID, labelIDs)
}
