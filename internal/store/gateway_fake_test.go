package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anchor-labs/anchor/internal/gateway"
	"github.com/anchor-labs/anchor/internal/models"
)

// fakeGateway records calls and serves canned data. Behavior is overridable
// per test via the func fields; unset fields fall back to an in-memory table.
type fakeGateway struct {
	mu sync.Mutex

	items  []models.Item
	labels map[string][]models.Label // item ID -> labels

	listCalls   int
	labelCalls  int
	insertCalls int
	updateCalls int
	deleteCalls int
	findCalls   int

	ListItemsFunc func(ctx context.Context, q gateway.ItemQuery) ([]models.Item, error)
	InsertFunc    func(ctx context.Context, item models.Item) (models.Item, error)
	UpdateFunc    func(ctx context.Context, id string, patch models.ItemPatch) (models.Item, error)
	DeleteFunc    func(ctx context.Context, id string) error
	FindFunc      func(ctx context.Context, normalized string) (*models.Item, error)
}

func newFakeGateway(items ...models.Item) *fakeGateway {
	return &fakeGateway{items: items, labels: map[string][]models.Label{}}
}

func (f *fakeGateway) counts() (list, label, insert, update, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.labelCalls, f.insertCalls, f.updateCalls, f.deleteCalls
}

func (f *fakeGateway) ListItems(ctx context.Context, q gateway.ItemQuery) ([]models.Item, error) {
	f.mu.Lock()
	f.listCalls++
	fn := f.ListItemsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, q)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var filtered []models.Item
	for _, it := range f.items {
		if q.GroupID != nil && (it.GroupID == nil || *it.GroupID != *q.GroupID) {
			continue
		}
		filtered = append(filtered, it)
	}
	if q.Offset >= len(filtered) {
		return []models.Item{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := make([]models.Item, end-q.Offset)
	copy(page, filtered[q.Offset:end])
	return page, nil
}

func (f *fakeGateway) ListItemLabels(ctx context.Context, itemIDs []string) ([]models.ItemLabel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labelCalls++
	var rows []models.ItemLabel
	for _, id := range itemIDs {
		for _, l := range f.labels[id] {
			label := l
			rows = append(rows, models.ItemLabel{ItemID: id, LabelID: l.ID, Label: &label})
		}
	}
	return rows, nil
}

func (f *fakeGateway) FindItemByNormalizedURL(ctx context.Context, normalized string) (*models.Item, error) {
	f.mu.Lock()
	f.findCalls++
	fn := f.FindFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, normalized)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.NormalizedURL == normalized {
			found := it
			return &found, nil
		}
	}
	return nil, models.NewError("find item", models.KindNotFound, models.ErrNotFound)
}

func (f *fakeGateway) InsertItem(ctx context.Context, item models.Item) (models.Item, error) {
	f.mu.Lock()
	f.insertCalls++
	fn := f.InsertFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, item)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]models.Item{item}, f.items...)
	return item, nil
}

func (f *fakeGateway) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.Item, error) {
	f.mu.Lock()
	f.updateCalls++
	fn := f.UpdateFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id, patch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id {
			if patch.Title != nil {
				it.Title = *patch.Title
			}
			if patch.Note != nil {
				it.Note = *patch.Note
			}
			if patch.OpenedAt != nil {
				t := *patch.OpenedAt
				it.OpenedAt = &t
			}
			it.UpdatedAt = time.Now().UTC()
			f.items[i] = it
			return it, nil
		}
	}
	return models.Item{}, models.NewError("update item", models.KindNotFound, models.ErrNotFound)
}

func (f *fakeGateway) DeleteItem(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleteCalls++
	fn := f.DeleteFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return models.NewError("delete item", models.KindNotFound, models.ErrNotFound)
}

func (f *fakeGateway) EnsureLabel(ctx context.Context, name string) (models.Label, error) {
	return models.Label{ID: "label-" + name, Name: name}, nil
}

func (f *fakeGateway) SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error {
	return nil
}

// makeItems builds n items newest-first, matching the remote sort order.
func makeItems(n int) []models.Item {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := make([]models.Item, n)
	for i := range items {
		items[i] = models.Item{
			ID:            fmt.Sprintf("item-%03d", i),
			UserID:        "u1",
			URL:           fmt.Sprintf("https://example.com/%d", i),
			NormalizedURL: fmt.Sprintf("https://example.com/%d", i),
			Title:         fmt.Sprintf("Article %d", i),
			Domain:        "example.com",
			CreatedAt:     base.Add(-time.Duration(i) * time.Minute),
			UpdatedAt:     base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return items
}

func idsOf(items []models.JoinedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
