package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anchor-labs/anchor/internal/models"
	"github.com/anchor-labs/anchor/internal/normalize"
)

// Save validates and saves a new link. The URL is normalized first; if the
// user already holds an item with the same normalized URL, a
// *models.DuplicateError referencing it is returned and nothing is written,
// unless in.Force is set. The new record is appended to the cache
// optimistically and removed again if the remote insert fails.
//
// Title, description, and thumbnail are filled in later by the background
// enrichment job; the store only picks them up on the next refetch.
func (s *Store) Save(ctx context.Context, in models.SaveInput) (models.JoinedItem, error) {
	if err := models.Validate("save item", in); err != nil {
		return models.JoinedItem{}, err
	}
	nurl, err := normalize.URL(in.URL)
	if err != nil {
		return models.JoinedItem{}, models.NewError("save item", models.KindValidation, err)
	}

	if !in.Force {
		if existing, ok, err := s.findDuplicate(ctx, nurl); err != nil {
			return models.JoinedItem{}, err
		} else if ok {
			return models.JoinedItem{}, &models.DuplicateError{Existing: existing}
		}
	}

	now := time.Now().UTC()
	item := models.Item{
		ID:            uuid.NewString(),
		UserID:        s.userID,
		URL:           in.URL,
		NormalizedURL: nurl,
		Domain:        normalize.Domain(in.URL),
		Note:          in.Note,
		GroupID:       in.GroupID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rec := models.JoinedItem{Item: item, Labels: []models.Label{}}

	m := mutation{
		apply:      func() { s.insertLocked(rec) },
		compensate: func() { s.removeLocked(rec.ID) },
	}
	err = s.run(m, func() error {
		stored, err := s.gw.InsertItem(ctx, item)
		if err != nil {
			return err
		}
		item = stored
		return s.attachLabels(ctx, stored.ID, in.Labels)
	})
	if err != nil {
		return models.JoinedItem{}, fmt.Errorf("save %s: %w", in.URL, err)
	}

	// Swap in the stored row; label rows arrive on the next refetch.
	s.mu.Lock()
	for _, col := range s.cols {
		for i, it := range col.items {
			if it.ID == rec.ID {
				col.items[i] = models.JoinedItem{Item: item, Labels: it.Labels}
				break
			}
		}
	}
	s.mu.Unlock()
	return models.JoinedItem{Item: item, Labels: []models.Label{}}, nil
}

// findDuplicate checks the cache first, then the remote, for an item with the
// same normalized URL. The remote check keeps the duplicate signal meaningful
// when the matching record sits on a page that was never fetched.
func (s *Store) findDuplicate(ctx context.Context, nurl string) (models.JoinedItem, bool, error) {
	s.mu.Lock()
	if col, ok := s.cols[ScopeAll]; ok {
		for _, it := range col.items {
			if it.NormalizedURL == nurl {
				s.mu.Unlock()
				return it, true, nil
			}
		}
	}
	s.mu.Unlock()

	existing, err := s.gw.FindItemByNormalizedURL(ctx, nurl)
	if err != nil {
		if models.KindOf(err) == models.KindNotFound {
			return models.JoinedItem{}, false, nil
		}
		return models.JoinedItem{}, false, fmt.Errorf("duplicate check: %w", err)
	}
	return models.JoinedItem{Item: *existing, Labels: []models.Label{}}, true, nil
}

// attachLabels resolves each label name (creating missing ones) and binds the
// set to the item.
func (s *Store) attachLabels(ctx context.Context, itemID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		label, err := s.gw.EnsureLabel(ctx, name)
		if err != nil {
			return fmt.Errorf("ensure label %q: %w", name, err)
		}
		ids = append(ids, label.ID)
	}
	return s.gw.SetItemLabels(ctx, itemID, ids)
}

// insertLocked places rec at the top of every collection it belongs to: the
// all-items list, and the matching group list if that collection is live.
func (s *Store) insertLocked(rec models.JoinedItem) {
	for scope, col := range s.cols {
		if scope != ScopeAll && (rec.GroupID == nil || *rec.GroupID != scope) {
			continue
		}
		col.items = append([]models.JoinedItem{rec}, col.items...)
	}
}

// Undoable reports whether id currently has a deferred delete that can still
// be undone.
func (s *Store) Undoable(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// IsDuplicate reports whether err is the duplicate-save signal and returns
// the existing item when it is.
func IsDuplicate(err error) (models.JoinedItem, bool) {
	var dup *models.DuplicateError
	if errors.As(err, &dup) {
		return dup.Existing, true
	}
	return models.JoinedItem{}, false
}
