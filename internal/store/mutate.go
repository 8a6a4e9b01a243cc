package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/models"
)

// A mutation pairs a forward action applied to the cache immediately with a
// compensating action invoked only if the remote write fails. The captured
// prior state lives in the compensate closure. Rollback operates on the
// current, possibly further-mutated snapshot; after rollback the visible
// state is consistent with the last known-good remote state again.
type mutation struct {
	apply      func()
	compensate func()
}

// run applies the mutation optimistically, performs the remote effect, and
// compensates on failure. The store lock is never held across the remote call.
func (s *Store) run(m mutation, remote func() error) error {
	s.mu.Lock()
	m.apply()
	s.publishAllLocked()
	s.mu.Unlock()

	if err := remote(); err != nil {
		s.mu.Lock()
		m.compensate()
		s.publishAllLocked()
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) publishAllLocked() {
	for _, col := range s.cols {
		col.publishLocked()
	}
}

// removed captures where a record sat in one collection before a delete.
type removed struct {
	scope string
	index int
	item  models.JoinedItem
}

// removeLocked deletes id from every cached collection, returning the
// captured records for compensation.
func (s *Store) removeLocked(id string) []removed {
	var caps []removed
	for scope, col := range s.cols {
		for i, it := range col.items {
			if it.ID != id {
				continue
			}
			caps = append(caps, removed{scope: scope, index: i, item: it})
			col.items = append(col.items[:i:i], col.items[i+1:]...)
			break
		}
	}
	return caps
}

// restoreLocked re-inserts captured records into the current snapshots.
// A refetch may have landed between removal and restore and brought the
// record back already; those captures are skipped instead of inserted twice.
func (s *Store) restoreLocked(caps []removed) {
	for _, rec := range caps {
		col, ok := s.cols[rec.scope]
		if !ok {
			continue
		}
		if hasID(col.items, rec.item.ID) {
			continue
		}
		idx := rec.index
		if idx > len(col.items) {
			idx = len(col.items)
		}
		col.items = append(col.items[:idx:idx], append([]models.JoinedItem{rec.item}, col.items[idx:]...)...)
		col.sortItemsLocked()
	}
}

func hasID(items []models.JoinedItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Delete removes the item from the observable snapshot synchronously, then
// issues the remote delete. If the remote delete fails, the captured record
// is re-inserted into the current snapshot and the error is returned.
func (s *Store) Delete(ctx context.Context, id string) error {
	var caps []removed
	m := mutation{
		apply:      func() { caps = s.removeLocked(id) },
		compensate: func() { s.restoreLocked(caps) },
	}
	if err := s.run(m, func() error { return s.gw.DeleteItem(ctx, id) }); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// pendingDelete is a delete whose remote write is deferred by the undo window.
type pendingDelete struct {
	timer *time.Timer
	caps  []removed
}

// DeleteWithUndo removes the item optimistically and defers the remote delete
// by the undo window. The returned func cancels the delete and restores the
// record if called before the window elapses; afterwards it is a no-op.
// A remote failure after the window rolls the cache back and is logged, since
// the caller is long gone by then.
func (s *Store) DeleteWithUndo(id string) (undo func()) {
	s.mu.Lock()
	if s.closed || s.pending[id] != nil {
		s.mu.Unlock()
		return func() {}
	}
	caps := s.removeLocked(id)
	pd := &pendingDelete{caps: caps}
	pd.timer = time.AfterFunc(s.opts.UndoWindow, func() { s.finishDelete(id) })
	s.pending[id] = pd
	s.publishAllLocked()
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		pd, ok := s.pending[id]
		if !ok {
			return
		}
		pd.timer.Stop()
		delete(s.pending, id)
		s.restoreLocked(pd.caps)
		s.publishAllLocked()
	}
}

// finishDelete performs the deferred remote delete once the undo window has
// passed uncancelled.
func (s *Store) finishDelete(id string) {
	s.mu.Lock()
	pd, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.gw.DeleteItem(ctx, id); err != nil {
		s.log.Warn("deferred delete failed, restoring record",
			zap.String("item_id", id), zap.Error(err))
		s.mu.Lock()
		s.restoreLocked(pd.caps)
		s.publishAllLocked()
		s.mu.Unlock()
	}
}

// Update patches the item optimistically, then performs the remote update.
// On success the remote row replaces the optimistic one (it carries the
// authoritative timestamps); on failure the captured prior record is restored
// and the error returned.
func (s *Store) Update(ctx context.Context, id string, patch models.ItemPatch) error {
	if err := models.ValidatePatch(patch); err != nil {
		return err
	}

	prior := make(map[string]models.JoinedItem)
	m := mutation{
		apply: func() {
			// The record is patched in place in every collection that holds
			// it. A group change does not move it between group-scoped
			// collections; membership is corrected on the next refetch.
			for scope, col := range s.cols {
				for i, it := range col.items {
					if it.ID != id {
						continue
					}
					prior[scope] = it
					col.items[i] = applyPatch(it, patch)
					break
				}
			}
		},
		compensate: func() {
			for scope, before := range prior {
				s.replaceLocked(scope, id, before)
			}
		},
	}

	var stored models.Item
	err := s.run(m, func() error {
		var err error
		stored, err = s.gw.UpdateItem(ctx, id, patch)
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}

	s.mu.Lock()
	for scope := range prior {
		col, ok := s.cols[scope]
		if !ok {
			continue
		}
		for i, it := range col.items {
			if it.ID == id {
				col.items[i] = models.JoinedItem{Item: stored, Labels: it.Labels}
				break
			}
		}
		col.publishLocked()
	}
	s.mu.Unlock()
	return nil
}

// MarkOpened stamps the item's opened-at timestamp. It has no effect on
// organization; only the timestamp changes.
func (s *Store) MarkOpened(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.Update(ctx, id, models.ItemPatch{OpenedAt: &now})
}

func (s *Store) replaceLocked(scope, id string, rec models.JoinedItem) {
	col, ok := s.cols[scope]
	if !ok {
		return
	}
	for i, it := range col.items {
		if it.ID == id {
			col.items[i] = rec
			return
		}
	}
}

// applyPatch returns a copy of it with the patch's non-nil fields applied.
func applyPatch(it models.JoinedItem, p models.ItemPatch) models.JoinedItem {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Note != nil {
		it.Note = *p.Note
	}
	if p.GroupID != nil {
		if *p.GroupID == "" {
			it.GroupID = nil
		} else {
			g := *p.GroupID
			it.GroupID = &g
		}
	}
	if p.OpenedAt != nil {
		t := *p.OpenedAt
		it.OpenedAt = &t
	}
	it.UpdatedAt = time.Now().UTC()
	return it
}
