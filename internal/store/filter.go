package store

import (
	"strings"
	"time"

	"github.com/anchor-labs/anchor/internal/models"
)

func (s *Store) newDebounceTimer(scope string) *time.Timer {
	return time.AfterFunc(s.opts.Debounce, func() { s.commitQuery(scope) })
}

// SetQuery records a new query string for the scope and arms the debounce
// timer. Any pending recomputation is cancelled first, so the derived view
// only recomputes once input has been quiet for the debounce interval.
// Query state is held per scope; searching in one group never leaks into
// another.
func (s *Store) SetQuery(scope, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	col := s.collectionLocked(scope)
	col.stopTimerLocked()
	col.pendingQ = text
	col.timer = s.newDebounceTimer(scope)
}

// Query returns the scope's committed query string.
func (s *Store) Query(scope string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionLocked(scope).query
}

// commitQuery fires when the debounce timer elapses uninterrupted.
func (s *Store) commitQuery(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.cols[scope]
	if !ok || s.closed {
		return
	}
	col.timer = nil
	col.query = col.pendingQ
	col.publishLocked()
}

// viewLocked derives the filtered view from the cached items. Recompute is a
// linear scan; the cached page set is small (tens to low hundreds of records)
// so no index is kept.
func (c *collection) viewLocked() []models.JoinedItem {
	q := strings.ToLower(strings.TrimSpace(c.query))
	if q == "" {
		out := make([]models.JoinedItem, len(c.items))
		copy(out, c.items)
		return out
	}
	out := make([]models.JoinedItem, 0, len(c.items))
	for _, it := range c.items {
		if matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

// matches reports whether q (already lowercased and trimmed) is a substring
// of any searched field: title, note, domain, or an associated label name.
func matches(it models.JoinedItem, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) ||
		strings.Contains(strings.ToLower(it.Note), q) ||
		strings.Contains(strings.ToLower(it.Domain), q) {
		return true
	}
	for _, l := range it.Labels {
		if strings.Contains(strings.ToLower(l.Name), q) {
			return true
		}
	}
	return false
}
