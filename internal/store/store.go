// Package store implements the client-side data layer: an in-memory cache of
// joined item records exposed reactively to consumers, with optimistic
// mutations, batched relational joins, pagination, and debounced filtering.
//
// The cache is the only shared mutable resource. It is guarded by a single
// mutex; remote calls always happen outside the lock, so an older slow
// response can still land after a newer one ("last response wins", which the
// design accepts).
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/gateway"
	"github.com/anchor-labs/anchor/internal/models"
)

// ScopeAll is the collection key for the unscoped, all-items list. Any other
// key is a group ID and scopes the collection to that group.
const ScopeAll = ""

// Gateway is the remote surface the store depends on. *gateway.Client
// satisfies it; tests substitute fakes.
type Gateway interface {
	ListItems(ctx context.Context, q gateway.ItemQuery) ([]models.Item, error)
	ListItemLabels(ctx context.Context, itemIDs []string) ([]models.ItemLabel, error)
	FindItemByNormalizedURL(ctx context.Context, normalized string) (*models.Item, error)
	InsertItem(ctx context.Context, item models.Item) (models.Item, error)
	UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.Item, error)
	DeleteItem(ctx context.Context, id string) error
	EnsureLabel(ctx context.Context, name string) (models.Label, error)
	SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error
}

// Options tune the store. Zero values select the defaults.
type Options struct {
	// PageSize is the fixed page size for fetches. Default 30.
	PageSize int
	// Debounce is the quiet period before a query recomputes. Default 300ms.
	Debounce time.Duration
	// UndoWindow is how long DeleteWithUndo defers the remote delete.
	// Default 4s.
	UndoWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 30
	}
	if o.Debounce <= 0 {
		o.Debounce = 300 * time.Millisecond
	}
	if o.UndoWindow <= 0 {
		o.UndoWindow = 4 * time.Second
	}
	return o
}

// Store holds the cached pages and coordinates all mutations. One Store
// serves one user identity; SetUser rebuilds it from scratch.
type Store struct {
	mu      sync.Mutex
	gw      Gateway
	log     *zap.Logger
	opts    Options
	userID  string
	cols    map[string]*collection
	pending map[string]*pendingDelete
	nextSub int
	closed  bool
}

// collection is one cached, observable list: either the all-items list or a
// group-scoped one. Each collection carries fully independent pagination and
// query state, so switching groups never cross-contaminates search text.
type collection struct {
	scope string
	items []models.JoinedItem

	// Pagination cursor.
	state  pageState
	page   int
	loaded bool

	// Debounced filter.
	query    string
	pendingQ string
	timer    *time.Timer

	subs map[int]chan []models.JoinedItem
}

// New returns a Store bound to the given user identity. Nothing is fetched
// until the first read.
func New(gw Gateway, userID string, log *zap.Logger, opts Options) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		gw:      gw,
		log:     log,
		opts:    opts.withDefaults(),
		userID:  userID,
		cols:    make(map[string]*collection),
		pending: make(map[string]*pendingDelete),
	}
}

// collectionLocked returns the collection for scope, creating it lazily.
// Callers must hold s.mu.
func (s *Store) collectionLocked(scope string) *collection {
	col, ok := s.cols[scope]
	if !ok {
		col = &collection{
			scope: scope,
			subs:  make(map[int]chan []models.JoinedItem),
		}
		s.cols[scope] = col
	}
	return col
}

// Subscribe registers an observer of the scope's filtered view. The returned
// channel receives a fresh view on every snapshot replacement; it is conflated,
// so a slow consumer only ever sees the latest view. The cancel function must
// be called when the observer goes away; when the last observer of a scope
// detaches, the scope's cache and query state are torn down.
func (s *Store) Subscribe(scope string) (<-chan []models.JoinedItem, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collectionLocked(scope)
	id := s.nextSub
	s.nextSub++
	ch := make(chan []models.JoinedItem, 1)
	col.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.cols[scope]
		if !ok {
			return
		}
		if _, live := cur.subs[id]; !live {
			return
		}
		delete(cur.subs, id)
		if len(cur.subs) == 0 {
			cur.stopTimerLocked()
			delete(s.cols, scope)
		}
	}
	return ch, cancel
}

// Snapshot returns the scope's current filtered view, triggering the initial
// fetch if the collection has not loaded yet.
func (s *Store) Snapshot(ctx context.Context, scope string) ([]models.JoinedItem, error) {
	s.mu.Lock()
	col := s.collectionLocked(scope)
	if col.loaded || col.state == stateLoadingInitial {
		view := col.viewLocked()
		s.mu.Unlock()
		return view, nil
	}
	col.state = stateLoadingInitial
	s.mu.Unlock()

	return s.loadInitial(ctx, scope)
}

// Refresh discards the scope's cache and refetches the first page from
// scratch, replacing the snapshot. Any pagination state is reset.
func (s *Store) Refresh(ctx context.Context, scope string) ([]models.JoinedItem, error) {
	s.mu.Lock()
	col := s.collectionLocked(scope)
	col.state = stateLoadingInitial
	s.mu.Unlock()

	return s.loadInitial(ctx, scope)
}

// loadInitial fetches page zero and replaces the collection's items.
func (s *Store) loadInitial(ctx context.Context, scope string) ([]models.JoinedItem, error) {
	joined, err := s.fetchPage(ctx, scope, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collectionLocked(scope)
	if err != nil {
		col.state = stateIdle
		return nil, err
	}
	col.items = joined
	col.page = 0
	col.loaded = true
	if len(joined) < s.opts.PageSize {
		col.state = stateExhausted
	} else {
		col.state = stateIdle
	}
	col.publishLocked()
	return col.viewLocked(), nil
}

// LoadNextPage appends the next page to the scope's snapshot. It is a no-op
// while a load is in flight or after a short page marked the end of data.
func (s *Store) LoadNextPage(ctx context.Context, scope string) error {
	s.mu.Lock()
	col := s.collectionLocked(scope)
	if !col.loaded || col.state != stateIdle {
		s.mu.Unlock()
		return nil
	}
	col.state = stateLoadingMore
	next := col.page + 1
	s.mu.Unlock()

	joined, err := s.fetchPage(ctx, scope, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	col = s.collectionLocked(scope)
	if err != nil {
		col.state = stateIdle
		return err
	}
	col.items = append(col.items, joined...)
	col.page = next
	if len(joined) < s.opts.PageSize {
		col.state = stateExhausted
	} else {
		col.state = stateIdle
	}
	col.publishLocked()
	return nil
}

// fetchPage runs the two-query batched join for one page of the scope.
func (s *Store) fetchPage(ctx context.Context, scope string, page int) ([]models.JoinedItem, error) {
	q := gateway.ItemQuery{
		Offset: page * s.opts.PageSize,
		Limit:  s.opts.PageSize,
	}
	if scope != ScopeAll {
		g := scope
		q.GroupID = &g
	}
	return fetchJoined(ctx, s.gw, q)
}

// SetUser rebinds the store to a different user, discarding every cached
// collection and closing all subscriber channels. Consumers must resubscribe.
func (s *Store) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == s.userID {
		return
	}
	s.userID = userID
	s.teardownLocked()
	s.cols = make(map[string]*collection)
}

// Close tears the store down: pending timers are stopped and subscriber
// channels closed. Deferred deletes that have not fired yet are abandoned.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.teardownLocked()
}

func (s *Store) teardownLocked() {
	for _, col := range s.cols {
		col.stopTimerLocked()
		for id, ch := range col.subs {
			close(ch)
			delete(col.subs, id)
		}
	}
	for id, pd := range s.pending {
		pd.timer.Stop()
		delete(s.pending, id)
	}
}

// publishLocked pushes the current filtered view to every subscriber of the
// collection, conflating: a pending unread view is replaced, never queued.
func (c *collection) publishLocked() {
	view := c.viewLocked()
	for _, ch := range c.subs {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}

func (c *collection) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// sortItemsLocked restores the fetch order (newest first) after a rollback
// re-inserted a record.
func (c *collection) sortItemsLocked() {
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].CreatedAt.After(c.items[j].CreatedAt)
	})
}
