package ranking

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies an engagement mutation
type EventKind string

const (
	EventView      EventKind = "view"
	EventLike      EventKind = "like"
	EventUnlike    EventKind = "unlike"
	EventComment   EventKind = "comment"
	EventUncomment EventKind = "uncomment"
)

// EngagementEvent is a transient mutation request. Delta only applies to
// comment and uncomment and defaults to 1.
type EngagementEvent struct {
	ContentID string
	Kind      EventKind
	UserID    string
	Delta     int64
}

// ContentMeta is the immutable-per-publish description of a content item the
// composer filters on.
type ContentMeta struct {
	AuthorID  string
	Category  string
	Tags      []string
	CreatedAt time.Time
}

// Snapshot is a consistent read of one ledger item
type Snapshot struct {
	ContentID string    `json:"content_id"`
	Counters  Counters  `json:"counters"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	ScoredAt  time.Time `json:"scored_at"`
}

type ledgerItem struct {
	meta atomic.Pointer[ContentMeta]

	mu       sync.Mutex
	counters Counters
	score    float64
	scoredAt time.Time
	removed  bool
}

// snapshot must be called with it.mu held
func (it *ledgerItem) snapshot(id string) Snapshot {
	return Snapshot{
		ContentID: id,
		Counters:  it.counters,
		Score:     it.score,
		CreatedAt: it.meta.Load().CreatedAt,
		ScoredAt:  it.scoredAt,
	}
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is the only mutator of engagement counters and scores. Mutations are
// serialized per content ID and run in parallel across IDs; each one updates
// counters, score and the index entry together or not at all.
//
// Lock order: item.mu before the index lock. The item map lock is never held
// while waiting on an existing item or on the index. Readers walking the
// index (Composer) call Meta with the index read lock held, so the index
// lock may be held while taking the item map read lock, never the reverse.
type Ledger struct {
	calc  Calculator
	index *Index
	now   func() time.Time

	mu    sync.RWMutex
	items map[string]*ledgerItem

	dirtyMu sync.Mutex
	dirty   map[string]struct{}
}

// NewLedger creates a ledger that writes scores into index
func NewLedger(calc Calculator, index *Index, opts ...LedgerOption) (*Ledger, error) {
	if err := calc.Validate(); err != nil {
		return nil, err
	}
	if index == nil {
		return nil, invalid("index", "must not be nil")
	}

	l := &Ledger{
		calc:  calc,
		index: index,
		now:   time.Now,
		items: make(map[string]*ledgerItem),
		dirty: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Index returns the index this ledger maintains
func (l *Ledger) Index() *Index {
	return l.index
}

// Calculator returns the scoring parameters in use
func (l *Ledger) Calculator() Calculator {
	return l.calc
}

// Publish registers a published item with its current counters and scores it.
// Publishing an ID that is already present replaces its metadata (tags,
// category, author) and keeps its counters and creation time.
func (l *Ledger) Publish(contentID string, meta ContentMeta, counters Counters) error {
	if contentID == "" {
		return invalid("content_id", "must not be empty")
	}
	if err := counters.validate(); err != nil {
		return err
	}

	now := l.now()
	normalized := normalizeMeta(meta, now)

	l.mu.Lock()
	if existing, ok := l.items[contentID]; ok {
		normalized.CreatedAt = existing.meta.Load().CreatedAt
		existing.meta.Store(&normalized)
		l.mu.Unlock()
		return nil
	}

	score, err := l.calc.Score(counters, AgeHours(normalized.CreatedAt, now))
	if err != nil {
		l.mu.Unlock()
		return err
	}

	it := &ledgerItem{counters: counters, score: score, scoredAt: now}
	it.meta.Store(&normalized)

	// Nobody else can reach it yet, so taking its lock under l.mu is safe.
	it.mu.Lock()
	l.items[contentID] = it
	l.mu.Unlock()
	defer it.mu.Unlock()

	if err := l.index.Upsert(contentID, score, normalized.CreatedAt); err != nil {
		l.mu.Lock()
		delete(l.items, contentID)
		l.mu.Unlock()
		it.removed = true
		return err
	}
	return nil
}

// Remove drops an item from the ledger and the index and returns its final
// state so the caller can persist it.
func (l *Ledger) Remove(contentID string) (Snapshot, error) {
	l.mu.Lock()
	it, ok := l.items[contentID]
	if ok {
		delete(l.items, contentID)
	}
	l.mu.Unlock()
	if !ok {
		return Snapshot{}, notFound(contentID)
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	it.removed = true
	l.index.Remove(contentID)

	l.dirtyMu.Lock()
	delete(l.dirty, contentID)
	l.dirtyMu.Unlock()

	return it.snapshot(contentID), nil
}

// RecordView adds one view
func (l *Ledger) RecordView(contentID string) (Snapshot, error) {
	return l.mutate(contentID, func(c *Counters) {
		c.Views++
	})
}

// Like adds one like. The caller owns the likers set and must not call Like
// for a user who already likes the item.
func (l *Ledger) Like(contentID, userID string) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, invalid("user_id", "must not be empty")
	}
	return l.mutate(contentID, func(c *Counters) {
		c.Likes++
	})
}

// Unlike removes one like, floored at zero
func (l *Ledger) Unlike(contentID, userID string) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, invalid("user_id", "must not be empty")
	}
	return l.mutate(contentID, func(c *Counters) {
		if c.Likes > 0 {
			c.Likes--
		}
	})
}

// IncrementComments adds delta comments. delta may be negative (thread
// deletion); the count is floored at zero.
func (l *Ledger) IncrementComments(contentID string, delta int64) (Snapshot, error) {
	return l.mutate(contentID, func(c *Counters) {
		c.Comments += delta
		if c.Comments < 0 {
			c.Comments = 0
		}
	})
}

// Apply dispatches an engagement event to the matching mutation
func (l *Ledger) Apply(ev EngagementEvent) (Snapshot, error) {
	switch ev.Kind {
	case EventView:
		return l.RecordView(ev.ContentID)
	case EventLike:
		return l.Like(ev.ContentID, ev.UserID)
	case EventUnlike:
		return l.Unlike(ev.ContentID, ev.UserID)
	case EventComment, EventUncomment:
		if ev.Delta < 0 {
			return Snapshot{}, invalid("delta", "must not be negative, use the event kind for direction")
		}
		delta := ev.Delta
		if delta == 0 {
			delta = 1
		}
		if ev.Kind == EventUncomment {
			delta = -delta
		}
		return l.IncrementComments(ev.ContentID, delta)
	default:
		return Snapshot{}, invalid("kind", "unknown event kind "+string(ev.Kind))
	}
}

// Get returns the current state of an item
func (l *Ledger) Get(contentID string) (Snapshot, error) {
	it, err := l.lookup(contentID)
	if err != nil {
		return Snapshot{}, err
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	if it.removed {
		return Snapshot{}, notFound(contentID)
	}
	return it.snapshot(contentID), nil
}

// Contains reports whether the ledger holds a published item with this ID
func (l *Ledger) Contains(contentID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.items[contentID]
	return ok
}

// Meta returns the metadata of an item. It never blocks on item mutations.
func (l *Ledger) Meta(contentID string) (ContentMeta, bool) {
	l.mu.RLock()
	it, ok := l.items[contentID]
	l.mu.RUnlock()
	if !ok {
		return ContentMeta{}, false
	}
	return *it.meta.Load(), true
}

// Len returns the number of published items held
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.items)
}

// Rescore recomputes every score against the current time. This is the
// periodic re-rank sweep; between sweeps scores only change on mutation.
// It returns the number of items rescored.
func (l *Ledger) Rescore() int {
	l.mu.RLock()
	ids := make([]string, 0, len(l.items))
	items := make([]*ledgerItem, 0, len(l.items))
	for id, it := range l.items {
		ids = append(ids, id)
		items = append(items, it)
	}
	l.mu.RUnlock()

	rescored := 0
	for i, it := range items {
		if _, err := l.rescore(ids[i], it, func(*Counters) {}); err == nil {
			rescored++
		}
	}
	return rescored
}

// DrainDirty returns the state of every item mutated since the previous drain
// and clears the dirty set. Items removed in the meantime are skipped.
func (l *Ledger) DrainDirty() []Snapshot {
	l.dirtyMu.Lock()
	dirty := l.dirty
	l.dirty = make(map[string]struct{})
	l.dirtyMu.Unlock()

	ids := make([]string, 0, len(dirty))
	for id := range dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := l.Get(id)
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// MarkDirty queues an item for the next drain again, e.g. after a failed flush
func (l *Ledger) MarkDirty(contentID string) {
	if !l.Contains(contentID) {
		return
	}
	l.markDirty(contentID)
}

// DirtyCount returns the number of items waiting to be drained
func (l *Ledger) DirtyCount() int {
	l.dirtyMu.Lock()
	defer l.dirtyMu.Unlock()

	return len(l.dirty)
}

func (l *Ledger) markDirty(contentID string) {
	l.dirtyMu.Lock()
	l.dirty[contentID] = struct{}{}
	l.dirtyMu.Unlock()
}

func (l *Ledger) lookup(contentID string) (*ledgerItem, error) {
	if contentID == "" {
		return nil, invalid("content_id", "must not be empty")
	}

	l.mu.RLock()
	it, ok := l.items[contentID]
	l.mu.RUnlock()
	if !ok {
		return nil, notFound(contentID)
	}
	return it, nil
}

func (l *Ledger) mutate(contentID string, apply func(*Counters)) (Snapshot, error) {
	it, err := l.lookup(contentID)
	if err != nil {
		return Snapshot{}, err
	}
	return l.rescore(contentID, it, apply)
}

// rescore applies a counter change, recomputes the score and repositions the
// index entry under the item lock. Nothing is written unless all three succeed.
func (l *Ledger) rescore(contentID string, it *ledgerItem, apply func(*Counters)) (Snapshot, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.removed {
		return Snapshot{}, notFound(contentID)
	}

	next := it.counters
	apply(&next)

	now := l.now()
	createdAt := it.meta.Load().CreatedAt
	score, err := l.calc.Score(next, AgeHours(createdAt, now))
	if err != nil {
		return Snapshot{}, err
	}
	if err := l.index.Upsert(contentID, score, createdAt); err != nil {
		return Snapshot{}, err
	}

	it.counters = next
	it.score = score
	it.scoredAt = now
	l.markDirty(contentID)

	return it.snapshot(contentID), nil
}

// normalizeMeta lower-cases and de-duplicates tags and category so matching
// against interests is case-insensitive.
func normalizeMeta(meta ContentMeta, now time.Time) ContentMeta {
	out := ContentMeta{
		AuthorID:  meta.AuthorID,
		Category:  strings.ToLower(strings.TrimSpace(meta.Category)),
		CreatedAt: meta.CreatedAt,
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}

	seen := make(map[string]struct{}, len(meta.Tags))
	for _, tag := range meta.Tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out.Tags = append(out.Tags, t)
	}
	return out
}
