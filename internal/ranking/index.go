package ranking

import (
	"math"
	"sync"
	"time"

	"github.com/google/btree"
)

// DefaultIndexDegree is the B-tree degree used when NewIndex gets a value < 2
const DefaultIndexDegree = 32

// Entry is one ranked content item
type Entry struct {
	ContentID string    `json:"content_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ranksBefore orders by score desc, then createdAt desc, then contentID asc.
// The third key makes the order total, so repeated reads are reproducible.
func ranksBefore(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ContentID < b.ContentID
}

// Index keeps published content ordered by rank. Upsert and Remove are
// O(log n); readers hold the read lock for the whole traversal so they see a
// consistent snapshot with no item skipped or repeated.
type Index struct {
	mu      sync.RWMutex
	tree    *btree.BTreeG[Entry]
	entries map[string]Entry
}

// NewIndex creates an empty index backed by a B-tree of the given degree
func NewIndex(degree int) *Index {
	if degree < 2 {
		degree = DefaultIndexDegree
	}
	return &Index{
		tree:    btree.NewG[Entry](degree, ranksBefore),
		entries: make(map[string]Entry),
	}
}

// Upsert inserts or repositions a single entry
func (ix *Index) Upsert(contentID string, score float64, createdAt time.Time) error {
	if contentID == "" {
		return invalid("content_id", "must not be empty")
	}
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return invalid("score", "must be a finite, non-negative value")
	}

	next := Entry{ContentID: contentID, Score: score, CreatedAt: createdAt}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if prev, ok := ix.entries[contentID]; ok {
		if prev == next {
			return nil
		}
		ix.tree.Delete(prev)
	}
	ix.tree.ReplaceOrInsert(next)
	ix.entries[contentID] = next
	return nil
}

// Remove drops an entry. It reports whether the entry was present.
func (ix *Index) Remove(contentID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	prev, ok := ix.entries[contentID]
	if !ok {
		return false
	}
	ix.tree.Delete(prev)
	delete(ix.entries, contentID)
	return true
}

// Entry returns the current entry for a content ID
func (ix *Index) Entry(contentID string) (Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.entries[contentID]
	return e, ok
}

// Len returns the number of indexed items
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.tree.Len()
}

// TopK returns up to k content IDs in rank order
func (ix *Index) TopK(k int) []string {
	return ix.TopKExcluding(k, nil)
}

// TopKExcluding returns up to k content IDs in rank order, skipping any ID in
// exclude. It returns fewer than k when the index runs out.
func (ix *Index) TopKExcluding(k int, exclude map[string]struct{}) []string {
	if k <= 0 {
		return []string{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	size := k
	if n := ix.tree.Len(); n < size {
		size = n
	}
	out := make([]string, 0, size)
	ix.tree.Ascend(func(e Entry) bool {
		if _, skip := exclude[e.ContentID]; skip {
			return true
		}
		out = append(out, e.ContentID)
		return len(out) < k
	})
	return out
}

// Walk visits entries in rank order until fn returns false. fn runs under the
// index read lock and must not call back into the index.
func (ix *Index) Walk(fn func(Entry) bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ix.tree.Ascend(btree.ItemIteratorG[Entry](fn))
}
