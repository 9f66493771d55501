package ranking

import "strings"

// Signal carries what a reader cares about. Both lists may be empty.
type Signal struct {
	Interests []string `json:"interests"`
	Following []string `json:"following"`
}

// Catalog resolves content metadata for feed filtering. *Ledger implements it.
type Catalog interface {
	Meta(contentID string) (ContentMeta, bool)
}

// Feed is a composed feed plus how much of it came from the personalized pass
type Feed struct {
	IDs          []string
	Personalized int
}

// Padded returns how many items were filled in from the trending order
func (f Feed) Padded() int {
	return len(f.IDs) - f.Personalized
}

// Composer builds personalized feeds over a ranking index
type Composer struct {
	index   *Index
	catalog Catalog
}

// NewComposer creates a composer reading ranks from index and metadata from catalog
func NewComposer(index *Index, catalog Catalog) *Composer {
	return &Composer{index: index, catalog: catalog}
}

// Compose returns up to n content IDs: items matching the signal in rank
// order first, then the best remaining items in rank order. No ID appears
// twice and the result is shorter than n only when the index runs out.
func (c *Composer) Compose(sig Signal, n int) ([]string, error) {
	feed, err := c.ComposeFeed(sig, n)
	if err != nil {
		return nil, err
	}
	return feed.IDs, nil
}

// ComposeFeed is Compose with the personalized/padded split reported
func (c *Composer) ComposeFeed(sig Signal, n int) (Feed, error) {
	if n < 0 {
		return Feed{}, invalid("n", "must not be negative")
	}
	if n == 0 {
		return Feed{IDs: []string{}}, nil
	}

	interests := toSet(sig.Interests, true)
	following := toSet(sig.Following, false)
	if len(interests) == 0 && len(following) == 0 {
		return Feed{IDs: c.index.TopK(n)}, nil
	}

	ids := make([]string, 0, n)
	chosen := make(map[string]struct{}, n)
	c.index.Walk(func(e Entry) bool {
		meta, ok := c.catalog.Meta(e.ContentID)
		if !ok {
			return true
		}
		if matches(meta, interests, following) {
			ids = append(ids, e.ContentID)
			chosen[e.ContentID] = struct{}{}
		}
		return len(ids) < n
	})

	personalized := len(ids)
	if personalized < n {
		ids = append(ids, c.index.TopKExcluding(n-personalized, chosen)...)
	}
	return Feed{IDs: ids, Personalized: personalized}, nil
}

// Filter narrows a ranked listing. Empty fields match everything. Tags match
// when the item carries any of them.
type Filter struct {
	Category string
	Tags     []string
	AuthorID string
}

// Ranked returns one page of content IDs in rank order that pass f, plus the
// number of items that pass it overall.
func (c *Composer) Ranked(f Filter, offset, limit int) ([]string, int, error) {
	if offset < 0 {
		return nil, 0, invalid("offset", "must not be negative")
	}
	if limit < 0 {
		return nil, 0, invalid("limit", "must not be negative")
	}

	category := strings.ToLower(strings.TrimSpace(f.Category))
	tags := toSet(f.Tags, true)

	ids := make([]string, 0, limit)
	total := 0
	c.index.Walk(func(e Entry) bool {
		meta, ok := c.catalog.Meta(e.ContentID)
		if !ok {
			return true
		}
		if category != "" && meta.Category != category {
			return true
		}
		if f.AuthorID != "" && meta.AuthorID != f.AuthorID {
			return true
		}
		if len(tags) > 0 && !hasAny(meta.Tags, tags) {
			return true
		}
		if total >= offset && len(ids) < limit {
			ids = append(ids, e.ContentID)
		}
		total++
		return true
	})
	return ids, total, nil
}

func hasAny(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func matches(meta ContentMeta, interests, following map[string]struct{}) bool {
	if _, ok := following[meta.AuthorID]; ok && meta.AuthorID != "" {
		return true
	}
	if len(interests) == 0 {
		return false
	}
	if _, ok := interests[meta.Category]; ok && meta.Category != "" {
		return true
	}
	return hasAny(meta.Tags, interests)
}

func toSet(values []string, fold bool) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
