package models

import (
	"time"

	"github.com/penportal-api/internal/ranking"
)

// ArticleStatus is the lifecycle state of an article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[ArticleStatus]bool{
	ArticleStatusDraft:     true,
	ArticleStatusPublished: true,
	ArticleStatusArchived:  true,
}

// ExcerptLength is the number of characters kept when an excerpt is derived from the body
const ExcerptLength = 200

// WordsPerMinute drives the read time estimate
const WordsPerMinute = 200

// Article represents an article in the system
type Article struct {
	ID            string        `json:"id" db:"id"`
	Slug          string        `json:"slug" db:"slug"`
	Title         string        `json:"title" db:"title"`
	Body          string        `json:"body" db:"body"`
	Excerpt       string        `json:"excerpt" db:"excerpt"`
	AuthorID      string        `json:"author_id" db:"author_id"`
	Category      string        `json:"category" db:"category"`
	Tags          []string      `json:"tags" db:"tags"` // text[] in postgres
	Status        ArticleStatus `json:"status" db:"status"`
	ReadTime      int           `json:"read_time" db:"read_time"` // minutes
	Views         int64         `json:"views" db:"views"`
	LikesCount    int64         `json:"likes_count" db:"likes_count"`
	CommentsCount int64         `json:"comments_count" db:"comments_count"`
	TrendingScore float64       `json:"trending_score" db:"trending_score"`
	PublishedAt   *time.Time    `json:"published_at,omitempty" db:"published_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`

	// Liked is filled per request for the authenticated reader
	Liked bool `json:"liked" db:"-"`
}

// IsPublished reports whether the article belongs in the ranking index
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// Counters returns the engagement counters in engine form
func (a *Article) Counters() ranking.Counters {
	return ranking.Counters{
		Views:    a.Views,
		Likes:    a.LikesCount,
		Comments: a.CommentsCount,
	}
}

// Meta returns the metadata the feed composer filters on
func (a *Article) Meta() ranking.ContentMeta {
	return ranking.ContentMeta{
		AuthorID:  a.AuthorID,
		Category:  a.Category,
		Tags:      a.Tags,
		CreatedAt: a.CreatedAt,
	}
}

// ApplySnapshot copies live engine state onto the article
func (a *Article) ApplySnapshot(s ranking.Snapshot) {
	a.Views = s.Counters.Views
	a.LikesCount = s.Counters.Likes
	a.CommentsCount = s.Counters.Comments
	a.TrendingScore = s.Score
}

// CreateArticleRequest is the payload of POST /v1/articles
type CreateArticleRequest struct {
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Excerpt  string        `json:"excerpt,omitempty"`
	Category string        `json:"category"`
	Tags     []string      `json:"tags"`
	Status   ArticleStatus `json:"status,omitempty"`
}

// UpdateArticleRequest is the payload of PUT /v1/articles/:id. Nil fields are left unchanged.
type UpdateArticleRequest struct {
	Title    *string        `json:"title,omitempty"`
	Body     *string        `json:"body,omitempty"`
	Excerpt  *string        `json:"excerpt,omitempty"`
	Category *string        `json:"category,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Status   *ArticleStatus `json:"status,omitempty"`
}

// LikeResponse is returned by the like toggle
type LikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// SaveResponse is returned by the save toggle
type SaveResponse struct {
	Saved bool `json:"saved"`
}

// ArticleSort is a listing order in "-field" (descending) or "field" form
type ArticleSort string

const (
	SortNewest     ArticleSort = "-createdAt"
	SortOldest     ArticleSort = "createdAt"
	SortTrending   ArticleSort = "-trendingScore"
	SortMostViewed ArticleSort = "-views"
	SortMostLiked  ArticleSort = "-likesCount"
)

// ValidSorts defines allowed listing orders
var ValidSorts = map[ArticleSort]bool{
	SortNewest:     true,
	SortOldest:     true,
	SortTrending:   true,
	SortMostViewed: true,
	SortMostLiked:  true,
}

// ArticleQuery describes GET /v1/articles. Filters combine with AND; Tags
// match when the article carries any of them.
type ArticleQuery struct {
	Page     int
	Limit    int
	Category string
	Tags     []string
	AuthorID string
	Sort     ArticleSort
}

// ArticleFilter is an ArticleQuery resolved to a store page. Only published
// articles are listed.
type ArticleFilter struct {
	Category string
	Tags     []string
	AuthorID string
	Sort     ArticleSort
	Limit    int
	Offset   int
}

// ArticleList is a page of articles. Total is set for listings that can count
// their matches.
type ArticleList struct {
	Articles []*Article `json:"articles"`
	Page     int        `json:"page,omitempty"`
	Limit    int        `json:"limit"`
	Total    int        `json:"total,omitempty"`
	HasMore  bool       `json:"has_more"`
}
