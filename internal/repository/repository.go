package repository

import (
	"context"

	"github.com/penportal-api/internal/database"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
)

// UserRepository defines the interface for user profile and follow graph operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetSignal(ctx context.Context, id string) (*models.UserSignal, error)
	ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowers(ctx context.Context, id string) ([]*models.User, error)
	ListFollowing(ctx context.Context, id string) ([]*models.User, error)
	SetInterests(ctx context.Context, id string, interests []string) error
}

// ArticleRepository defines the interface for the content store
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	StreamPublished(ctx context.Context, callback func(*models.Article) error) error
	SaveEngagement(ctx context.Context, snapshots []ranking.Snapshot) (int, error)
	DecrementComments(ctx context.Context, id string, n int64) error
	ToggleLike(ctx context.Context, articleID, userID string) (bool, error)
	LikedBy(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error)
	ToggleSave(ctx context.Context, articleID, userID string) (bool, error)
	ListSaved(ctx context.Context, userID, category string, limit, offset int) ([]*models.Article, int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID string, limit, offset int) ([]*models.Comment, int, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Article ArticleRepository
	Comment CommentRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Article: NewArticleRepo(db),
		Comment: NewCommentRepo(db),
	}
}

// toggleEdge inserts a membership row, or deletes it when it already exists.
// It returns true when the row is present afterwards.
func toggleEdge(ctx context.Context, db *database.DB, insertQuery, deleteQuery string, args ...interface{}) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, insertQuery, args...)
	if err != nil {
		return false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	present := inserted == 1
	if !present {
		if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return present, nil
}

// queryArticles runs an article query and scans every row
func queryArticles(ctx context.Context, db *database.DB, query string, args ...interface{}) ([]*models.Article, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}
