package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/penportal-api/internal/database"
	"github.com/penportal-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, article_id, user_id, parent_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.ArticleID, comment.UserID, comment.ParentID, comment.Body,
		comment.CreatedAt, comment.UpdatedAt,
	)
	return err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT id, article_id, user_id, parent_id, body, created_at, updated_at FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return comment, err
}

// ListByArticle returns a page of comments oldest first, plus the total count
func (r *commentRepo) ListByArticle(ctx context.Context, articleID string, limit, offset int) ([]*models.Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE article_id = $1", articleID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, article_id, user_id, parent_id, body, created_at, updated_at
		FROM comments WHERE article_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, articleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0, limit)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, comment)
	}
	return comments, total, rows.Err()
}

// Delete removes a comment and its whole reply thread. It returns how many
// comments were removed in total.
func (r *commentRepo) Delete(ctx context.Context, id string) (int64, error) {
	query := `
		WITH RECURSIVE thread AS (
			SELECT id FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id FROM comments c JOIN thread t ON c.parent_id = t.id
		)
		DELETE FROM comments WHERE id IN (SELECT id FROM thread)
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	var parentID sql.NullString

	err := row.Scan(
		&comment.ID, &comment.ArticleID, &comment.UserID, &parentID, &comment.Body,
		&comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		comment.ParentID = &parentID.String
	}
	return &comment, nil
}
