package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/penportal-api/internal/database"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
)

const articleColumns = `id, slug, title, body, excerpt, author_id, category, tags, status, read_time,
	views, likes_count, comments_count, trending_score, published_at, created_at, updated_at`

// psql builds the dynamic listing queries with Postgres placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var publishedAt sql.NullTime

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Body, &article.Excerpt,
		&article.AuthorID, &article.Category, pq.Array(&article.Tags), &article.Status, &article.ReadTime,
		&article.Views, &article.LikesCount, &article.CommentsCount, &article.TrendingScore,
		&publishedAt, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}
	return &article, nil
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Slug, article.Title, article.Body, article.Excerpt,
		article.AuthorID, article.Category, pq.Array(article.Tags), article.Status, article.ReadTime,
		article.Views, article.LikesCount, article.CommentsCount, article.TrendingScore,
		article.PublishedAt, article.CreatedAt, article.UpdatedAt,
	)
	return err
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return article, err
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return article, err
}

// GetByIDs retrieves articles in the order of ids. Missing IDs are skipped.
func (r *articleRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error) {
	if len(ids) == 0 {
		return []*models.Article{}, nil
	}

	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		JOIN unnest($1::uuid[]) WITH ORDINALITY AS wanted(id, ord) USING (id)
		ORDER BY wanted.ord
	`
	return queryArticles(ctx, r.db, query, pq.Array(ids))
}

// Update writes the editable fields of an article. Counters are owned by
// SaveEngagement and left alone here.
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET slug = $2, title = $3, body = $4, excerpt = $5, category = $6, tags = $7,
		    status = $8, read_time = $9, published_at = $10, updated_at = $11
		WHERE id = $1
	`
	article.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Slug, article.Title, article.Body, article.Excerpt, article.Category,
		pq.Array(article.Tags), article.Status, article.ReadTime, article.PublishedAt, article.UpdatedAt,
	)
	return err
}

// Delete removes an article; likes and comments cascade
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	return err
}

// SlugExists checks if an article with the given slug exists
func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// articleOrder maps listing sorts to ORDER BY clauses. Every clause ends on
// id so pages are stable.
var articleOrder = map[models.ArticleSort]string{
	models.SortNewest:     "created_at DESC, id",
	models.SortOldest:     "created_at, id",
	models.SortTrending:   "trending_score DESC, created_at DESC, id",
	models.SortMostViewed: "views DESC, created_at DESC, id",
	models.SortMostLiked:  "likes_count DESC, created_at DESC, id",
}

// List returns one page of published articles matching filter plus the
// number of matches
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	order, ok := articleOrder[filter.Sort]
	if !ok {
		order = articleOrder[models.SortNewest]
	}
	return r.page(ctx, listFilter(filter), order, filter.Limit, filter.Offset)
}

func listFilter(filter models.ArticleFilter) sq.And {
	where := sq.And{sq.Eq{"status": models.ArticleStatusPublished}}
	if filter.Category != "" {
		where = append(where, sq.Eq{"category": filter.Category})
	}
	if len(filter.Tags) > 0 {
		where = append(where, sq.Expr("tags && ?::text[]", pq.Array(filter.Tags)))
	}
	if filter.AuthorID != "" {
		where = append(where, sq.Eq{"author_id": filter.AuthorID})
	}
	return where
}

// StreamPublished streams every published article, used to hydrate the ranking engine
func (r *articleRepo) StreamPublished(ctx context.Context, callback func(*models.Article) error) error {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE status = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, models.ArticleStatusPublished)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := callback(article); err != nil {
			return err
		}
	}

	return rows.Err()
}

// SaveEngagement writes counters and scores for a batch of snapshots in one
// statement. It returns the number of rows updated.
func (r *articleRepo) SaveEngagement(ctx context.Context, snapshots []ranking.Snapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	ids := make([]string, len(snapshots))
	views := make([]int64, len(snapshots))
	likes := make([]int64, len(snapshots))
	comments := make([]int64, len(snapshots))
	scores := make([]float64, len(snapshots))
	for i, s := range snapshots {
		ids[i] = s.ContentID
		views[i] = s.Counters.Views
		likes[i] = s.Counters.Likes
		comments[i] = s.Counters.Comments
		scores[i] = s.Score
	}

	query := `
		UPDATE articles AS a
		SET views = u.views, likes_count = u.likes, comments_count = u.comments, trending_score = u.score
		FROM unnest($1::uuid[], $2::bigint[], $3::bigint[], $4::bigint[], $5::float8[])
		     AS u(id, views, likes, comments, score)
		WHERE a.id = u.id
	`
	res, err := r.db.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(views), pq.Array(likes), pq.Array(comments), pq.Array(scores),
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// DecrementComments lowers the stored comment count of an article the ledger
// does not hold, floored at zero
func (r *articleRepo) DecrementComments(ctx context.Context, id string, n int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET comments_count = GREATEST(comments_count - $2, 0) WHERE id = $1`,
		id, n,
	)
	return err
}

// ToggleLike adds the user to the likers set, or removes them if already
// present. It returns true when the article is now liked.
func (r *articleRepo) ToggleLike(ctx context.Context, articleID, userID string) (bool, error) {
	return toggleEdge(ctx, r.db,
		`INSERT INTO article_likes (article_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`DELETE FROM article_likes WHERE article_id = $1 AND user_id = $2`,
		articleID, userID,
	)
}

// LikedBy reports which of articleIDs the user has liked
func (r *articleRepo) LikedBy(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(articleIDs))
	if userID == "" || len(articleIDs) == 0 {
		return liked, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id FROM article_likes WHERE user_id = $1 AND article_id = ANY($2::uuid[])`,
		userID, pq.Array(articleIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		liked[id] = true
	}
	return liked, rows.Err()
}

// ToggleSave adds the article to the user's reading list, or removes it if
// already saved. It returns true when the article is now saved.
func (r *articleRepo) ToggleSave(ctx context.Context, articleID, userID string) (bool, error) {
	return toggleEdge(ctx, r.db,
		`INSERT INTO saved_articles (user_id, article_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`DELETE FROM saved_articles WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	)
}

// ListSaved returns one page of the published articles a user saved, newest
// first, optionally narrowed to a category
func (r *articleRepo) ListSaved(ctx context.Context, userID, category string, limit, offset int) ([]*models.Article, int, error) {
	where := sq.And{
		sq.Eq{"status": models.ArticleStatusPublished},
		sq.Expr("id IN (SELECT article_id FROM saved_articles WHERE user_id = ?)", userID),
	}
	if category != "" {
		where = append(where, sq.Eq{"category": category})
	}
	return r.page(ctx, where, articleOrder[models.SortNewest], limit, offset)
}

// page counts the rows matching where and loads one ordered page of them
func (r *articleRepo) page(ctx context.Context, where sq.Sqlizer, order string, limit, offset int) ([]*models.Article, int, error) {
	countQuery, args, err := psql.Select("COUNT(*)").From("articles").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := psql.Select(articleColumns).From("articles").
		Where(where).
		OrderBy(order).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	articles, err := queryArticles(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}
