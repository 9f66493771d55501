package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/penportal-api/internal/database"
	"github.com/penportal-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, bio, interests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Bio, pq.Array(user.Interests),
		user.CreatedAt, user.UpdatedAt,
	)
	return err
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, bio, interests, created_at, updated_at FROM users WHERE id = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.Bio, pq.Array(&user.Interests),
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Exists checks if a user with the given ID exists
func (r *userRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// GetSignal loads a user's interests and the IDs of the authors they follow
func (r *userRepo) GetSignal(ctx context.Context, id string) (*models.UserSignal, error) {
	query := `
		SELECT u.interests,
		       COALESCE(ARRAY(SELECT f.followee_id::text FROM follows f WHERE f.follower_id = u.id), '{}')
		FROM users u
		WHERE u.id = $1
	`

	signal := models.UserSignal{UserID: id}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		pq.Array(&signal.Interests), pq.Array(&signal.Following),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &signal, nil
}

// ToggleFollow adds or removes a follow edge. It returns true when the
// follower now follows the followee.
func (r *userRepo) ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return toggleEdge(ctx, r.db,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID,
	)
}

// ListFollowers returns the users following id, most recent follow first
func (r *userRepo) ListFollowers(ctx context.Context, id string) ([]*models.User, error) {
	return r.queryUsers(ctx, `
		SELECT u.id, u.email, u.name, u.bio, u.interests, u.created_at, u.updated_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC, u.id
	`, id)
}

// ListFollowing returns the users id follows, most recent follow first
func (r *userRepo) ListFollowing(ctx context.Context, id string) ([]*models.User, error) {
	return r.queryUsers(ctx, `
		SELECT u.id, u.email, u.name, u.bio, u.interests, u.created_at, u.updated_at
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC, u.id
	`, id)
}

func (r *userRepo) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Name, &user.Bio, pq.Array(&user.Interests),
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// SetInterests replaces a user's interests
func (r *userRepo) SetInterests(ctx context.Context, id string, interests []string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET interests = $2, updated_at = $3 WHERE id = $1`,
		id, pq.Array(interests), time.Now(),
	)
	return err
}
