package service

import (
	"context"

	"github.com/penportal-api/internal/config"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
	"github.com/penportal-api/internal/repository"
	"github.com/penportal-api/internal/validation"
	"github.com/rs/zerolog"
)

// ArticleService defines the interface for article lifecycle operations
type ArticleService interface {
	Publish(ctx context.Context, authorID string, req *models.CreateArticleRequest) (*models.Article, error)
	Get(ctx context.Context, idOrSlug, viewerID string) (*models.Article, error)
	Update(ctx context.Context, id, userID string, req *models.UpdateArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, id, userID string) error
	Hydrate(ctx context.Context) (int, error)
}

// EngagementService defines the interface for likes, comments and the follow graph
type EngagementService interface {
	ToggleLike(ctx context.Context, articleID, userID string) (*models.LikeResponse, error)
	AddComment(ctx context.Context, userID string, req *models.CreateCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, articleID, viewerID string, page, limit int) (*models.CommentList, error)
	DeleteComment(ctx context.Context, commentID, userID string) error
	ToggleSave(ctx context.Context, articleID, userID string) (*models.SaveResponse, error)
	ToggleFollow(ctx context.Context, followerID, followeeID string) (*models.FollowResponse, error)
	Followers(ctx context.Context, userID string) (*models.UserList, error)
	Following(ctx context.Context, userID string) (*models.UserList, error)
	SetInterests(ctx context.Context, userID string, interests []string) (*models.User, error)
}

// FeedService defines the interface for ranked article lists
type FeedService interface {
	Trending(ctx context.Context, limit int, viewerID string) (*models.ArticleList, error)
	Personalized(ctx context.Context, userID string, page, limit int) (*models.ArticleList, error)
	List(ctx context.Context, q *models.ArticleQuery, viewerID string) (*models.ArticleList, error)
	Saved(ctx context.Context, userID, category string, page, limit int) (*models.ArticleList, error)
}

// MaintenanceService defines the interface for the background write-behind
// flush and re-rank sweep
type MaintenanceService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	Flush(ctx context.Context) (int, error)
	Rescore() int
}

// Engine bundles the in-memory ranking components shared by the services
type Engine struct {
	Ledger   *ranking.Ledger
	Composer *ranking.Composer
}

// NewEngine builds the ledger, index and composer from configuration
func NewEngine(cfg config.RankingConfig, opts ...ranking.LedgerOption) (*Engine, error) {
	index := ranking.NewIndex(cfg.IndexDegree)
	ledger, err := ranking.NewLedger(cfg.Calculator(), index, opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Ledger:   ledger,
		Composer: ranking.NewComposer(index, ledger),
	}, nil
}

// Index returns the ranking index
func (e *Engine) Index() *ranking.Index {
	return e.Ledger.Index()
}

// Services holds all service interfaces
type Services struct {
	Article     ArticleService
	Engagement  EngagementService
	Feed        FeedService
	Maintenance MaintenanceService
	Engine      *Engine
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, engine *Engine, cfg *config.Config, log zerolog.Logger) *Services {
	validator := validation.NewValidator()

	maintenance := newMaintenanceService(repos.Article, engine.Ledger, cfg.Ranking, log)

	return &Services{
		Article:     newArticleService(repos, engine, maintenance, validator, log),
		Engagement:  newEngagementService(repos, engine, validator, log),
		Feed:        newFeedService(repos, engine, cfg.Feed, validator, log),
		Maintenance: maintenance,
		Engine:      engine,
	}
}
