package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/penportal-api/internal/config"
	"github.com/penportal-api/internal/metrics"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
	"github.com/penportal-api/internal/repository"
	"github.com/penportal-api/internal/validation"
	"github.com/rs/zerolog"
)

// MaxFeedPage bounds how deep a feed can be paged
const MaxFeedPage = 100

// feedService is the concrete implementation of FeedService. Ranking comes
// from the engine; article bodies come from the store.
type feedService struct {
	articles repository.ArticleRepository
	users    repository.UserRepository
	engine    *Engine
	cfg       config.FeedConfig
	validator *validation.Validator
	log       zerolog.Logger
}

// newFeedService creates a new FeedService
func newFeedService(repos *repository.Repositories, engine *Engine, cfg config.FeedConfig, validator *validation.Validator, log zerolog.Logger) *feedService {
	return &feedService{
		articles:  repos.Article,
		users:     repos.User,
		engine:    engine,
		cfg:       cfg,
		validator: validator,
		log:       log.With().Str("service", "feed").Logger(),
	}
}

// Trending returns the top published articles by trending score
func (s *feedService) Trending(ctx context.Context, limit int, viewerID string) (*models.ArticleList, error) {
	limit = s.clampLimit(limit)

	start := time.Now()
	ids := s.engine.Index().TopK(limit)
	metrics.RecordFeed("trending", time.Since(start), 0, len(ids))

	articles, err := s.load(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}

	return &models.ArticleList{
		Articles: articles,
		Limit:    limit,
		HasMore:  s.engine.Index().Len() > limit,
	}, nil
}

// Personalized returns one page of the user's feed: followed authors and
// interest matches in rank order, padded with trending articles. Page n is
// the tail of a composition of n*limit items, so pages never overlap.
func (s *feedService) Personalized(ctx context.Context, userID string, page, limit int) (*models.ArticleList, error) {
	limit = s.clampLimit(limit)
	if page < 1 {
		page = 1
	}
	if page > MaxFeedPage {
		return nil, fmt.Errorf("%w: page cannot exceed %d", ErrInvalidInput, MaxFeedPage)
	}

	signal, err := s.users.GetSignal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user signal: %w", err)
	}
	if signal == nil {
		return nil, ErrUserNotFound
	}

	start := time.Now()
	feed, err := s.engine.Composer.ComposeFeed(signal.Signal(), page*limit)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidArgument) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	offset := (page - 1) * limit
	var ids []string
	if offset < len(feed.IDs) {
		ids = feed.IDs[offset:]
	}

	personalized := feed.Personalized - offset
	if personalized < 0 {
		personalized = 0
	}
	if personalized > len(ids) {
		personalized = len(ids)
	}
	metrics.RecordFeed("personalized", time.Since(start), personalized, len(ids)-personalized)

	articles, err := s.load(ctx, ids, userID)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("user_id", userID).
		Int("page", page).
		Int("items", len(articles)).
		Int("personalized", personalized).
		Msg("Feed composed")

	return &models.ArticleList{
		Articles: articles,
		Page:     page,
		Limit:    limit,
		HasMore:  s.engine.Index().Len() > page*limit,
	}, nil
}

// List returns one page of published articles filtered by category, tags and
// author. Trending order is served from the ranking index so it reflects live
// scores; every other order is served by the store.
func (s *feedService) List(ctx context.Context, q *models.ArticleQuery, viewerID string) (*models.ArticleList, error) {
	if err := validationFailed(s.validator.ValidateArticleQuery(q)); err != nil {
		return nil, err
	}
	limit := s.clampLimit(q.Limit)
	page := q.Page
	if page < 1 {
		page = 1
	}
	sort := q.Sort
	if sort == "" {
		sort = models.SortNewest
	}
	tags := validation.NormalizeTags(q.Tags)
	offset := (page - 1) * limit

	var (
		articles []*models.Article
		total    int
		err      error
	)
	if sort == models.SortTrending {
		start := time.Now()
		var ids []string
		ids, total, err = s.engine.Composer.Ranked(ranking.Filter{
			Category: q.Category,
			Tags:     tags,
			AuthorID: q.AuthorID,
		}, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		metrics.RecordFeed("listing", time.Since(start), 0, len(ids))
		articles, err = s.load(ctx, ids, viewerID)
	} else {
		articles, total, err = s.articles.List(ctx, models.ArticleFilter{
			Category: strings.ToLower(strings.TrimSpace(q.Category)),
			Tags:     tags,
			AuthorID: q.AuthorID,
			Sort:     sort,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		s.decorate(ctx, articles, viewerID)
	}
	if err != nil {
		return nil, err
	}

	return &models.ArticleList{
		Articles: articles,
		Page:     page,
		Limit:    limit,
		Total:    total,
		HasMore:  offset+len(articles) < total,
	}, nil
}

// Saved returns one page of the user's reading list, newest first
func (s *feedService) Saved(ctx context.Context, userID, category string, page, limit int) (*models.ArticleList, error) {
	limit = s.clampLimit(limit)
	if page < 1 {
		page = 1
	}
	if category != "" {
		if err := validationFailed(s.validator.ValidateArticleQuery(&models.ArticleQuery{Category: category})); err != nil {
			return nil, err
		}
	}
	offset := (page - 1) * limit

	articles, total, err := s.articles.ListSaved(ctx, userID, strings.ToLower(strings.TrimSpace(category)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list saved: %w", err)
	}
	s.decorate(ctx, articles, userID)

	return &models.ArticleList{
		Articles: articles,
		Page:     page,
		Limit:    limit,
		Total:    total,
		HasMore:  offset+len(articles) < total,
	}, nil
}

// load fetches articles in rank order and overlays live counters and the viewer's likes
func (s *feedService) load(ctx context.Context, ids []string, viewerID string) ([]*models.Article, error) {
	if len(ids) == 0 {
		return []*models.Article{}, nil
	}

	articles, err := s.articles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	s.decorate(ctx, articles, viewerID)
	return articles, nil
}

// decorate overlays live counters and the viewer's likes
func (s *feedService) decorate(ctx context.Context, articles []*models.Article, viewerID string) {
	if len(articles) == 0 {
		return
	}
	for _, a := range articles {
		if snap, err := s.engine.Ledger.Get(a.ID); err == nil {
			a.ApplySnapshot(snap)
		}
	}

	if viewerID != "" {
		ids := make([]string, len(articles))
		for i, a := range articles {
			ids[i] = a.ID
		}
		liked, err := s.articles.LikedBy(ctx, viewerID, ids)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", viewerID).Msg("Failed to load liked flags")
		}
		for _, a := range articles {
			a.Liked = liked[a.ID]
		}
	}
}

func (s *feedService) clampLimit(limit int) int {
	if limit < 1 {
		return s.cfg.DefaultSize
	}
	if limit > s.cfg.MaxSize {
		return s.cfg.MaxSize
	}
	return limit
}
