package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/penportal-api/internal/metrics"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
	"github.com/penportal-api/internal/repository"
	"github.com/penportal-api/internal/validation"
	"github.com/rs/zerolog"
)

// articleService is the concrete implementation of ArticleService. The store
// owns article content; the ledger owns the counters of published articles.
type articleService struct {
	articles    repository.ArticleRepository
	ledger      *ranking.Ledger
	maintenance *maintenanceService
	validator   *validation.Validator
	log       zerolog.Logger
	now       func() time.Time
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, engine *Engine, maintenance *maintenanceService, validator *validation.Validator, log zerolog.Logger) *articleService {
	return &articleService{
		articles:    repos.Article,
		ledger:      engine.Ledger,
		maintenance: maintenance,
		validator:   validator,
		log:         log.With().Str("service", "article").Logger(),
		now:         time.Now,
	}
}

// Publish stores a new article and, unless it is a draft, registers it with the ledger
func (s *articleService) Publish(ctx context.Context, authorID string, req *models.CreateArticleRequest) (*models.Article, error) {
	if err := validationFailed(s.validator.ValidateCreateArticle(req)); err != nil {
		return nil, err
	}

	now := s.now()
	article := &models.Article{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Excerpt:   strings.TrimSpace(req.Excerpt),
		AuthorID:  authorID,
		Category:  strings.ToLower(strings.TrimSpace(req.Category)),
		Tags:      validation.NormalizeTags(req.Tags),
		Status:    req.Status,
		CreatedAt: now,
	}
	if article.Status == "" {
		article.Status = models.ArticleStatusPublished
	}
	if article.IsPublished() {
		article.PublishedAt = &now
	}
	deriveReadingFields(article)

	slug, err := s.uniqueSlug(ctx, article.Title, now)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}
	article.Slug = slug

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	if article.IsPublished() {
		if err := s.ledger.Publish(article.ID, article.Meta(), article.Counters()); err != nil {
			return nil, fmt.Errorf("index article: %w", err)
		}
		s.applyLive(article)
	}

	s.log.Info().
		Str("article_id", article.ID).
		Str("author_id", authorID).
		Str("status", string(article.Status)).
		Msg("Article created")

	return article, nil
}

// Get loads an article by ID or slug. Reading a published article counts as a view.
// Drafts and archived articles are only visible to their author.
func (s *articleService) Get(ctx context.Context, idOrSlug, viewerID string) (*models.Article, error) {
	var (
		article *models.Article
		err     error
	)
	if validation.IsValidUUID(idOrSlug) {
		article, err = s.articles.GetByID(ctx, idOrSlug)
	} else {
		article, err = s.articles.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}

	if !article.IsPublished() {
		if article.AuthorID != viewerID {
			return nil, ErrArticleNotFound
		}
		return article, nil
	}

	snap, err := s.ledger.RecordView(article.ID)
	switch {
	case err == nil:
		article.ApplySnapshot(snap)
		metrics.RecordEngagement(string(ranking.EventView), "ok")
	case errors.Is(err, ranking.ErrNotFound):
		// unpublished between the read and the view
		metrics.RecordEngagement(string(ranking.EventView), "not_found")
	default:
		metrics.RecordEngagement(string(ranking.EventView), "error")
		s.log.Error().Err(err).Str("article_id", article.ID).Msg("Failed to record view")
	}

	return article, nil
}

// Update edits an article. Status transitions move it in or out of the ranking index.
func (s *articleService) Update(ctx context.Context, id, userID string, req *models.UpdateArticleRequest) (*models.Article, error) {
	if err := validationFailed(s.validator.ValidateUpdateArticle(req)); err != nil {
		return nil, err
	}

	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	if article.AuthorID != userID {
		return nil, ErrForbidden
	}

	wasPublished := article.IsPublished()
	now := s.now()

	if req.Title != nil {
		article.Title = strings.TrimSpace(*req.Title)
		slug, err := s.uniqueSlug(ctx, article.Title, now)
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
		article.Slug = slug
	}
	if req.Excerpt != nil {
		article.Excerpt = strings.TrimSpace(*req.Excerpt)
	}
	if req.Body != nil {
		article.Body = *req.Body
		if req.Excerpt == nil {
			article.Excerpt = ""
		}
	}
	if req.Category != nil {
		article.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Tags != nil {
		article.Tags = validation.NormalizeTags(req.Tags)
	}
	if req.Status != nil {
		article.Status = *req.Status
	}
	if article.IsPublished() && article.PublishedAt == nil {
		article.PublishedAt = &now
	}
	deriveReadingFields(article)

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	switch {
	case article.IsPublished():
		// first publish uses the stored counters; re-publish keeps the live ones
		if err := s.ledger.Publish(article.ID, article.Meta(), article.Counters()); err != nil {
			return nil, fmt.Errorf("index article: %w", err)
		}
		s.applyLive(article)
	case wasPublished:
		if snap, ok := s.unindex(ctx, article.ID); ok {
			article.ApplySnapshot(snap)
		}
	}

	s.log.Info().
		Str("article_id", article.ID).
		Str("status", string(article.Status)).
		Bool("was_published", wasPublished).
		Msg("Article updated")

	return article, nil
}

// Delete removes an article owned by userID
func (s *articleService) Delete(ctx context.Context, id, userID string) error {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return ErrArticleNotFound
	}
	if article.AuthorID != userID {
		return ErrForbidden
	}

	if _, err := s.ledger.Remove(id); err != nil && !errors.Is(err, ranking.ErrNotFound) {
		return fmt.Errorf("unindex article: %w", err)
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	s.log.Info().Str("article_id", id).Msg("Article deleted")
	return nil
}

// Hydrate loads every published article from the store into the ledger
func (s *articleService) Hydrate(ctx context.Context) (int, error) {
	start := time.Now()
	loaded := 0

	err := s.articles.StreamPublished(ctx, func(article *models.Article) error {
		if err := s.ledger.Publish(article.ID, article.Meta(), article.Counters()); err != nil {
			// a corrupt row must not keep the rest of the catalog out of the index
			s.log.Warn().Err(err).Str("article_id", article.ID).Msg("Skipping article during hydration")
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("hydrate ledger: %w", err)
	}

	metrics.UpdateLedgerGauges(s.ledger.Len(), s.ledger.DirtyCount())
	s.log.Info().
		Int("articles", loaded).
		Dur("duration", time.Since(start)).
		Msg("Ranking engine hydrated")

	return loaded, nil
}

// unindex removes an article from the ledger and persists its final counters
func (s *articleService) unindex(ctx context.Context, id string) (ranking.Snapshot, bool) {
	snap, err := s.maintenance.retire(ctx, id)
	switch {
	case err == nil:
		return snap, true
	case errors.Is(err, ranking.ErrNotFound):
		return ranking.Snapshot{}, false
	case snap.ContentID != "":
		s.log.Error().Err(err).Str("article_id", id).Msg("Failed to persist final engagement")
		return snap, true
	default:
		s.log.Error().Err(err).Str("article_id", id).Msg("Failed to unindex article")
		return ranking.Snapshot{}, false
	}
}

func (s *articleService) applyLive(article *models.Article) {
	if snap, err := s.ledger.Get(article.ID); err == nil {
		article.ApplySnapshot(snap)
	}
}

// uniqueSlug builds "<kebab-title>-<unix millis>", falling back to a random
// suffix on the rare collision.
func (s *articleService) uniqueSlug(ctx context.Context, title string, now time.Time) (string, error) {
	base := validation.Slugify(title)
	if base == "" {
		base = "article"
	}

	slug := base + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	exists, err := s.articles.SlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if exists {
		slug = base + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	}
	return slug, nil
}

// deriveReadingFields sets the read time and, when missing, the excerpt.
// Both are computed on the body's visible text, so markup neither counts as
// words nor leaks into the excerpt.
func deriveReadingFields(article *models.Article) {
	text := plainText(article.Body)

	words := len(strings.Fields(text))
	article.ReadTime = (words + models.WordsPerMinute - 1) / models.WordsPerMinute
	if article.ReadTime < 1 {
		article.ReadTime = 1
	}

	if article.Excerpt == "" {
		if utf8.RuneCountInString(text) > models.ExcerptLength {
			text = strings.TrimSpace(string([]rune(text)[:models.ExcerptLength])) + "..."
		}
		article.Excerpt = text
	}
}

// plainText extracts the readable text of an HTML or plain-text body with
// entities decoded and whitespace collapsed.
func plainText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.Join(strings.Fields(body), " ")
	}

	doc.Find("script, style, noscript").Remove()
	// keep block boundaries from gluing words together
	doc.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr").AfterHtml(" ")

	return strings.Join(strings.Fields(doc.Text()), " ")
}
