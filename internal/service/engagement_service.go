package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/penportal-api/internal/metrics"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
	"github.com/penportal-api/internal/repository"
	"github.com/penportal-api/internal/validation"
	"github.com/rs/zerolog"
)

// engagementService is the concrete implementation of EngagementService.
// Set membership (likers, follow edges, comment rows) lives in the store;
// the ledger only sees the resulting counter deltas.
type engagementService struct {
	articles  repository.ArticleRepository
	comments  repository.CommentRepository
	users     repository.UserRepository
	ledger    *ranking.Ledger
	validator *validation.Validator
	log       zerolog.Logger
}

// newEngagementService creates a new EngagementService
func newEngagementService(repos *repository.Repositories, engine *Engine, validator *validation.Validator, log zerolog.Logger) *engagementService {
	return &engagementService{
		articles:  repos.Article,
		comments:  repos.Comment,
		users:     repos.User,
		ledger:    engine.Ledger,
		validator: validator,
		log:       log.With().Str("service", "engagement").Logger(),
	}
}

// ToggleLike likes the article for userID, or unlikes it if already liked
func (s *engagementService) ToggleLike(ctx context.Context, articleID, userID string) (*models.LikeResponse, error) {
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	liked, err := s.articles.ToggleLike(ctx, articleID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	ev := ranking.EngagementEvent{ContentID: articleID, Kind: ranking.EventUnlike, UserID: userID}
	if liked {
		ev.Kind = ranking.EventLike
	}

	snap, err := s.apply(ev)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("article_id", articleID).
		Str("user_id", userID).
		Bool("liked", liked).
		Int64("likes", snap.Counters.Likes).
		Msg("Like toggled")

	return &models.LikeResponse{Liked: liked, LikesCount: snap.Counters.Likes}, nil
}

// AddComment stores a comment or reply and counts it against the article
func (s *engagementService) AddComment(ctx context.Context, userID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if err := validationFailed(s.validator.ValidateComment(req)); err != nil {
		return nil, err
	}
	if _, err := s.publishedArticle(ctx, req.ArticleID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get parent comment: %w", err)
		}
		if parent == nil || parent.ArticleID != req.ArticleID {
			return nil, ErrCommentNotFound
		}
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		ArticleID: req.ArticleID,
		UserID:    userID,
		ParentID:  req.ParentID,
		Body:      req.Body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if _, err := s.apply(ranking.EngagementEvent{ContentID: req.ArticleID, Kind: ranking.EventComment, Delta: 1}); err != nil {
		s.log.Warn().Err(err).Str("article_id", req.ArticleID).Msg("Comment stored but not counted")
	}

	s.log.Debug().
		Str("comment_id", comment.ID).
		Str("article_id", comment.ArticleID).
		Bool("reply", comment.ParentID != nil).
		Msg("Comment added")

	return comment, nil
}

// ListComments returns a page of an article's comments, oldest first. Threads
// under drafts and archived articles are visible to their author only.
func (s *engagementService) ListComments(ctx context.Context, articleID, viewerID string, page, limit int) (*models.CommentList, error) {
	if !validation.IsValidUUID(articleID) {
		return nil, ErrArticleNotFound
	}
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil || (!article.IsPublished() && article.AuthorID != viewerID) {
		return nil, ErrArticleNotFound
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	comments, total, err := s.comments.ListByArticle(ctx, articleID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return &models.CommentList{
		Comments: comments,
		Page:     page,
		Limit:    limit,
		Total:    total,
	}, nil
}

// DeleteComment removes a comment and its replies and subtracts them from the
// article's count, floored at zero.
func (s *engagementService) DeleteComment(ctx context.Context, commentID, userID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if comment == nil {
		return ErrCommentNotFound
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	removed, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if removed == 0 {
		return ErrCommentNotFound
	}

	_, err = s.apply(ranking.EngagementEvent{ContentID: comment.ArticleID, Kind: ranking.EventUncomment, Delta: removed})
	switch {
	case err == nil:
	case errors.Is(err, ErrArticleNotFound):
		// not ranked: the stored count is the only copy
		if err := s.articles.DecrementComments(ctx, comment.ArticleID, removed); err != nil {
			return fmt.Errorf("decrement comments: %w", err)
		}
	default:
		return err
	}

	s.log.Debug().
		Str("comment_id", commentID).
		Str("article_id", comment.ArticleID).
		Int64("removed", removed).
		Msg("Comment thread deleted")

	return nil
}

// ToggleFollow follows or unfollows followeeID
func (s *engagementService) ToggleFollow(ctx context.Context, followerID, followeeID string) (*models.FollowResponse, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}
	if !validation.IsValidUUID(followeeID) {
		return nil, ErrUserNotFound
	}

	exists, err := s.users.Exists(ctx, followeeID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	following, err := s.users.ToggleFollow(ctx, followerID, followeeID)
	if err != nil {
		return nil, fmt.Errorf("toggle follow: %w", err)
	}

	s.log.Debug().
		Str("follower_id", followerID).
		Str("followee_id", followeeID).
		Bool("following", following).
		Msg("Follow toggled")

	return &models.FollowResponse{Following: following}, nil
}

// ToggleSave adds a published article to the user's reading list, or removes
// it if already saved. Saves do not affect ranking.
func (s *engagementService) ToggleSave(ctx context.Context, articleID, userID string) (*models.SaveResponse, error) {
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	saved, err := s.articles.ToggleSave(ctx, articleID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle save: %w", err)
	}

	s.log.Debug().
		Str("article_id", articleID).
		Str("user_id", userID).
		Bool("saved", saved).
		Msg("Save toggled")

	return &models.SaveResponse{Saved: saved}, nil
}

// Followers lists the users following userID
func (s *engagementService) Followers(ctx context.Context, userID string) (*models.UserList, error) {
	return s.listUsers(ctx, userID, s.users.ListFollowers)
}

// Following lists the users userID follows
func (s *engagementService) Following(ctx context.Context, userID string) (*models.UserList, error) {
	return s.listUsers(ctx, userID, s.users.ListFollowing)
}

func (s *engagementService) listUsers(ctx context.Context, userID string, list func(context.Context, string) ([]*models.User, error)) (*models.UserList, error) {
	if !validation.IsValidUUID(userID) {
		return nil, ErrUserNotFound
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	users, err := list(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := &models.UserList{Users: make([]*models.UserSummary, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, u.Summary())
	}
	out.Count = len(out.Users)
	return out, nil
}

// SetInterests replaces the interests the feed personalizes on
func (s *engagementService) SetInterests(ctx context.Context, userID string, interests []string) (*models.User, error) {
	if err := validationFailed(s.validator.ValidateInterests(interests)); err != nil {
		return nil, err
	}

	normalized := validation.NormalizeTags(interests)
	if err := s.users.SetInterests(ctx, userID, normalized); err != nil {
		return nil, fmt.Errorf("set interests: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *engagementService) publishedArticle(ctx context.Context, articleID string) (*models.Article, error) {
	if !validation.IsValidUUID(articleID) {
		return nil, ErrArticleNotFound
	}
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil || !article.IsPublished() {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

// apply runs an engagement event through the ledger and maps engine errors
func (s *engagementService) apply(ev ranking.EngagementEvent) (ranking.Snapshot, error) {
	snap, err := s.ledger.Apply(ev)
	switch {
	case err == nil:
		metrics.RecordEngagement(string(ev.Kind), "ok")
		return snap, nil
	case errors.Is(err, ranking.ErrNotFound):
		metrics.RecordEngagement(string(ev.Kind), "not_found")
		return ranking.Snapshot{}, fmt.Errorf("%w: %v", ErrArticleNotFound, err)
	case errors.Is(err, ranking.ErrInvalidArgument):
		metrics.RecordEngagement(string(ev.Kind), "invalid")
		return ranking.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		metrics.RecordEngagement(string(ev.Kind), "error")
		return ranking.Snapshot{}, err
	}
}
