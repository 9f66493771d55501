package mocks

import (
	"context"

	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/service"
)

// MockArticleService is a mock implementation of ArticleService
type MockArticleService struct {
	PublishFunc func(ctx context.Context, authorID string, req *models.CreateArticleRequest) (*models.Article, error)
	GetFunc     func(ctx context.Context, idOrSlug, viewerID string) (*models.Article, error)
	UpdateFunc  func(ctx context.Context, id, userID string, req *models.UpdateArticleRequest) (*models.Article, error)
	DeleteFunc  func(ctx context.Context, id, userID string) error
	Published   []*models.CreateArticleRequest
	Deleted     []string
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{
		Published: make([]*models.CreateArticleRequest, 0),
		Deleted:   make([]string, 0),
	}
}

func (m *MockArticleService) Publish(ctx context.Context, authorID string, req *models.CreateArticleRequest) (*models.Article, error) {
	m.Published = append(m.Published, req)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, authorID, req)
	}
	return &models.Article{
		ID:       "test-article-id",
		Title:    req.Title,
		AuthorID: authorID,
		Status:   models.ArticleStatusPublished,
	}, nil
}

func (m *MockArticleService) Get(ctx context.Context, idOrSlug, viewerID string) (*models.Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, idOrSlug, viewerID)
	}
	return nil, service.ErrArticleNotFound
}

func (m *MockArticleService) Update(ctx context.Context, id, userID string, req *models.UpdateArticleRequest) (*models.Article, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, userID, req)
	}
	return nil, service.ErrArticleNotFound
}

func (m *MockArticleService) Delete(ctx context.Context, id, userID string) error {
	m.Deleted = append(m.Deleted, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockArticleService) Hydrate(ctx context.Context) (int, error) {
	return 0, nil
}

// MockEngagementService is a mock implementation of EngagementService
type MockEngagementService struct {
	ToggleLikeFunc    func(ctx context.Context, articleID, userID string) (*models.LikeResponse, error)
	AddCommentFunc    func(ctx context.Context, userID string, req *models.CreateCommentRequest) (*models.Comment, error)
	ListCommentsFunc  func(ctx context.Context, articleID, viewerID string, page, limit int) (*models.CommentList, error)
	DeleteCommentFunc func(ctx context.Context, commentID, userID string) error
	ToggleSaveFunc    func(ctx context.Context, articleID, userID string) (*models.SaveResponse, error)
	ToggleFollowFunc  func(ctx context.Context, followerID, followeeID string) (*models.FollowResponse, error)
	FollowersFunc     func(ctx context.Context, userID string) (*models.UserList, error)
	FollowingFunc     func(ctx context.Context, userID string) (*models.UserList, error)
	SetInterestsFunc  func(ctx context.Context, userID string, interests []string) (*models.User, error)
}

// Verify interface compliance
var _ service.EngagementService = (*MockEngagementService)(nil)

func NewMockEngagementService() *MockEngagementService {
	return &MockEngagementService{}
}

func (m *MockEngagementService) ToggleLike(ctx context.Context, articleID, userID string) (*models.LikeResponse, error) {
	if m.ToggleLikeFunc != nil {
		return m.ToggleLikeFunc(ctx, articleID, userID)
	}
	return &models.LikeResponse{Liked: true, LikesCount: 1}, nil
}

func (m *MockEngagementService) AddComment(ctx context.Context, userID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, userID, req)
	}
	return &models.Comment{
		ID:        "test-comment-id",
		ArticleID: req.ArticleID,
		UserID:    userID,
		ParentID:  req.ParentID,
		Body:      req.Body,
	}, nil
}

func (m *MockEngagementService) ListComments(ctx context.Context, articleID, viewerID string, page, limit int) (*models.CommentList, error) {
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, articleID, viewerID, page, limit)
	}
	return &models.CommentList{Comments: []*models.Comment{}, Page: page, Limit: limit}, nil
}

func (m *MockEngagementService) DeleteComment(ctx context.Context, commentID, userID string) error {
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(ctx, commentID, userID)
	}
	return nil
}

func (m *MockEngagementService) ToggleFollow(ctx context.Context, followerID, followeeID string) (*models.FollowResponse, error) {
	if m.ToggleFollowFunc != nil {
		return m.ToggleFollowFunc(ctx, followerID, followeeID)
	}
	return &models.FollowResponse{Following: true}, nil
}

func (m *MockEngagementService) ToggleSave(ctx context.Context, articleID, userID string) (*models.SaveResponse, error) {
	if m.ToggleSaveFunc != nil {
		return m.ToggleSaveFunc(ctx, articleID, userID)
	}
	return &models.SaveResponse{Saved: true}, nil
}

func (m *MockEngagementService) Followers(ctx context.Context, userID string) (*models.UserList, error) {
	if m.FollowersFunc != nil {
		return m.FollowersFunc(ctx, userID)
	}
	return &models.UserList{Users: []*models.UserSummary{}}, nil
}

func (m *MockEngagementService) Following(ctx context.Context, userID string) (*models.UserList, error) {
	if m.FollowingFunc != nil {
		return m.FollowingFunc(ctx, userID)
	}
	return &models.UserList{Users: []*models.UserSummary{}}, nil
}

func (m *MockEngagementService) SetInterests(ctx context.Context, userID string, interests []string) (*models.User, error) {
	if m.SetInterestsFunc != nil {
		return m.SetInterestsFunc(ctx, userID, interests)
	}
	return &models.User{ID: userID, Interests: interests}, nil
}

// MockFeedService is a mock implementation of FeedService
type MockFeedService struct {
	TrendingFunc     func(ctx context.Context, limit int, viewerID string) (*models.ArticleList, error)
	PersonalizedFunc func(ctx context.Context, userID string, page, limit int) (*models.ArticleList, error)
	ListFunc         func(ctx context.Context, q *models.ArticleQuery, viewerID string) (*models.ArticleList, error)
	SavedFunc        func(ctx context.Context, userID, category string, page, limit int) (*models.ArticleList, error)
}

// Verify interface compliance
var _ service.FeedService = (*MockFeedService)(nil)

func NewMockFeedService() *MockFeedService {
	return &MockFeedService{}
}

func (m *MockFeedService) Trending(ctx context.Context, limit int, viewerID string) (*models.ArticleList, error) {
	if m.TrendingFunc != nil {
		return m.TrendingFunc(ctx, limit, viewerID)
	}
	return &models.ArticleList{Articles: []*models.Article{}, Limit: limit}, nil
}

func (m *MockFeedService) Personalized(ctx context.Context, userID string, page, limit int) (*models.ArticleList, error) {
	if m.PersonalizedFunc != nil {
		return m.PersonalizedFunc(ctx, userID, page, limit)
	}
	return &models.ArticleList{Articles: []*models.Article{}, Page: page, Limit: limit}, nil
}

func (m *MockFeedService) List(ctx context.Context, q *models.ArticleQuery, viewerID string) (*models.ArticleList, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, q, viewerID)
	}
	return &models.ArticleList{Articles: []*models.Article{}, Page: q.Page, Limit: q.Limit}, nil
}

func (m *MockFeedService) Saved(ctx context.Context, userID, category string, page, limit int) (*models.ArticleList, error) {
	if m.SavedFunc != nil {
		return m.SavedFunc(ctx, userID, category, page, limit)
	}
	return &models.ArticleList{Articles: []*models.Article{}, Page: page, Limit: limit}, nil
}
