package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/penportal-api/internal/api"
	"github.com/penportal-api/internal/config"
	"github.com/penportal-api/internal/mocks"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	testSecret = "test-secret-that-is-at-least-32-bytes"
	testUser   = "11111111-1111-4111-8111-111111111111"
	otherUser  = "22222222-2222-4222-8222-222222222222"
)

type testServer struct {
	router     *gin.Engine
	articles   *mocks.MockArticleService
	engagement *mocks.MockEngagementService
	feed       *mocks.MockFeedService
	auth       *api.Authenticator
}

func setupTestRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Auth:   config.AuthConfig{JWTSecret: testSecret, JWTIssuer: "penportal-test"},
	}

	ts := &testServer{
		articles:   mocks.NewMockArticleService(),
		engagement: mocks.NewMockEngagementService(),
		feed:       mocks.NewMockFeedService(),
		auth:       api.NewAuthenticator(cfg.Auth),
	}
	services := &service.Services{
		Article:    ts.articles,
		Engagement: ts.engagement,
		Feed:       ts.feed,
	}
	ts.router = api.NewRouter(services, cfg, zerolog.Nop())
	return ts
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := ts.auth.IssueToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return token
}

func (ts *testServer) do(method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestRouter(t)

	w := ts.do("GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "penportal-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestRouter(t)

	// one request so the API counters have a sample
	ts.do("GET", "/health", "", nil)

	w := ts.do("GET", "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "penportal_api_requests_total") {
		t.Error("Expected API request counter in exposition")
	}
}

func TestAuthRequired(t *testing.T) {
	ts := setupTestRouter(t)

	tests := []struct {
		name   string
		method string
		url    string
		token  string
	}{
		{"feed without token", "GET", "/v1/articles/feed", ""},
		{"create without token", "POST", "/v1/articles", ""},
		{"like with garbage token", "POST", "/v1/articles/x/like", "not-a-jwt"},
		{"comment without token", "POST", "/v1/comments", ""},
		{"interests without token", "PUT", "/v1/users/me/interests", ""},
		{"save without token", "POST", "/v1/articles/x/save", ""},
		{"saved list without token", "GET", "/v1/users/me/saved", ""},
		{"follow without token", "POST", "/v1/users/x/follow", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(tt.method, tt.url, tt.token, map[string]string{})
			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestCreateArticle(t *testing.T) {
	ts := setupTestRouter(t)

	var gotAuthor string
	ts.articles.PublishFunc = func(ctx context.Context, authorID string, req *models.CreateArticleRequest) (*models.Article, error) {
		gotAuthor = authorID
		return &models.Article{ID: "a1", Title: req.Title, AuthorID: authorID, Status: models.ArticleStatusPublished}, nil
	}

	w := ts.do("POST", "/v1/articles", ts.token(t, testUser), models.CreateArticleRequest{
		Title:    "A Title Long Enough",
		Body:     "body",
		Category: "go",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotAuthor != testUser {
		t.Errorf("Author should come from the token, got %q", gotAuthor)
	}

	var article models.Article
	json.Unmarshal(w.Body.Bytes(), &article)
	if article.ID != "a1" || article.Title != "A Title Long Enough" {
		t.Errorf("Unexpected response %+v", article)
	}
}

func TestCreateArticle_ValidationErrors(t *testing.T) {
	ts := setupTestRouter(t)
	ts.articles.PublishFunc = func(ctx context.Context, authorID string, req *models.CreateArticleRequest) (*models.Article, error) {
		return nil, service.ValidationErrors{
			{Field: "title", Message: "title is required"},
			{Field: "body", Message: "body is required"},
		}
	}

	w := ts.do("POST", "/v1/articles", ts.token(t, testUser), models.CreateArticleRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	var resp models.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Details) != 2 {
		t.Errorf("Expected 2 field errors, got %d", len(resp.Details))
	}
}

func TestCreateArticle_MalformedJSON(t *testing.T) {
	ts := setupTestRouter(t)

	req := httptest.NewRequest("POST", "/v1/articles", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token(t, testUser))
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if len(ts.articles.Published) != 0 {
		t.Error("Service should not be called")
	}
}

func TestGetArticle_OptionalAuth(t *testing.T) {
	ts := setupTestRouter(t)

	var viewers []string
	ts.articles.GetFunc = func(ctx context.Context, idOrSlug, viewerID string) (*models.Article, error) {
		viewers = append(viewers, viewerID)
		if idOrSlug != "my-slug" {
			return nil, service.ErrArticleNotFound
		}
		return &models.Article{ID: "a1", Slug: idOrSlug, Views: 3}, nil
	}

	if w := ts.do("GET", "/v1/articles/my-slug", "", nil); w.Code != http.StatusOK {
		t.Errorf("Anonymous read should succeed, got %d", w.Code)
	}
	if w := ts.do("GET", "/v1/articles/my-slug", ts.token(t, testUser), nil); w.Code != http.StatusOK {
		t.Errorf("Authenticated read should succeed, got %d", w.Code)
	}
	if w := ts.do("GET", "/v1/articles/other", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := ts.do("GET", "/v1/articles/my-slug", "bad-token", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Invalid token should be rejected even on optional auth, got %d", w.Code)
	}

	if len(viewers) != 3 || viewers[0] != "" || viewers[1] != testUser {
		t.Errorf("Unexpected viewer ids %v", viewers)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := setupTestRouter(t)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrArticleNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("%w: content xyz", service.ErrArticleNotFound), http.StatusNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"invalid", fmt.Errorf("%w: delta must not be negative", service.ErrInvalidInput), http.StatusBadRequest},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.articles.DeleteFunc = func(ctx context.Context, id, userID string) error {
				return tt.err
			}
			w := ts.do("DELETE", "/v1/articles/a1", ts.token(t, testUser), nil)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if tt.status == http.StatusInternalServerError && strings.Contains(w.Body.String(), "connection reset") {
				t.Error("Internal errors must not leak to clients")
			}
		})
	}
}

func TestDeleteArticle(t *testing.T) {
	ts := setupTestRouter(t)

	w := ts.do("DELETE", "/v1/articles/a1", ts.token(t, testUser), nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if len(ts.articles.Deleted) != 1 || ts.articles.Deleted[0] != "a1" {
		t.Errorf("Unexpected deletes %v", ts.articles.Deleted)
	}
}

func TestToggleLike(t *testing.T) {
	ts := setupTestRouter(t)
	ts.engagement.ToggleLikeFunc = func(ctx context.Context, articleID, userID string) (*models.LikeResponse, error) {
		if userID != testUser {
			t.Errorf("Unexpected user %q", userID)
		}
		return &models.LikeResponse{Liked: true, LikesCount: 42}, nil
	}

	w := ts.do("POST", "/v1/articles/a1/like", ts.token(t, testUser), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp models.LikeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Liked || resp.LikesCount != 42 {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestComments(t *testing.T) {
	ts := setupTestRouter(t)
	token := ts.token(t, testUser)

	w := ts.do("POST", "/v1/comments", token, models.CreateCommentRequest{ArticleID: "a1", Body: "Nice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	var comment models.Comment
	json.Unmarshal(w.Body.Bytes(), &comment)
	if comment.UserID != testUser || comment.Body != "Nice" {
		t.Errorf("Unexpected comment %+v", comment)
	}

	var gotPage, gotLimit int
	var gotViewer string
	ts.engagement.ListCommentsFunc = func(ctx context.Context, articleID, viewerID string, page, limit int) (*models.CommentList, error) {
		gotPage, gotLimit, gotViewer = page, limit, viewerID
		return &models.CommentList{Comments: []*models.Comment{&comment}, Page: page, Limit: limit, Total: 1}, nil
	}
	w = ts.do("GET", "/v1/articles/a1/comments?page=2&limit=5", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotPage != 2 || gotLimit != 5 || gotViewer != "" {
		t.Errorf("Expected anonymous page=2 limit=5, got viewer=%q page=%d limit=%d", gotViewer, gotPage, gotLimit)
	}

	// the author can read the thread of their own draft
	ts.do("GET", "/v1/articles/a1/comments", token, nil)
	if gotViewer != testUser {
		t.Errorf("Expected viewer %s, got %q", testUser, gotViewer)
	}

	ts.engagement.DeleteCommentFunc = func(ctx context.Context, commentID, userID string) error {
		return service.ErrForbidden
	}
	if w := ts.do("DELETE", "/v1/comments/c1", ts.token(t, otherUser), nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestToggleFollow(t *testing.T) {
	ts := setupTestRouter(t)
	ts.engagement.ToggleFollowFunc = func(ctx context.Context, followerID, followeeID string) (*models.FollowResponse, error) {
		if followerID == followeeID {
			return nil, service.ErrSelfFollow
		}
		return &models.FollowResponse{Following: true}, nil
	}
	token := ts.token(t, testUser)

	if w := ts.do("POST", "/v1/users/"+otherUser+"/follow", token, nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := ts.do("POST", "/v1/users/"+testUser+"/follow", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Self follow should be a 400, got %d", w.Code)
	}
}

func TestSetInterests(t *testing.T) {
	ts := setupTestRouter(t)

	w := ts.do("PUT", "/v1/users/me/interests", ts.token(t, testUser), models.InterestsRequest{Interests: []string{"go", "rust"}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var user models.User
	json.Unmarshal(w.Body.Bytes(), &user)
	if user.ID != testUser || len(user.Interests) != 2 {
		t.Errorf("Unexpected user %+v", user)
	}
}

func TestTrendingAndFeed(t *testing.T) {
	ts := setupTestRouter(t)

	var trendingLimit int
	ts.feed.TrendingFunc = func(ctx context.Context, limit int, viewerID string) (*models.ArticleList, error) {
		trendingLimit = limit
		return &models.ArticleList{Articles: []*models.Article{{ID: "hot"}}, Limit: limit}, nil
	}
	var feedUser string
	var feedPage int
	ts.feed.PersonalizedFunc = func(ctx context.Context, userID string, page, limit int) (*models.ArticleList, error) {
		feedUser, feedPage = userID, page
		return &models.ArticleList{Articles: []*models.Article{}, Page: page, Limit: limit}, nil
	}

	w := ts.do("GET", "/v1/articles/trending?limit=7", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if trendingLimit != 7 {
		t.Errorf("Expected limit 7, got %d", trendingLimit)
	}
	var list models.ArticleList
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Articles) != 1 || list.Articles[0].ID != "hot" {
		t.Errorf("Unexpected trending list %+v", list)
	}

	w = ts.do("GET", "/v1/articles/feed?page=3", ts.token(t, testUser), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if feedUser != testUser || feedPage != 3 {
		t.Errorf("Expected feed for %s page 3, got %s page %d", testUser, feedUser, feedPage)
	}

	for _, url := range []string{"/v1/articles/trending?limit=abc", "/v1/articles/trending?limit=-1"} {
		if w := ts.do("GET", url, "", nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", url, w.Code)
		}
	}
}

func TestListArticles(t *testing.T) {
	ts := setupTestRouter(t)

	var got *models.ArticleQuery
	var gotViewer string
	ts.feed.ListFunc = func(ctx context.Context, q *models.ArticleQuery, viewerID string) (*models.ArticleList, error) {
		got, gotViewer = q, viewerID
		if q.Sort == "popularity" {
			return nil, service.ValidationErrors{{Field: "sort", Message: "invalid sort"}}
		}
		return &models.ArticleList{Articles: []*models.Article{{ID: "a1"}}, Page: q.Page, Total: 1}, nil
	}

	w := ts.do("GET", "/v1/articles?page=2&limit=5&category=go&tags=Go,%20backend,,&author="+otherUser+"&sort=-trendingScore", ts.token(t, testUser), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	want := &models.ArticleQuery{
		Page:     2,
		Limit:    5,
		Category: "go",
		Tags:     []string{"Go", "backend"},
		AuthorID: otherUser,
		Sort:     models.SortTrending,
	}
	if fmt.Sprintf("%+v", got) != fmt.Sprintf("%+v", want) {
		t.Errorf("Expected query %+v, got %+v", want, got)
	}
	if gotViewer != testUser {
		t.Errorf("Expected viewer %s, got %q", testUser, gotViewer)
	}

	var list models.ArticleList
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || len(list.Articles) != 1 {
		t.Errorf("Unexpected list %+v", list)
	}

	if w := ts.do("GET", "/v1/articles?sort=popularity", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown sort, got %d", w.Code)
	}
}

func TestSaveAndSavedList(t *testing.T) {
	ts := setupTestRouter(t)
	token := ts.token(t, testUser)

	var savedBy string
	ts.engagement.ToggleSaveFunc = func(ctx context.Context, articleID, userID string) (*models.SaveResponse, error) {
		if articleID == "gone" {
			return nil, service.ErrArticleNotFound
		}
		savedBy = userID
		return &models.SaveResponse{Saved: true}, nil
	}

	w := ts.do("POST", "/v1/articles/a1/save", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp models.SaveResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Saved || savedBy != testUser {
		t.Errorf("Unexpected save %+v by %q", resp, savedBy)
	}
	if w := ts.do("POST", "/v1/articles/gone/save", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	var gotUser, gotCategory string
	ts.feed.SavedFunc = func(ctx context.Context, userID, category string, page, limit int) (*models.ArticleList, error) {
		gotUser, gotCategory = userID, category
		return &models.ArticleList{Articles: []*models.Article{}, Page: page, Limit: limit}, nil
	}
	if w := ts.do("GET", "/v1/users/me/saved?category=go", token, nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotUser != testUser || gotCategory != "go" {
		t.Errorf("Expected saved list of %s in go, got %q in %q", testUser, gotUser, gotCategory)
	}
}

func TestFollowerLists(t *testing.T) {
	ts := setupTestRouter(t)
	ts.engagement.FollowersFunc = func(ctx context.Context, userID string) (*models.UserList, error) {
		if userID != otherUser {
			return nil, service.ErrUserNotFound
		}
		return &models.UserList{Users: []*models.UserSummary{{ID: testUser, Name: "Ada"}}, Count: 1}, nil
	}
	var followingOf string
	ts.engagement.FollowingFunc = func(ctx context.Context, userID string) (*models.UserList, error) {
		followingOf = userID
		return &models.UserList{Users: []*models.UserSummary{}}, nil
	}

	w := ts.do("GET", "/v1/users/"+otherUser+"/followers", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list models.UserList
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 1 || list.Users[0].ID != testUser {
		t.Errorf("Unexpected followers %+v", list)
	}
	if strings.Contains(w.Body.String(), "email") {
		t.Errorf("Follower list must not expose emails: %s", w.Body.String())
	}

	if w := ts.do("GET", "/v1/users/nobody/followers", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := ts.do("GET", "/v1/users/"+testUser+"/following", "", nil); w.Code != http.StatusOK || followingOf != testUser {
		t.Errorf("Expected following of %s, got %d for %q", testUser, w.Code, followingOf)
	}
}

func TestPanicRecovery(t *testing.T) {
	ts := setupTestRouter(t)
	ts.feed.TrendingFunc = func(ctx context.Context, limit int, viewerID string) (*models.ArticleList, error) {
		panic("boom")
	}

	w := ts.do("GET", "/v1/articles/trending", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestRouter(t)

	w := ts.do("OPTIONS", "/v1/articles", "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Authorization should be an allowed header, got %q", got)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: testSecret, JWTIssuer: "penportal-test"}}

	var dbErr error
	router := api.NewRouter(&service.Services{}, cfg, zerolog.Nop(),
		api.WithReadinessCheck(func(ctx context.Context) error { return dbErr }))

	ready := func() int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
		return w.Code
	}

	if code := ready(); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}
	dbErr = errors.New("database is down")
	if code := ready(); code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", code)
	}
}
