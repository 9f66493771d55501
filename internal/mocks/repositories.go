package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
	"github.com/penportal-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.ArticleRepository = (*MockArticleRepository)(nil)
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*models.User
	Follows     map[string]map[string]bool // follower -> followees
	followSeq   map[[2]string]int
	seq         int
	InsertError error
	SignalError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:   make(map[string]*models.User),
		Follows:   make(map[string]map[string]bool),
		followSeq: make(map[[2]string]int),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[id], nil
}

func (m *MockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.Users[id]
	return exists, nil
}

func (m *MockUserRepository) GetSignal(ctx context.Context, id string) (*models.UserSignal, error) {
	if m.SignalError != nil {
		return nil, m.SignalError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	signal := &models.UserSignal{UserID: id, Interests: user.Interests, Following: []string{}}
	for followee := range m.Follows[id] {
		signal.Following = append(signal.Following, followee)
	}
	sort.Strings(signal.Following)
	return signal, nil
}

func (m *MockUserRepository) ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Follows[followerID] == nil {
		m.Follows[followerID] = make(map[string]bool)
	}
	if m.Follows[followerID][followeeID] {
		delete(m.Follows[followerID], followeeID)
		return false, nil
	}
	m.Follows[followerID][followeeID] = true
	m.seq++
	m.followSeq[[2]string{followerID, followeeID}] = m.seq
	return true, nil
}

func (m *MockUserRepository) ListFollowers(ctx context.Context, id string) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var edges [][2]string
	for follower, followees := range m.Follows {
		if followees[id] {
			edges = append(edges, [2]string{follower, id})
		}
	}
	return m.usersByRecency(edges, 0), nil
}

func (m *MockUserRepository) ListFollowing(ctx context.Context, id string) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var edges [][2]string
	for followee := range m.Follows[id] {
		edges = append(edges, [2]string{id, followee})
	}
	return m.usersByRecency(edges, 1), nil
}

// usersByRecency resolves edge[side] to users, most recent edge first
func (m *MockUserRepository) usersByRecency(edges [][2]string, side int) []*models.User {
	sort.Slice(edges, func(i, j int) bool { return m.followSeq[edges[i]] > m.followSeq[edges[j]] })
	users := make([]*models.User, 0, len(edges))
	for _, e := range edges {
		if u, ok := m.Users[e[side]]; ok {
			users = append(users, u)
		}
	}
	return users
}

func (m *MockUserRepository) SetInterests(ctx context.Context, id string, interests []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Users[id]; ok {
		user.Interests = interests
	}
	return nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	mu                 sync.Mutex
	Articles           map[string]*models.Article
	Likes              map[string]map[string]bool // article -> users
	Saves              map[string]map[string]int  // user -> article -> save order
	saveSeq            int
	InsertError        error
	SaveEngagementFunc func(ctx context.Context, snapshots []ranking.Snapshot) (int, error)
	SaveEngagementCalls int
	Saved              map[string]ranking.Snapshot
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[string]*models.Article),
		Likes:    make(map[string]map[string]bool),
		Saves:    make(map[string]map[string]int),
		Saved:    make(map[string]ranking.Snapshot),
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *article
	m.Articles[article.ID] = &copied
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Articles {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.Articles[id]; ok {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.Articles[article.ID]
	if !ok {
		return nil
	}
	copied := *article
	// counters are only written by SaveEngagement
	copied.Views, copied.LikesCount, copied.CommentsCount, copied.TrendingScore =
		prev.Views, prev.LikesCount, prev.CommentsCount, prev.TrendingScore
	m.Articles[article.ID] = &copied
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Articles, id)
	delete(m.Likes, id)
	for _, saved := range m.Saves {
		delete(saved, id)
	}
	return nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Articles), nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	m.mu.Lock()
	matched := make([]*models.Article, 0)
	for _, a := range m.Articles {
		if !a.IsPublished() {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
			continue
		}
		if len(filter.Tags) > 0 && !overlaps(a.Tags, filter.Tags) {
			continue
		}
		copied := *a
		matched = append(matched, &copied)
	}
	m.mu.Unlock()

	newer := func(x, y *models.Article) bool {
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.After(y.CreatedAt)
		}
		return x.ID < y.ID
	}
	sort.Slice(matched, func(i, j int) bool {
		x, y := matched[i], matched[j]
		switch filter.Sort {
		case models.SortOldest:
			if !x.CreatedAt.Equal(y.CreatedAt) {
				return x.CreatedAt.Before(y.CreatedAt)
			}
			return x.ID < y.ID
		case models.SortTrending:
			if x.TrendingScore != y.TrendingScore {
				return x.TrendingScore > y.TrendingScore
			}
		case models.SortMostViewed:
			if x.Views != y.Views {
				return x.Views > y.Views
			}
		case models.SortMostLiked:
			if x.LikesCount != y.LikesCount {
				return x.LikesCount > y.LikesCount
			}
		}
		return newer(x, y)
	})
	return slicePage(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (m *MockArticleRepository) StreamPublished(ctx context.Context, callback func(*models.Article) error) error {
	m.mu.Lock()
	published := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		if a.IsPublished() {
			copied := *a
			published = append(published, &copied)
		}
	}
	m.mu.Unlock()

	sort.Slice(published, func(i, j int) bool { return published[i].ID < published[j].ID })
	for _, article := range published {
		if err := callback(article); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockArticleRepository) SaveEngagement(ctx context.Context, snapshots []ranking.Snapshot) (int, error) {
	m.mu.Lock()
	m.SaveEngagementCalls++
	fn := m.SaveEngagementFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, snapshots)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for _, s := range snapshots {
		m.Saved[s.ContentID] = s
		if a, ok := m.Articles[s.ContentID]; ok {
			a.ApplySnapshot(s)
			updated++
		}
	}
	return updated, nil
}

func (m *MockArticleRepository) DecrementComments(ctx context.Context, id string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		a.CommentsCount -= n
		if a.CommentsCount < 0 {
			a.CommentsCount = 0
		}
	}
	return nil
}

func (m *MockArticleRepository) ToggleSave(ctx context.Context, articleID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Saves[userID] == nil {
		m.Saves[userID] = make(map[string]int)
	}
	if _, ok := m.Saves[userID][articleID]; ok {
		delete(m.Saves[userID], articleID)
		return false, nil
	}
	m.saveSeq++
	m.Saves[userID][articleID] = m.saveSeq
	return true, nil
}

func (m *MockArticleRepository) ListSaved(ctx context.Context, userID, category string, limit, offset int) ([]*models.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]*models.Article, 0)
	for id := range m.Saves[userID] {
		a, ok := m.Articles[id]
		if !ok || !a.IsPublished() || (category != "" && a.Category != category) {
			continue
		}
		copied := *a
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		x, y := matched[i], matched[j]
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.After(y.CreatedAt)
		}
		return x.ID < y.ID
	})
	return slicePage(matched, limit, offset), len(matched), nil
}

func (m *MockArticleRepository) ToggleLike(ctx context.Context, articleID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Likes[articleID] == nil {
		m.Likes[articleID] = make(map[string]bool)
	}
	if m.Likes[articleID][userID] {
		delete(m.Likes[articleID], userID)
		return false, nil
	}
	m.Likes[articleID][userID] = true
	return true, nil
}

func (m *MockArticleRepository) LikedBy(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	liked := make(map[string]bool)
	for _, id := range articleIDs {
		if m.Likes[id][userID] {
			liked[id] = true
		}
	}
	return liked, nil
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func slicePage(articles []*models.Article, limit, offset int) []*models.Article {
	if offset >= len(articles) {
		return []*models.Article{}
	}
	end := offset + limit
	if end > len(articles) {
		end = len(articles)
	}
	return articles[offset:end]
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mu          sync.Mutex
	Comments    map[string]*models.Comment
	order       []string
	InsertError error
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[string]*models.Comment),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Comments[comment.ID] = comment
	m.order = append(m.order, comment.ID)
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Comments[id], nil
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string, limit, offset int) ([]*models.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []*models.Comment
	for _, id := range m.order {
		if c, ok := m.Comments[id]; ok && c.ArticleID == articleID {
			all = append(all, c)
		}
	}
	total := len(all)
	if offset >= total {
		return []*models.Comment{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Comments[id]; !ok {
		return 0, nil
	}
	// remove the whole reply thread
	thread := []string{id}
	var removed int64
	for len(thread) > 0 {
		cur := thread[0]
		thread = thread[1:]
		if _, ok := m.Comments[cur]; !ok {
			continue
		}
		delete(m.Comments, cur)
		removed++
		for childID, c := range m.Comments {
			if c.ParentID != nil && *c.ParentID == cur {
				thread = append(thread, childID)
			}
		}
	}
	return removed, nil
}
