package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/penportal-api/internal/mocks"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/ranking"
)

func TestMockArticleRepository_ToggleLike(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	steps := []struct {
		user string
		want bool
	}{
		{"user-1", true},
		{"user-2", true},
		{"user-1", false},
		{"user-1", true},
	}
	for i, s := range steps {
		liked, err := repo.ToggleLike(ctx, "article-1", s.user)
		if err != nil {
			t.Fatalf("step %d: ToggleLike failed: %v", i, err)
		}
		if liked != s.want {
			t.Errorf("step %d: expected liked=%v, got %v", i, s.want, liked)
		}
	}

	liked, err := repo.LikedBy(ctx, "user-1", []string{"article-1", "article-2"})
	if err != nil {
		t.Fatalf("LikedBy failed: %v", err)
	}
	if !liked["article-1"] || liked["article-2"] {
		t.Errorf("Unexpected liked set %v", liked)
	}
}

func TestMockArticleRepository_SaveEngagement(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.Article{ID: "a1", Status: models.ArticleStatusPublished, Title: "Stored article"})

	n, err := repo.SaveEngagement(ctx, []ranking.Snapshot{
		{ContentID: "a1", Counters: ranking.Counters{Views: 7, Likes: 2, Comments: 1}, Score: 3.5},
		{ContentID: "gone", Counters: ranking.Counters{Views: 1}},
	})
	if err != nil {
		t.Fatalf("SaveEngagement failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 updated row, got %d", n)
	}

	stored, _ := repo.GetByID(ctx, "a1")
	if stored.Views != 7 || stored.LikesCount != 2 || stored.CommentsCount != 1 || stored.TrendingScore != 3.5 {
		t.Errorf("Counters not persisted: %+v", stored)
	}

	// content edits never overwrite counters
	stored.Title = "Edited article"
	stored.Views = 0
	repo.Update(ctx, stored)
	again, _ := repo.GetByID(ctx, "a1")
	if again.Title != "Edited article" || again.Views != 7 {
		t.Errorf("Update should keep counters, got title=%q views=%d", again.Title, again.Views)
	}
}

func TestMockArticleRepository_StreamPublished(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	for _, a := range []*models.Article{
		{ID: "c", Status: models.ArticleStatusPublished},
		{ID: "a", Status: models.ArticleStatusPublished},
		{ID: "b", Status: models.ArticleStatusDraft},
		{ID: "d", Status: models.ArticleStatusArchived},
	} {
		repo.Create(ctx, a)
	}

	var got []string
	err := repo.StreamPublished(ctx, func(a *models.Article) error {
		got = append(got, a.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamPublished failed: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Expected [a c], got %v", got)
	}

	stop := errors.New("stop")
	err = repo.StreamPublished(ctx, func(*models.Article) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Callback error should abort the stream, got %v", err)
	}
}

func TestMockArticleRepository_GetByIDsKeepsOrder(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	for _, id := range []string{"x", "y", "z"} {
		repo.Create(ctx, &models.Article{ID: id})
	}

	got, err := repo.GetByIDs(ctx, []string{"z", "missing", "x"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "z" || got[1].ID != "x" {
		t.Errorf("Expected [z x], got %d articles", len(got))
	}
}

func TestMockCommentRepository_DeleteThread(t *testing.T) {
	repo := mocks.NewMockCommentRepository()
	ctx := context.Background()

	root, child, grandchild, sibling := "c1", "c2", "c3", "c4"
	now := time.Now()
	for _, c := range []*models.Comment{
		{ID: root, ArticleID: "a1", Body: "root", CreatedAt: now},
		{ID: child, ArticleID: "a1", ParentID: &root, Body: "child", CreatedAt: now},
		{ID: grandchild, ArticleID: "a1", ParentID: &child, Body: "grandchild", CreatedAt: now},
		{ID: sibling, ArticleID: "a1", Body: "sibling", CreatedAt: now},
	} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	removed, err := repo.Delete(ctx, root)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Expected 3 removed, got %d", removed)
	}

	list, total, err := repo.ListByArticle(ctx, "a1", 10, 0)
	if err != nil {
		t.Fatalf("ListByArticle failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != sibling {
		t.Errorf("Only the sibling should remain, got total=%d", total)
	}

	if removed, _ := repo.Delete(ctx, root); removed != 0 {
		t.Errorf("Deleting twice should remove nothing, got %d", removed)
	}
}

func TestMockCommentRepository_ListPagination(t *testing.T) {
	repo := mocks.NewMockCommentRepository()
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		repo.Create(ctx, &models.Comment{ID: id, ArticleID: "a1"})
	}
	repo.Create(ctx, &models.Comment{ID: "other", ArticleID: "a2"})

	tests := []struct {
		limit, offset int
		want          []string
	}{
		{2, 0, []string{"c1", "c2"}},
		{2, 4, []string{"c5"}},
		{2, 10, nil},
	}
	for _, tt := range tests {
		list, total, err := repo.ListByArticle(ctx, "a1", tt.limit, tt.offset)
		if err != nil {
			t.Fatalf("ListByArticle failed: %v", err)
		}
		if total != 5 {
			t.Errorf("Expected total 5, got %d", total)
		}
		if len(list) != len(tt.want) {
			t.Errorf("limit=%d offset=%d: expected %d comments, got %d", tt.limit, tt.offset, len(tt.want), len(list))
			continue
		}
		for i := range list {
			if list[i].ID != tt.want[i] {
				t.Errorf("limit=%d offset=%d: position %d got %s, want %s", tt.limit, tt.offset, i, list[i].ID, tt.want[i])
			}
		}
	}
}

func TestMockUserRepository_Signal(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.User{ID: "u1", Interests: []string{"go"}})
	repo.Create(ctx, &models.User{ID: "u2"})
	repo.Create(ctx, &models.User{ID: "u3"})

	repo.ToggleFollow(ctx, "u1", "u3")
	repo.ToggleFollow(ctx, "u1", "u2")
	repo.ToggleFollow(ctx, "u1", "u3") // unfollow

	sig, err := repo.GetSignal(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSignal failed: %v", err)
	}
	if len(sig.Following) != 1 || sig.Following[0] != "u2" {
		t.Errorf("Expected following [u2], got %v", sig.Following)
	}
	if len(sig.Interests) != 1 || sig.Interests[0] != "go" {
		t.Errorf("Expected interests [go], got %v", sig.Interests)
	}

	missing, err := repo.GetSignal(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Unknown user should return nil, nil; got %v, %v", missing, err)
	}
}

func TestMockArticleRepository_ListFiltersAndSorts(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	base := time.Now()

	for _, a := range []*models.Article{
		{ID: "old", AuthorID: "u1", Category: "go", Tags: []string{"go"}, Status: models.ArticleStatusPublished, Views: 50, CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "mid", AuthorID: "u2", Category: "go", Tags: []string{"rust"}, Status: models.ArticleStatusPublished, Views: 90, CreatedAt: base.Add(-time.Hour)},
		{ID: "new", AuthorID: "u1", Category: "misc", Tags: []string{"go", "web"}, Status: models.ArticleStatusPublished, Views: 10, CreatedAt: base},
		{ID: "draft", AuthorID: "u1", Category: "go", Status: models.ArticleStatusDraft, CreatedAt: base},
	} {
		repo.Create(ctx, a)
	}

	tests := []struct {
		name   string
		filter models.ArticleFilter
		want   []string
		total  int
	}{
		{"newest", models.ArticleFilter{Limit: 10}, []string{"new", "mid", "old"}, 3},
		{"oldest", models.ArticleFilter{Sort: models.SortOldest, Limit: 10}, []string{"old", "mid", "new"}, 3},
		{"most viewed", models.ArticleFilter{Sort: models.SortMostViewed, Limit: 10}, []string{"mid", "old", "new"}, 3},
		{"category", models.ArticleFilter{Category: "go", Limit: 10}, []string{"mid", "old"}, 2},
		{"any tag", models.ArticleFilter{Tags: []string{"web", "rust"}, Limit: 10}, []string{"new", "mid"}, 2},
		{"author", models.ArticleFilter{AuthorID: "u1", Limit: 10}, []string{"new", "old"}, 2},
		{"paged", models.ArticleFilter{Limit: 1, Offset: 1}, []string{"mid"}, 3},
		{"past the end", models.ArticleFilter{Limit: 5, Offset: 5}, []string{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			got := make([]string, 0, len(articles))
			for _, a := range articles {
				got = append(got, a.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Expected %v, got %v", tt.want, got)
				}
			}
			if total != tt.total {
				t.Errorf("Expected total %d, got %d", tt.total, total)
			}
		})
	}
}

func TestMockArticleRepository_SavesAndComments(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()
	repo.Create(ctx, &models.Article{ID: "a1", Category: "go", Status: models.ArticleStatusPublished, CommentsCount: 2})
	repo.Create(ctx, &models.Article{ID: "a2", Category: "misc", Status: models.ArticleStatusArchived})

	for _, id := range []string{"a1", "a2"} {
		if saved, err := repo.ToggleSave(ctx, id, "reader"); err != nil || !saved {
			t.Fatalf("ToggleSave(%s) = %v, %v", id, saved, err)
		}
	}
	saved, total, err := repo.ListSaved(ctx, "reader", "", 10, 0)
	if err != nil {
		t.Fatalf("ListSaved failed: %v", err)
	}
	if total != 1 || len(saved) != 1 || saved[0].ID != "a1" {
		t.Errorf("Only the published save should be listed, got %d %v", total, saved)
	}
	if _, total, _ := repo.ListSaved(ctx, "reader", "misc", 10, 0); total != 0 {
		t.Errorf("Expected no saved articles in misc, got %d", total)
	}
	if again, _ := repo.ToggleSave(ctx, "a1", "reader"); again {
		t.Error("Second toggle should unsave")
	}

	repo.DecrementComments(ctx, "a1", 5)
	stored, _ := repo.GetByID(ctx, "a1")
	if stored.CommentsCount != 0 {
		t.Errorf("Comment count should floor at zero, got %d", stored.CommentsCount)
	}
}

func TestMockUserRepository_FollowLists(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()
	for _, id := range []string{"ann", "ben", "cat"} {
		repo.Create(ctx, &models.User{ID: id, Name: id})
	}

	repo.ToggleFollow(ctx, "ben", "ann")
	repo.ToggleFollow(ctx, "cat", "ann")
	repo.ToggleFollow(ctx, "ben", "cat")
	repo.ToggleFollow(ctx, "ben", "cat") // unfollow

	followers, _ := repo.ListFollowers(ctx, "ann")
	if len(followers) != 2 || followers[0].ID != "cat" || followers[1].ID != "ben" {
		t.Errorf("Expected [cat ben], got %v", followers)
	}
	following, _ := repo.ListFollowing(ctx, "ben")
	if len(following) != 1 || following[0].ID != "ann" {
		t.Errorf("Expected [ann], got %v", following)
	}
}
