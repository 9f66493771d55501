package validation

import (
	"reflect"
	"strings"
	"testing"

	"github.com/penportal-api/internal/models"
)

var validBody = strings.Repeat("Go makes concurrent services pleasant to write. ", 5)

func TestValidateCreateArticle(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		req        *models.CreateArticleRequest
		wantErrors int
		wantFields []string
	}{
		{
			name: "valid article with all fields",
			req: &models.CreateArticleRequest{
				Title:    "Understanding trending scores",
				Body:     validBody,
				Category: "engineering",
				Tags:     []string{"go", "ranking"},
				Status:   models.ArticleStatusPublished,
			},
			wantErrors: 0,
		},
		{
			name: "missing title and category",
			req: &models.CreateArticleRequest{
				Body: validBody,
			},
			wantErrors: 2,
			wantFields: []string{"title", "category"},
		},
		{
			name: "title too short",
			req: &models.CreateArticleRequest{
				Title:    "Short",
				Body:     validBody,
				Category: "go",
			},
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name: "body too short",
			req: &models.CreateArticleRequest{
				Title:    "A long enough title",
				Body:     "tiny",
				Category: "go",
			},
			wantErrors: 1,
			wantFields: []string{"body"},
		},
		{
			name: "excerpt too long",
			req: &models.CreateArticleRequest{
				Title:    "A long enough title",
				Body:     validBody,
				Excerpt:  strings.Repeat("x", MaxExcerpt+1),
				Category: "go",
			},
			wantErrors: 1,
			wantFields: []string{"excerpt"},
		},
		{
			name: "invalid status",
			req: &models.CreateArticleRequest{
				Title:    "A long enough title",
				Body:     validBody,
				Category: "go",
				Status:   "deleted",
			},
			wantErrors: 1,
			wantFields: []string{"status"},
		},
		{
			name: "bad tags",
			req: &models.CreateArticleRequest{
				Title:    "A long enough title",
				Body:     validBody,
				Category: "go",
				Tags:     []string{"ok", " ", "<script>"},
			},
			wantErrors: 2,
			wantFields: []string{"tags", "tags"},
		},
		{
			name: "too many tags",
			req: &models.CreateArticleRequest{
				Title:    "A long enough title",
				Body:     validBody,
				Category: "go",
				Tags:     strings.Split("a,b,c,d,e,f,g,h,i,j,k", ","),
			},
			wantErrors: 1,
			wantFields: []string{"tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := validator.ValidateCreateArticle(tt.req)
			if len(errors) != tt.wantErrors {
				t.Fatalf("ValidateCreateArticle() got %d errors, want %d: %+v", len(errors), tt.wantErrors, errors)
			}
			for i, field := range tt.wantFields {
				if errors[i].Field != field {
					t.Errorf("error[%d].Field = %q, want %q", i, errors[i].Field, field)
				}
			}
		})
	}
}

func TestValidateUpdateArticle(t *testing.T) {
	validator := NewValidator()
	empty := ""
	short := "short"
	archived := models.ArticleStatusArchived

	tests := []struct {
		name       string
		req        *models.UpdateArticleRequest
		wantErrors int
	}{
		{"empty update", &models.UpdateArticleRequest{}, 0},
		{"status only", &models.UpdateArticleRequest{Status: &archived}, 0},
		{"blank category", &models.UpdateArticleRequest{Category: &empty}, 1},
		{"short title", &models.UpdateArticleRequest{Title: &short}, 1},
		{"short body", &models.UpdateArticleRequest{Body: &short}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validator.ValidateUpdateArticle(tt.req); len(got) != tt.wantErrors {
				t.Errorf("ValidateUpdateArticle() got %d errors, want %d: %+v", len(got), tt.wantErrors, got)
			}
		})
	}
}

func TestValidateComment(t *testing.T) {
	validator := NewValidator()
	badParent := "not-a-uuid"

	tests := []struct {
		name       string
		req        *models.CreateCommentRequest
		wantFields []string
	}{
		{
			name: "valid comment",
			req:  &models.CreateCommentRequest{ArticleID: "550e8400-e29b-41d4-a716-446655440000", Body: "Nice read"},
		},
		{
			name:       "missing article",
			req:        &models.CreateCommentRequest{Body: "Nice read"},
			wantFields: []string{"article_id"},
		},
		{
			name:       "bad parent and empty body",
			req:        &models.CreateCommentRequest{ArticleID: "550e8400-e29b-41d4-a716-446655440000", ParentID: &badParent, Body: "  "},
			wantFields: []string{"parent_id", "body"},
		},
		{
			name: "body over word limit",
			req: &models.CreateCommentRequest{
				ArticleID: "550e8400-e29b-41d4-a716-446655440000",
				Body:      strings.Repeat("word ", models.MaxCommentWords+1),
			},
			wantFields: []string{"body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := validator.ValidateComment(tt.req)
			if len(errors) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %+v", len(errors), len(tt.wantFields), errors)
			}
			for i, field := range tt.wantFields {
				if errors[i].Field != field {
					t.Errorf("error[%d].Field = %q, want %q", i, errors[i].Field, field)
				}
			}
		})
	}
}

func TestValidateInterests(t *testing.T) {
	validator := NewValidator()

	if errs := validator.ValidateInterests([]string{"go", "Machine Learning", "c++"}); len(errs) != 0 {
		t.Errorf("Expected valid interests, got %+v", errs)
	}
	if errs := validator.ValidateInterests([]string{"go", ""}); len(errs) != 1 {
		t.Errorf("Expected 1 error for empty interest, got %+v", errs)
	}

	tooMany := make([]string, models.MaxInterests+1)
	for i := range tooMany {
		tooMany[i] = "topic"
	}
	if errs := validator.ValidateInterests(tooMany); len(errs) != 1 {
		t.Errorf("Expected a single size error, got %d", len(errs))
	}
}

func TestValidateArticleQuery(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		query      models.ArticleQuery
		wantFields []string
	}{
		{name: "empty query", query: models.ArticleQuery{}},
		{
			name: "all filters",
			query: models.ArticleQuery{
				Category: "engineering",
				Tags:     []string{"go", "ranking"},
				AuthorID: "123e4567-e89b-12d3-a456-426614174000",
				Sort:     models.SortTrending,
			},
		},
		{name: "unknown sort", query: models.ArticleQuery{Sort: "popularity"}, wantFields: []string{"sort"}},
		{name: "bad author", query: models.ArticleQuery{AuthorID: "bob"}, wantFields: []string{"author"}},
		{name: "bad tag", query: models.ArticleQuery{Tags: []string{"go", "<b>"}}, wantFields: []string{"tags"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateArticleQuery(&tt.query)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			if !reflect.DeepEqual(fields, tt.wantFields) {
				t.Errorf("Expected fields %v, got %v", tt.wantFields, fields)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Go ", "go", "Backend", "", "GO"})
	want := []string{"go", "backend"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags() = %v, want %v", got, want)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Trending   Scores in Go  ", "trending-scores-in-go"},
		{"---", ""},
	}

	for _, tt := range tests {
		got := Slugify(tt.in)
		if got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got != "" && !IsValidSlug(got) {
			t.Errorf("Slugify(%q) produced invalid slug %q", tt.in, got)
		}
	}
}
