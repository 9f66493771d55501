package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/penportal-api/internal/models"
)

var (
	slugRegex    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	tagRegex     = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ._+#-]*$`)
)

// Article limits
const (
	MinTitleLength = 10
	MaxTitleLength = 200
	MinBodyLength  = 100
	MaxExcerpt     = 300
	MaxTags        = 10
	MaxTagLength   = 40
	MaxCategoryLen = 50
)

// Validator checks API payloads before they reach the services
type Validator struct {
	maxTags      int
	maxInterests int
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		maxTags:      MaxTags,
		maxInterests: models.MaxInterests,
	}
}

// ValidateCreateArticle validates a publish request
func (v *Validator) ValidateCreateArticle(req *models.CreateArticleRequest) []models.ValidationError {
	var errors []models.ValidationError

	errors = append(errors, v.validateTitle(req.Title)...)
	errors = append(errors, v.validateBody(req.Body)...)
	errors = append(errors, v.validateExcerpt(req.Excerpt)...)

	if strings.TrimSpace(req.Category) == "" {
		errors = append(errors, models.ValidationError{Field: "category", Message: "category is required"})
	} else {
		errors = append(errors, v.validateCategory(req.Category)...)
	}

	errors = append(errors, v.validateTags(req.Tags)...)
	errors = append(errors, v.validateStatus(req.Status)...)

	return errors
}

// ValidateUpdateArticle validates an edit request. Only present fields are checked.
func (v *Validator) ValidateUpdateArticle(req *models.UpdateArticleRequest) []models.ValidationError {
	var errors []models.ValidationError

	if req.Title != nil {
		errors = append(errors, v.validateTitle(*req.Title)...)
	}
	if req.Body != nil {
		errors = append(errors, v.validateBody(*req.Body)...)
	}
	if req.Excerpt != nil {
		errors = append(errors, v.validateExcerpt(*req.Excerpt)...)
	}
	if req.Category != nil {
		if strings.TrimSpace(*req.Category) == "" {
			errors = append(errors, models.ValidationError{Field: "category", Message: "category must not be empty"})
		} else {
			errors = append(errors, v.validateCategory(*req.Category)...)
		}
	}
	if req.Tags != nil {
		errors = append(errors, v.validateTags(req.Tags)...)
	}
	if req.Status != nil {
		errors = append(errors, v.validateStatus(*req.Status)...)
	}

	return errors
}

// ValidateComment validates a comment request
func (v *Validator) ValidateComment(req *models.CreateCommentRequest) []models.ValidationError {
	var errors []models.ValidationError

	if req.ArticleID == "" {
		errors = append(errors, models.ValidationError{Field: "article_id", Message: "article_id is required"})
	} else if !IsValidUUID(req.ArticleID) {
		errors = append(errors, models.ValidationError{Field: "article_id", Message: "invalid UUID format", Value: req.ArticleID})
	}

	if req.ParentID != nil && !IsValidUUID(*req.ParentID) {
		errors = append(errors, models.ValidationError{Field: "parent_id", Message: "invalid UUID format", Value: *req.ParentID})
	}

	if strings.TrimSpace(req.Body) == "" {
		errors = append(errors, models.ValidationError{Field: "body", Message: "body is required"})
	} else {
		wordCount := len(strings.Fields(req.Body))
		if wordCount > models.MaxCommentWords {
			errors = append(errors, models.ValidationError{
				Field:   "body",
				Message: fmt.Sprintf("body exceeds maximum of %d words (has %d)", models.MaxCommentWords, wordCount),
			})
		}
	}

	return errors
}

// ValidateArticleQuery validates the filters of an article listing. Paging is
// clamped by the service, not rejected here.
func (v *Validator) ValidateArticleQuery(q *models.ArticleQuery) []models.ValidationError {
	var errors []models.ValidationError

	if q.Sort != "" && !models.ValidSorts[q.Sort] {
		errors = append(errors, models.ValidationError{
			Field:   "sort",
			Message: "invalid sort, must be one of: -createdAt, createdAt, -trendingScore, -views, -likesCount",
			Value:   q.Sort,
		})
	}
	if q.AuthorID != "" && !IsValidUUID(q.AuthorID) {
		errors = append(errors, models.ValidationError{Field: "author", Message: "invalid UUID format", Value: q.AuthorID})
	}
	if q.Category != "" {
		errors = append(errors, v.validateCategory(q.Category)...)
	}
	errors = append(errors, v.validateTags(q.Tags)...)

	return errors
}

// ValidateInterests validates a replacement interests list
func (v *Validator) ValidateInterests(interests []string) []models.ValidationError {
	var errors []models.ValidationError

	if len(interests) > v.maxInterests {
		errors = append(errors, models.ValidationError{
			Field:   "interests",
			Message: fmt.Sprintf("at most %d interests allowed", v.maxInterests),
			Value:   len(interests),
		})
		return errors
	}

	for _, interest := range interests {
		if msg := checkTag(interest); msg != "" {
			errors = append(errors, models.ValidationError{Field: "interests", Message: msg, Value: interest})
		}
	}
	return errors
}

func (v *Validator) validateTitle(title string) []models.ValidationError {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	switch {
	case n == 0:
		return []models.ValidationError{{Field: "title", Message: "title is required"}}
	case n < MinTitleLength:
		return []models.ValidationError{{Field: "title", Message: fmt.Sprintf("title must be at least %d characters", MinTitleLength)}}
	case n > MaxTitleLength:
		return []models.ValidationError{{Field: "title", Message: fmt.Sprintf("title cannot exceed %d characters", MaxTitleLength)}}
	}
	return nil
}

func (v *Validator) validateBody(body string) []models.ValidationError {
	n := utf8.RuneCountInString(strings.TrimSpace(body))
	if n == 0 {
		return []models.ValidationError{{Field: "body", Message: "body is required"}}
	}
	if n < MinBodyLength {
		return []models.ValidationError{{Field: "body", Message: fmt.Sprintf("body must be at least %d characters", MinBodyLength)}}
	}
	return nil
}

func (v *Validator) validateExcerpt(excerpt string) []models.ValidationError {
	if utf8.RuneCountInString(excerpt) > MaxExcerpt {
		return []models.ValidationError{{Field: "excerpt", Message: fmt.Sprintf("excerpt cannot exceed %d characters", MaxExcerpt)}}
	}
	return nil
}

func (v *Validator) validateCategory(category string) []models.ValidationError {
	if msg := checkTag(category); msg != "" {
		return []models.ValidationError{{Field: "category", Message: msg, Value: category}}
	}
	if utf8.RuneCountInString(category) > MaxCategoryLen {
		return []models.ValidationError{{Field: "category", Message: fmt.Sprintf("category cannot exceed %d characters", MaxCategoryLen)}}
	}
	return nil
}

func (v *Validator) validateTags(tags []string) []models.ValidationError {
	var errors []models.ValidationError

	if len(tags) > v.maxTags {
		errors = append(errors, models.ValidationError{
			Field:   "tags",
			Message: fmt.Sprintf("at most %d tags allowed", v.maxTags),
			Value:   len(tags),
		})
		return errors
	}

	for _, tag := range tags {
		if msg := checkTag(tag); msg != "" {
			errors = append(errors, models.ValidationError{Field: "tags", Message: msg, Value: tag})
		}
	}
	return errors
}

func (v *Validator) validateStatus(status models.ArticleStatus) []models.ValidationError {
	if status != "" && !models.ValidStatuses[status] {
		return []models.ValidationError{{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published, archived",
			Value:   status,
		}}
	}
	return nil
}

func checkTag(tag string) string {
	t := strings.TrimSpace(tag)
	if t == "" {
		return "must not be empty"
	}
	if utf8.RuneCountInString(t) > MaxTagLength {
		return fmt.Sprintf("cannot exceed %d characters", MaxTagLength)
	}
	if !tagRegex.MatchString(t) {
		return "contains invalid characters"
	}
	return ""
}

// NormalizeTags lower-cases, trims and de-duplicates tags keeping first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Slugify turns a title into kebab-case
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// IsValidSlug reports whether s is kebab-case
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
