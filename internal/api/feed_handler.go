package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/service"
	"github.com/rs/zerolog"
)

// FeedHandler handles ranked article lists
type FeedHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(services *service.Services, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		services: services,
		log:      log.With().Str("handler", "feed").Logger(),
	}
}

// Trending handles GET /v1/articles/trending
func (h *FeedHandler) Trending(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	list, err := h.services.Feed.Trending(c.Request.Context(), limit, currentUser(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to load trending articles")
		return
	}

	c.JSON(http.StatusOK, list)
}

// Feed handles GET /v1/articles/feed
func (h *FeedHandler) Feed(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	list, err := h.services.Feed.Personalized(c.Request.Context(), currentUser(c), page, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to compose feed")
		return
	}

	c.JSON(http.StatusOK, list)
}

// List handles GET /v1/articles
func (h *FeedHandler) List(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	q := &models.ArticleQuery{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Tags:     queryList(c, "tags"),
		AuthorID: c.Query("author"),
		Sort:     models.ArticleSort(c.Query("sort")),
	}

	list, err := h.services.Feed.List(c.Request.Context(), q, currentUser(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to list articles")
		return
	}

	c.JSON(http.StatusOK, list)
}

// Saved handles GET /v1/users/me/saved
func (h *FeedHandler) Saved(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	list, err := h.services.Feed.Saved(c.Request.Context(), currentUser(c), c.Query("category"), page, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to list saved articles")
		return
	}

	c.JSON(http.StatusOK, list)
}

// queryList splits a comma-separated query parameter, dropping empty items
func queryList(c *gin.Context, name string) []string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// queryInt reads a non-negative integer query parameter, writing a 400 when
// it is malformed. Zero means "use the service default".
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		badRequest(c, fmt.Sprintf("%s must be a non-negative integer", name))
		return 0, false
	}
	return v, true
}
