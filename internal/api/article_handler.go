package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/service"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// CreateArticle handles POST /v1/articles
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var req models.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	article, err := h.services.Article.Publish(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create article")
		return
	}

	c.JSON(http.StatusCreated, article)
}

// GetArticle handles GET /v1/articles/:id where id is a UUID or a slug
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to get article")
		return
	}

	c.JSON(http.StatusOK, article)
}

// UpdateArticle handles PUT /v1/articles/:id
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	var req models.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), c.Param("id"), currentUser(c), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update article")
		return
	}

	c.JSON(http.StatusOK, article)
}

// DeleteArticle handles DELETE /v1/articles/:id
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		respondError(c, h.log, err, "Failed to delete article")
		return
	}

	c.Status(http.StatusNoContent)
}
