package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/service"
	"github.com/rs/zerolog"
)

// EngagementHandler handles likes, comments, follows and interests
type EngagementHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(services *service.Services, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		services: services,
		log:      log.With().Str("handler", "engagement").Logger(),
	}
}

// ToggleLike handles POST /v1/articles/:id/like
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	resp, err := h.services.Engagement.ToggleLike(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to toggle like")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListComments handles GET /v1/articles/:id/comments
func (h *EngagementHandler) ListComments(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}

	list, err := h.services.Engagement.ListComments(c.Request.Context(), c.Param("id"), currentUser(c), page, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to list comments")
		return
	}

	c.JSON(http.StatusOK, list)
}

// ToggleSave handles POST /v1/articles/:id/save
func (h *EngagementHandler) ToggleSave(c *gin.Context) {
	resp, err := h.services.Engagement.ToggleSave(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to toggle save")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateComment handles POST /v1/comments
func (h *EngagementHandler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	comment, err := h.services.Engagement.AddComment(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment handles DELETE /v1/comments/:id
func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	if err := h.services.Engagement.DeleteComment(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		respondError(c, h.log, err, "Failed to delete comment")
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleFollow handles POST /v1/users/:id/follow
func (h *EngagementHandler) ToggleFollow(c *gin.Context) {
	resp, err := h.services.Engagement.ToggleFollow(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to toggle follow")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Followers handles GET /v1/users/:id/followers
func (h *EngagementHandler) Followers(c *gin.Context) {
	list, err := h.services.Engagement.Followers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to list followers")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Following handles GET /v1/users/:id/following
func (h *EngagementHandler) Following(c *gin.Context) {
	list, err := h.services.Engagement.Following(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to list followed users")
		return
	}
	c.JSON(http.StatusOK, list)
}

// SetInterests handles PUT /v1/users/me/interests
func (h *EngagementHandler) SetInterests(c *gin.Context) {
	var req models.InterestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	user, err := h.services.Engagement.SetInterests(c.Request.Context(), currentUser(c), req.Interests)
	if err != nil {
		respondError(c, h.log, err, "Failed to set interests")
		return
	}

	c.JSON(http.StatusOK, user)
}
