package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/penportal-api/internal/config"
	"github.com/penportal-api/internal/metrics"
	"github.com/penportal-api/internal/service"
	"github.com/penportal-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// RouterOption customises NewRouter
type RouterOption func(*routerOptions)

type routerOptions struct {
	ready ReadinessCheck
}

// WithReadinessCheck exposes GET /ready backed by check
func WithReadinessCheck(check ReadinessCheck) RouterOption {
	return func(o *routerOptions) { o.ready = check }
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, opts ...RouterOption) *gin.Engine {
	var options routerOptions
	for _, opt := range opts {
		opt(&options)
	}

	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	auth := NewAuthenticator(cfg.Auth)
	requireAuth := auth.RequireAuth()
	optionalAuth := auth.OptionalAuth()

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	engagementHandler := NewEngagementHandler(services, log)
	feedHandler := NewFeedHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if options.ready != nil {
		router.GET("/ready", readinessCheck(options.ready, log))
	}

	// API v1
	v1 := router.Group("/v1")
	{
		articles := v1.Group("/articles")
		{
			articles.GET("", optionalAuth, feedHandler.List)
			articles.GET("/trending", optionalAuth, feedHandler.Trending)
			articles.GET("/feed", requireAuth, feedHandler.Feed)
			articles.POST("", requireAuth, articleHandler.CreateArticle)
			articles.GET("/:id", optionalAuth, articleHandler.GetArticle)
			articles.PUT("/:id", requireAuth, articleHandler.UpdateArticle)
			articles.DELETE("/:id", requireAuth, articleHandler.DeleteArticle)
			articles.POST("/:id/like", requireAuth, engagementHandler.ToggleLike)
			articles.POST("/:id/save", requireAuth, engagementHandler.ToggleSave)
			articles.GET("/:id/comments", optionalAuth, engagementHandler.ListComments)
		}

		comments := v1.Group("/comments", requireAuth)
		{
			comments.POST("", engagementHandler.CreateComment)
			comments.DELETE("/:id", engagementHandler.DeleteComment)
		}

		users := v1.Group("/users")
		{
			users.PUT("/me/interests", requireAuth, engagementHandler.SetInterests)
			users.GET("/me/saved", requireAuth, feedHandler.Saved)
			users.POST("/:id/follow", requireAuth, engagementHandler.ToggleFollow)
			users.GET("/:id/followers", engagementHandler.Followers)
			users.GET("/:id/following", engagementHandler.Following)
		}
	}

	return router
}

// healthCheck returns the health status. It does not touch the database so
// it stays cheap enough for liveness checks.
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		}
		if services.Engine != nil {
			body["articles_indexed"] = services.Engine.Index().Len()
			body["pending_flush"] = services.Engine.Ledger.DirtyCount()
		}
		c.JSON(http.StatusOK, body)
	}
}

// readinessCheck returns 503 while a dependency is unreachable
func readinessCheck(check ReadinessCheck, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := check(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests and records request metrics
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		// route template keeps label cardinality bounded
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, endpoint, statusCode, duration)

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
