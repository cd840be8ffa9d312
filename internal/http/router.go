// Package http registers the HTTP routes and delegates to the quote handlers.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"etoile/internal/http/handlers"
	"etoile/internal/http/middleware"
)

func NewRouter(log *zap.Logger, quotes *handlers.QuoteHandler) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.POST("/api/quotes", quotes.Create)
	r.GET("/api/quotes/:id", quotes.Get)
	r.POST("/api/quotes/:id/override", quotes.Override)
	r.POST("/api/quotes/:id/explain", quotes.Explain)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
