package cli

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/handler"
	"github.com/hUstbit37/ipms-search-sub001/middleware"
	"github.com/hUstbit37/ipms-search-sub001/service"
	"github.com/hUstbit37/ipms-search-sub001/wizard"
)

// Deps are the collaborators the HTTP routes are wired to.
type Deps struct {
	Config      *config.Config
	Backend     *service.BackendClient
	Cache       *service.EntityCache
	Drafts      service.DraftStore
	Attachments service.FileStorage // nil disables attachment routes
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	gate := wizard.NewGate()

	authHandler := handler.NewAuthHandler(cfg)
	licenseHandler := handler.NewLicenseHandler(deps.Backend, deps.Cache, gate, cfg.Server.PublicBaseURL)
	transferHandler := handler.NewTransferHandler(deps.Drafts, cfg.Drafts.KeyPrefix, gate, cfg.Server.PublicBaseURL)
	catalogHandler := handler.NewCatalogHandler(deps.Backend, cfg.Catalog.PageSize)

	router := gin.New()
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(corsMiddleware())           // CORS
	router.Use(cacheMiddleware())          // Cache control

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", middleware.RateLimit(10, time.Minute), authHandler.Login)
	}

	// Protected routes, limited per user
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	protected.Use(middleware.RateLimit(100, time.Minute))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.GET("/licenses/:id/wizard", licenseHandler.View)
		protected.POST("/licenses/:id/wizard/steps/:step", licenseHandler.SubmitStep)
		protected.POST("/licenses/:id/wizard/refresh", licenseHandler.Refresh)
		protected.DELETE("/licenses/:id", licenseHandler.Delete)

		protected.GET("/transfers/wizard", transferHandler.View)
		protected.POST("/transfers/wizard/steps/:step", transferHandler.SubmitStep)
		protected.POST("/transfers/wizard/create", transferHandler.Create)
		protected.DELETE("/transfers/wizard", transferHandler.Discard)

		protected.GET("/ip-catalog/:type", catalogHandler.Search)

		if deps.Attachments != nil {
			attachmentHandler := handler.NewAttachmentHandler(deps.Attachments)
			protected.POST("/licenses/:id/attachments", attachmentHandler.Upload)
			protected.DELETE("/licenses/:id/attachments", attachmentHandler.Remove)
		}
	}

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps API responses out of caches. Wizard state changes on
// every submission.
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
