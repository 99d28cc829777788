package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"library-service/internal/adapter/gin/handler"
	"library-service/internal/adapter/gin/middleware"
	"library-service/internal/adapter/session"
	"library-service/internal/config"
)

// Setup configures and returns a Gin router with all routes and middleware.
func Setup(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	libraryHandler *handler.LibraryHandler,
	store session.Store,
	redisClient *redis.Client,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.RateLimiter(redisClient, cfg.RateLimit, log))
	router.Use(middleware.Sessions(store, cfg.Session.CookieName, log))

	router.LoadHTMLGlob(cfg.App.TemplatesGlob)
	router.Static("/static", cfg.App.StaticDir)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "library-service",
		})
	})

	// Public pages
	router.GET("/", libraryHandler.Home)
	router.POST("/", libraryHandler.Home)
	router.GET("/login/", authHandler.ShowLogin)
	router.POST("/login/", authHandler.Login)
	router.GET("/register/", authHandler.ShowRegister)
	router.POST("/register/", authHandler.Register)
	router.GET("/logout", authHandler.Logout)

	// Circulation pages require a logged-in session
	authed := router.Group("/", middleware.RequireAuth())
	{
		authed.GET("/issue", libraryHandler.IssuePage)
		authed.POST("/issue", libraryHandler.Issue)
		authed.GET("/return_item", libraryHandler.ReturnPage)
		authed.POST("/return_item", libraryHandler.Return)
		authed.GET("/history", libraryHandler.History)
	}

	// Unknown action names fall back silently: GET renders home, anything
	// else redirects home without invoking a handler.
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			libraryHandler.Home(c)
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	return router
}
