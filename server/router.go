package server

import (
	"time"

	httpHandler "coursemint/interfaces/http"
	"coursemint/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts. CommerceAuth may be nil when
// the commerce provider is not configured.
type Handlers struct {
	Content      httpHandler.IContentHandler
	Checkout     httpHandler.ICheckoutHandler
	CommerceAuth httpHandler.ICommerceAuthHandler
}

func InitiateRouter(h Handlers, secretKey string, allowOrigins []string, publicLimiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", httpHandler.Healthz)

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	content := api.Group("/content")
	{
		content.POST("/generate", h.Content.Generate)
		content.GET("", h.Content.List)
		content.GET("/:id", h.Content.Get)
		content.PATCH("/:id", h.Content.Update)
		content.POST("/:id/publish", h.Content.Publish)
		content.POST("/:id/unpublish", h.Content.Unpublish)
		content.DELETE("/:id", h.Content.Delete)
	}

	// Anonymous buyer flow
	public := router.Group("")
	public.Use(publicLimiter.Handler())
	{
		public.POST("/checkout/:id", h.Checkout.Checkout)
		public.POST("/access/:id/validate", h.Checkout.ValidateAccess)
		public.GET("/c/:slug", h.Checkout.Unlock)
	}

	if h.CommerceAuth != nil {
		api.GET("/commerce/status", h.CommerceAuth.Status)
		api.DELETE("/commerce/connection", h.CommerceAuth.Disconnect)
		// the connect request needs the creator identity, the provider redirect does not carry it
		router.GET("/auth/commerce", middleware.Auth(secretKey), h.CommerceAuth.GetAuthURL)
		router.GET("/auth/commerce/callback", h.CommerceAuth.Callback)
	}

	return router
}
