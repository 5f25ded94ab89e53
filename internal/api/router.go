package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"room-status-backend/config"
	"room-status-backend/internal/ledger"
	"room-status-backend/internal/mw"
	"room-status-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, l *ledger.Service, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, l, &cfg.Auth, webpushOptions)

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "working"})
	})

	r.POST("/register", handler.Register)
	r.POST("/login", handler.Login)

	// Availability and catalog. The buildings listing is effectively static,
	// so it is the one response worth caching.
	r.GET("/room", handler.ListAvailability)
	r.GET("/rooms/:room_id", handler.GetRoom)
	r.GET("/buildings", caching, handler.GetBuildings)
	r.GET("/update-room-status", handler.RefreshStatuses) // legacy alias

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// POST /api/rooms/{room_id}/events
		api.POST("/rooms/:room_id/events", handler.RecordEvent)

		api.GET("/regular-classes", handler.ListClasses)
		api.POST("/regular-classes", handler.CreateClass)
		api.DELETE("/regular-classes/:class_id", handler.DeleteClass)

		api.GET("/status/refresh", handler.RefreshStatuses)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
