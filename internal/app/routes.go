package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/modules/auth"
	"github.com/geopulse/core/internal/modules/location"
	"github.com/geopulse/core/internal/modules/permissions"
	"github.com/geopulse/core/internal/modules/presence"
	"github.com/geopulse/core/internal/modules/retention"
	pkgredis "github.com/geopulse/core/internal/pkg/redis"
	"github.com/geopulse/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "geopulse-core",
		"version": "1.0.0",
	}

	// Realtime gateway
	r.Any("/socket.io/*any", gin.WrapH(a.hub.Handler()))

	// Versioned API
	api := r.Group(apiPrefix)
	// OptionalAuth runs first so the rate limiter can exempt
	// authenticated devices.
	api.Use(middleware.OptionalAuth())
	api.Use(middleware.RateLimit(rc.Raw()))
	api.Use(middleware.Idempotence(rc.Raw()))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(processStart).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})
	api.GET("/health", a.health)

	authSvc := auth.NewService(a.db, a.tracker, a.logger)
	auth.NewHandler(authSvc, a.logger).RegisterRoutes(api, authMW)

	presence.NewHandler(a.tracker, a.presenceStore).RegisterRoutes(api, authMW)
	permissions.NewHandler(a.permsSvc).RegisterRoutes(api, authMW)

	location.NewHandler(a.sampler, a.feed, a.locStore, a.logger).RegisterRoutes(api, authMW)
	retention.NewHandler(a.sweeper, a.logger).RegisterRoutes(api, authMW)
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	mongoOK := a.db.Client().Ping(ctx, nil) == nil
	redisOK := a.rc.Raw().Ping(ctx).Err() == nil

	status := http.StatusOK
	if !mongoOK || !redisOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"mongo":   mongoOK,
		"redis":   redisOK,
		"jobs":    a.sched.List(),
		"clients": a.hub.ClientCount(""),
	})
}
