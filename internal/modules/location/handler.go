package location

import (
	"errors"

	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/pkg/pagination"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	sampler *Sampler
	feed    *DeviceFeed
	store   Store
	log     *zap.Logger
}

func NewHandler(sampler *Sampler, feed *DeviceFeed, store Store, log *zap.Logger) *Handler {
	return &Handler{sampler: sampler, feed: feed, store: store, log: log.Named("location")}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	g := r.Group("/location", auth)
	{
		g.POST("/fix", h.PostFix)
		g.GET("/sample", h.GetSample)
		g.POST("/tracking/start", h.StartTracking)
		g.POST("/tracking/stop", h.StopTracking)
		g.GET("/tracking", h.GetTracking)
		g.GET("/current/:uid", h.GetCurrent)
		g.GET("/history/:uid", h.GetHistory)
	}
}

// PostFix ingests a raw position report from the device.
func (h *Handler) PostFix(c *gin.Context) {
	var dto fixDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sample := dto.sample()
	if err := sample.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	h.feed.Offer(middleware.CurrentUserID(c), sample, dto.meta())
	response.OK(c, gin.H{"accepted": true})
}

// GetSample acquires a one-shot position without touching the session.
func (h *Handler) GetSample(c *gin.Context) {
	highAccuracy := c.DefaultQuery("highAccuracy", "true") != "false"
	sample, err := h.sampler.CurrentSample(c.Request.Context(), middleware.CurrentUserID(c), highAccuracy)
	if err != nil {
		if errors.Is(err, ErrAcquisitionTimeout) {
			response.Unavailable(c, "no position fix available")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, sample)
}

func (h *Handler) StartTracking(c *gin.Context) {
	uid := middleware.CurrentUserID(c)
	already, err := h.sampler.Start(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			response.Forbidden(c, "location permission not granted")
			return
		}
		if errors.Is(err, ErrSessionBusy) {
			response.Conflict(c, "tracking is active for another user")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"alreadyActive": already,
		"session":       h.sampler.SessionSnapshot(),
	})
}

func (h *Handler) StopTracking(c *gin.Context) {
	wasActive := h.sampler.Stop()
	response.OK(c, gin.H{"wasActive": wasActive})
}

func (h *Handler) GetTracking(c *gin.Context) {
	response.OK(c, gin.H{
		"active":  h.sampler.IsActive(),
		"session": h.sampler.SessionSnapshot(),
	})
}

func (h *Handler) GetCurrent(c *gin.Context) {
	uid := c.Param("uid")
	sample, updatedAt, err := h.store.CurrentLocation(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrNoCurrentLocation) {
			response.NotFoundMsg(c, "no location recorded for user")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"uid":                uid,
		"location":           sample,
		"lastLocationUpdate": updatedAt,
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	uid := c.Param("uid")
	q := pagination.FromContext(c)
	entries, meta, err := h.store.QueryHistory(c.Request.Context(), uid, q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, entries, meta)
}
