package retention

import (
	"strconv"

	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	sweeper *Sweeper
	log     *zap.Logger
}

func NewHandler(sweeper *Sweeper, log *zap.Logger) *Handler {
	return &Handler{sweeper: sweeper, log: log.Named("retention")}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	r.DELETE("/location/history", auth, h.DeleteHistory)
}

// DeleteHistory prunes the caller's own history older than ?days=
// (default 7).
func (h *Handler) DeleteHistory(c *gin.Context) {
	uid := middleware.CurrentUserID(c)
	days := DefaultDaysToKeep
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(c, "days must be a non-negative integer")
			return
		}
		days = n
	}
	deleted, err := h.sweeper.SweepUser(c.Request.Context(), uid, days)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted, "daysKept": days})
}
