package presence

import (
	"errors"

	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	tracker *Tracker
	store   Store
}

func NewHandler(tracker *Tracker, store Store) *Handler {
	return &Handler{tracker: tracker, store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/presence", authMW)

	g.POST("/app-state", h.appState)
	g.POST("/busy", h.busy)
	g.GET("", h.list)
	g.GET("/:uid", h.get)
}

// POST /presence/app-state
func (h *Handler) appState(c *gin.Context) {
	var dto appStateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	switch dto.State {
	case AppStateActive, AppStateBackground, AppStateInactive:
	default:
		response.BadRequest(c, "state must be one of active, background, inactive")
		return
	}

	h.tracker.AppStateChanged(c.Request.Context(), middleware.CurrentUserID(c), dto.State)
	response.OK(c, gin.H{"state": dto.State})
}

// POST /presence/busy
func (h *Handler) busy(c *gin.Context) {
	var dto busyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	h.tracker.SetBusy(c.Request.Context(), middleware.CurrentUserID(c), *dto.Busy)
	response.OK(c, gin.H{"busy": *dto.Busy})
}

// GET /presence
func (h *Handler) list(c *gin.Context) {
	users, err := h.store.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	response.OK(c, out)
}

// GET /presence/:uid
func (h *Handler) get(c *gin.Context) {
	u, err := h.store.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, toUserResponse(*u))
}
