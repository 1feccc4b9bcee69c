package permissions

import (
	"errors"

	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/permissions", authMW)
	g.GET("", h.list)
	g.POST("/request", h.request)
}

type requestDTO struct {
	Kind    string `json:"kind"    binding:"required"`
	Granted *bool  `json:"granted" binding:"required"`
}

// GET /permissions
func (h *Handler) list(c *gin.Context) {
	grants, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"permissions": grants})
}

// POST /permissions/request
func (h *Handler) request(c *gin.Context) {
	var dto requestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	granted, err := h.svc.Record(c.Request.Context(), middleware.CurrentUserID(c), dto.Kind, *dto.Granted)
	if err != nil {
		if errors.Is(err, errUnknownKind) {
			response.BadRequest(c, err.Error())
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"kind": dto.Kind, "granted": granted})
}
