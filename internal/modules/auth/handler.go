package auth

import (
	"errors"

	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log.Named("auth")}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	g := r.Group("/auth")
	{
		g.POST("/register", h.PostRegister)
		g.POST("/login", h.PostLogin)
		g.POST("/logout", auth, h.PostLogout)
		g.GET("/me", auth, h.GetMe)
	}
}

func (h *Handler) PostRegister(c *gin.Context) {
	var dto registerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.service.Register(c.Request.Context(), dto.DisplayName, dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, sessionResponse{Token: token, User: user})
}

func (h *Handler) PostLogin(c *gin.Context) {
	var dto loginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.service.Login(c.Request.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, sessionResponse{Token: token, User: user})
}

// PostLogout flips presence to offline; the client drops the token.
func (h *Handler) PostLogout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), middleware.CurrentUserID(c))
	response.NoContent(c)
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.NotFoundMsg(c, "user not found")
		return
	}
	response.OK(c, user)
}
