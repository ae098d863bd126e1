package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
)

// Handler handles authentication requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// LoginRequest is the OAuth2 password-grant form; username carries the email.
type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password to receive a bearer token
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResult
// @Failure 401 {object} problems.DefaultProblem "Invalid credentials"
// @Failure 422 {object} problems.DefaultProblem "Validation error"
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}
