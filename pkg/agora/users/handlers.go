package users

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/validation"
)

// Handler handles user-related requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new users handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateUserRequest represents the registration body
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// ReplaceUserRequest carries every user field for PUT
type ReplaceUserRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// PatchUserRequest carries the fields PATCH may change
type PatchUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,notblank"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// Me returns the authenticated user's profile
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} store.UserProfile
// @Failure 401 {object} problems.DefaultProblem
// @Router /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	profile, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetByID returns a user profile by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} store.UserProfile
// @Failure 404 {object} problems.DefaultProblem
// @Router /users/id/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	profile, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetByName returns a user profile by display name
// @Summary Get user by name
// @Tags users
// @Produce json
// @Param name path string true "User name, underscores for spaces"
// @Success 200 {object} store.UserProfile
// @Failure 404 {object} problems.DefaultProblem
// @Router /users/name/{name} [get]
func (h *Handler) GetByName(c *gin.Context) {
	profile, err := h.svc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Create registers a new user
// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "New user"
// @Success 201 {object} store.UserProfile
// @Failure 409 {object} problems.DefaultProblem "Email taken"
// @Failure 422 {object} problems.DefaultProblem
// @Router /users [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	profile, err := h.svc.Create(c.Request.Context(), CreateInput(req))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// Replace overwrites the caller's account
// @Summary Replace user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body ReplaceUserRequest true "All user fields"
// @Success 200 {object} map[string]string
// @Failure 403 {object} problems.DefaultProblem
// @Failure 409 {object} problems.DefaultProblem
// @Router /users/id/{id} [put]
func (h *Handler) Replace(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	var req ReplaceUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Replace(c.Request.Context(), caller, id, ReplaceInput(req)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User with ID %d successfully updated.", id)})
}

// Patch updates some of the caller's fields
// @Summary Patch user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body PatchUserRequest true "Fields to change"
// @Success 200 {object} map[string]string
// @Failure 403 {object} problems.DefaultProblem
// @Failure 422 {object} problems.DefaultProblem
// @Router /users/id/{id} [patch]
func (h *Handler) Patch(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	var req PatchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Patch(c.Request.Context(), caller, id, PatchInput(req)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User with ID %d successfully patched.", id)})
}

// Delete removes the caller's account by ID
// @Summary Delete user
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} problems.DefaultProblem
// @Failure 404 {object} problems.DefaultProblem
// @Router /users/id/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteByName removes the caller's account by display name
// @Summary Delete user by name
// @Tags users
// @Param name path string true "User name, underscores for spaces"
// @Success 204
// @Failure 403 {object} problems.DefaultProblem
// @Failure 404 {object} problems.DefaultProblem
// @Router /users/name/{name} [delete]
func (h *Handler) DeleteByName(c *gin.Context) {
	caller, _ := auth.CurrentUser(c)
	if err := h.svc.DeleteByName(c.Request.Context(), caller, c.Param("name")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers user routes. Registration is public; everything
// else runs behind requireUser.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	users := rg.Group("/users")
	users.POST("", h.Create)

	authed := users.Group("", requireUser)
	authed.GET("/me", h.Me)
	authed.GET("/id/:id", h.GetByID)
	authed.PUT("/id/:id", h.Replace)
	authed.PATCH("/id/:id", h.Patch)
	authed.DELETE("/id/:id", h.Delete)
	authed.GET("/name/:name", h.GetByName)
	authed.DELETE("/name/:name", h.DeleteByName)
}
