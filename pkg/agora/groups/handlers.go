package groups

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/validation"
)

// Handler handles social group requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new social groups handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateGroupRequest represents the request to create a social group
type CreateGroupRequest struct {
	Title   string `json:"title" binding:"required,notblank"`
	Details string `json:"details"`
}

// UpdateGroupRequest represents a partial social group update
type UpdateGroupRequest struct {
	Title   *string `json:"title" binding:"omitempty,notblank"`
	Details *string `json:"details"`
}

// List returns all social groups
// @Summary List social groups
// @Tags social_groups
// @Produce json
// @Param limit query int false "Maximum rows"
// @Param skip query int false "Rows to skip"
// @Param search query string false "Title substring"
// @Success 200 {array} store.GroupSummary
// @Failure 404 {object} problems.DefaultProblem
// @Router /social_groups [get]
func (h *Handler) List(c *gin.Context) {
	var page validation.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	groups, err := h.svc.List(c.Request.Context(), listInput(page))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// ListMine returns the groups the caller belongs to
// @Summary List my social groups
// @Tags social_groups
// @Produce json
// @Success 200 {array} store.GroupSummary
// @Failure 404 {object} problems.DefaultProblem
// @Router /social_groups/my_social_groups [get]
func (h *Handler) ListMine(c *gin.Context) {
	var page validation.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	groups, err := h.svc.ListMine(c.Request.Context(), caller, listInput(page))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Get returns a social group
// @Summary Get social group
// @Tags social_groups
// @Produce json
// @Param group_id path int true "Group ID"
// @Success 200 {object} store.GroupSummary
// @Failure 404 {object} problems.DefaultProblem
// @Router /social_groups/{group_id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	group, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// Create creates a social group administered by the caller
// @Summary Create social group
// @Tags social_groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group"
// @Success 201 {object} models.SocialGroup
// @Failure 409 {object} problems.DefaultProblem "Title taken"
// @Router /social_groups/create [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	group, err := h.svc.Create(c.Request.Context(), caller, CreateInput(req))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// Join adds the caller to a social group
// @Summary Join social group
// @Tags social_groups
// @Produce json
// @Param group_id path int true "Group ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} problems.DefaultProblem
// @Failure 409 {object} problems.DefaultProblem "Already a member"
// @Router /social_groups/join/{group_id} [post]
func (h *Handler) Join(c *gin.Context) {
	id, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	if _, err := h.svc.Join(c.Request.Context(), caller, id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User %d successfully joined social group with ID %d.", caller.ID, id)})
}

// Update changes a social group's title or details
// @Summary Update social group
// @Tags social_groups
// @Accept json
// @Produce json
// @Param group_id path int true "Group ID"
// @Param request body UpdateGroupRequest true "Fields to change"
// @Success 200 {object} store.GroupSummary
// @Failure 403 {object} problems.DefaultProblem
// @Failure 409 {object} problems.DefaultProblem "Title taken"
// @Router /social_groups/{group_id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Update(c.Request.Context(), caller, id, UpdateInput(req)); err != nil {
		apperr.Respond(c, err)
		return
	}
	group, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// Delete removes a social group
// @Summary Delete social group
// @Tags social_groups
// @Param group_id path int true "Group ID"
// @Success 204
// @Failure 403 {object} problems.DefaultProblem
// @Failure 404 {object} problems.DefaultProblem
// @Router /social_groups/{group_id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := validation.PathID(c, "group_id")
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

func listInput(p validation.Page) ListInput {
	return ListInput{Search: p.Search, Limit: p.Limit, Offset: p.Skip}
}

// RegisterRoutes registers social group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	groups := rg.Group("/social_groups")
	groups.GET("", h.List)
	groups.GET("/my_social_groups", requireUser, h.ListMine)
	groups.GET("/:group_id", h.Get)
	groups.POST("/create", requireUser, h.Create)
	groups.POST("/join/:group_id", requireUser, h.Join)
	groups.PATCH("/:group_id", requireUser, h.Update)
	groups.DELETE("/:group_id", requireUser, h.Delete)
}
