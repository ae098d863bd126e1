package members

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/validation"
)

// Handler handles group membership requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new group members handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns memberships across all groups
// @Summary List memberships
// @Tags group_members
// @Produce json
// @Param limit query int false "Maximum rows"
// @Param skip query int false "Rows to skip"
// @Param search query string false "Group ID substring"
// @Success 200 {array} Membership
// @Failure 404 {object} problems.DefaultProblem
// @Router /group_members [get]
func (h *Handler) List(c *gin.Context) {
	var page validation.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	rows, err := h.svc.List(c.Request.Context(), ListInput{Search: page.Search, Limit: page.Limit, Offset: page.Skip})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListGroup returns the members of a group
// @Summary List group members
// @Tags group_members
// @Produce json
// @Param group_id path int true "Group ID"
// @Success 200 {array} store.MemberInfo
// @Failure 404 {object} problems.DefaultProblem
// @Router /group_members/{group_id} [get]
func (h *Handler) ListGroup(c *gin.Context) {
	groupID, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	rows, err := h.svc.ListGroup(c.Request.Context(), groupID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Get returns one membership
// @Summary Get group member
// @Tags group_members
// @Produce json
// @Param group_id path int true "Group ID"
// @Param user_id path int true "User ID"
// @Success 200 {object} MemberDetail
// @Failure 404 {object} problems.DefaultProblem
// @Router /group_members/{group_id}/member/{user_id} [get]
func (h *Handler) Get(c *gin.Context) {
	groupID, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	userID, err := validation.PathID(c, "user_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), groupID, userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Join adds the caller to a group
// @Summary Join group
// @Tags group_members
// @Produce json
// @Param group_id path int true "Group ID"
// @Success 201 {object} models.GroupMember
// @Failure 404 {object} problems.DefaultProblem
// @Failure 409 {object} problems.DefaultProblem "Already a member"
// @Router /group_members/join/{group_id} [post]
func (h *Handler) Join(c *gin.Context) {
	groupID, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	member, err := h.svc.Join(c.Request.Context(), caller, groupID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// Leave removes the caller from a group
// @Summary Leave group
// @Tags group_members
// @Param group_id path int true "Group ID"
// @Success 204
// @Failure 403 {object} problems.DefaultProblem "Admin cannot leave"
// @Failure 404 {object} problems.DefaultProblem
// @Router /group_members/leave/{group_id} [delete]
func (h *Handler) Leave(c *gin.Context) {
	groupID, err := validation.PathID(c, "group_id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Leave(c.Request.Context(), caller, groupID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers group member routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	members := rg.Group("/group_members")
	members.GET("", h.List)
	members.GET("/:group_id", requireUser, h.ListGroup)
	members.GET("/:group_id/member/:user_id", h.Get)
	members.POST("/join/:group_id", requireUser, h.Join)
	members.DELETE("/leave/:group_id", requireUser, h.Leave)
}
