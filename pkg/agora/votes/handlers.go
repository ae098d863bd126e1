package votes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
)

// Handler handles vote requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new votes handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// VoteRequest adds (1) or removes (0) the caller's upvote on a post
type VoteRequest struct {
	PostID uint `json:"post_id" binding:"required,gt=0"`
	Vote   *int `json:"vote" binding:"required,oneof=0 1"`
}

// Vote casts or withdraws an upvote
// @Summary Vote on a post
// @Tags votes
// @Accept json
// @Produce json
// @Param request body VoteRequest true "Vote"
// @Success 202 {object} map[string]string
// @Failure 404 {object} problems.DefaultProblem "Post or vote missing"
// @Failure 409 {object} problems.DefaultProblem "Already voted"
// @Failure 422 {object} problems.DefaultProblem
// @Router /votes [post]
func (h *Handler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	caller, _ := auth.CurrentUser(c)
	msg, err := h.svc.Cast(c.Request.Context(), caller, req.PostID, Direction(*req.Vote))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": msg})
}

// RegisterRoutes registers vote routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	rg.POST("/votes", requireUser, h.Vote)
}
