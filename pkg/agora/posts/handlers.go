package posts

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/validation"
)

// Handler handles post-related requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new posts handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreatePostRequest represents the request to create a post
type CreatePostRequest struct {
	Title     string `json:"title" binding:"required,notblank"`
	ViewCount int64  `json:"view_count" binding:"gte=0"`
}

// ReplacePostRequest carries every post field for PUT
type ReplacePostRequest struct {
	Title     *string `json:"title" binding:"required,notblank"`
	ViewCount *int64  `json:"view_count" binding:"required,gte=0"`
}

// PatchPostRequest carries the post fields PATCH may change
type PatchPostRequest struct {
	Title     *string `json:"title" binding:"omitempty,notblank"`
	ViewCount *int64  `json:"view_count" binding:"omitempty,gte=0"`
}

// List returns all posts
// @Summary List posts
// @Tags posts
// @Produce json
// @Param limit query int false "Maximum rows"
// @Param skip query int false "Rows to skip"
// @Param search query string false "Title substring"
// @Success 200 {array} store.PostSummary
// @Failure 404 {object} problems.DefaultProblem
// @Router /posts [get]
func (h *Handler) List(c *gin.Context) {
	var page validation.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	posts, err := h.svc.List(c.Request.Context(), ListInput{Search: page.Search, Limit: page.Limit, Offset: page.Skip})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// ListMine returns the caller's posts
// @Summary List my posts
// @Tags posts
// @Produce json
// @Success 200 {array} store.PostSummary
// @Failure 404 {object} problems.DefaultProblem
// @Router /posts/my_posts [get]
func (h *Handler) ListMine(c *gin.Context) {
	caller, _ := auth.CurrentUser(c)
	posts, err := h.svc.ListMine(c.Request.Context(), caller)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Get returns a single post and counts the view
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostDetail
// @Failure 404 {object} problems.DefaultProblem
// @Router /posts/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	post, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Create creates a new post
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body CreatePostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 422 {object} problems.DefaultProblem
// @Router /posts [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	caller, _ := auth.CurrentUser(c)
	post, err := h.svc.Create(c.Request.Context(), caller, CreateInput(req))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Replace overwrites a post
// @Summary Replace post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body ReplacePostRequest true "All post fields"
// @Success 200 {object} map[string]string
// @Failure 403 {object} problems.DefaultProblem
// @Failure 404 {object} problems.DefaultProblem
// @Router /posts/{id} [put]
func (h *Handler) Replace(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	var req ReplacePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Replace(c.Request.Context(), caller, id, ChangeInput(req)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Post with ID %d successfully updated.", id)})
}

// Patch changes some fields of a post
// @Summary Patch post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body PatchPostRequest true "Fields to change"
// @Success 200 {object} map[string]string
// @Failure 403 {object} problems.DefaultProblem
// @Failure 422 {object} problems.DefaultProblem
// @Router /posts/{id} [patch]
func (h *Handler) Patch(c *gin.Context) {
	id, err := validation.PathID(c, "id")
	if err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}
	var req PatchPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Invalid(err))
		return
	}

	caller, _ := auth.CurrentUser(c)
	if err := h.svc.Patch(c.Request.Context(), caller, id, ChangeInput(req)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Post with ID %d successfully patched.", id)})
}

// Delete removes a post
// @Summary Delete post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} problems.DefaultProblem
// @Failure 404 {object} problems.DefaultProblem
// @Router /posts/{id} [delete]
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

// RegisterRoutes registers post routes. Reads are public.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	posts := rg.Group("/posts")
	posts.GET("", h.List)
	posts.GET("/my_posts", requireUser, h.ListMine)
	posts.GET("/:id", h.Get)
	posts.POST("", requireUser, h.Create)
	posts.PUT("/:id", requireUser, h.Replace)
	posts.PATCH("/:id", requireUser, h.Patch)
	posts.DELETE("/:id", requireUser, h.Delete)
}
