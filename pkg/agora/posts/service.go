package posts

import (
	"context"
	"errors"
	"time"

	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
)

// Service implements the post operations over the store.
type Service struct {
	store *store.Store
}

// NewService creates a posts service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// UserInfo is the author block of a single post.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PostDetail is a post as returned by GET /posts/:id.
type PostDetail struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	ViewCount int64     `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `json:"user_id"`
	Upvotes   int64     `json:"upvotes"`
	UserInfo  UserInfo  `json:"user_info"`
}

// ListInput pages and filters a listing. Zero values mean unset.
type ListInput struct {
	Search string
	Limit  int
	Offset int
}

// List returns every post matching the title search.
func (s *Service) List(ctx context.Context, in ListInput) ([]store.PostSummary, error) {
	return s.list(ctx, store.PostFilter{Search: in.Search, Limit: in.Limit, Offset: in.Offset})
}

// ListMine returns the caller's posts.
func (s *Service) ListMine(ctx context.Context, caller *models.User) ([]store.PostSummary, error) {
	return s.list(ctx, store.PostFilter{Where: []store.Cond[models.Post]{store.Eq(store.PostCol.UserID, caller.ID)}})
}

func (s *Service) list(ctx context.Context, f store.PostFilter) ([]store.PostSummary, error) {
	rows, err := s.store.Posts.ListPosts(ctx, f)
	if errors.Is(err, store.ErrNoResults) {
		return nil, apperr.NotFoundf("No posts were found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch posts")
	}
	return rows, nil
}

// Get returns a post with its upvotes and author, then counts the view.
// The returned view count is the one before this read.
func (s *Service) Get(ctx context.Context, id uint) (*PostDetail, error) {
	summary, err := s.store.Posts.Summary(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch post")
	}
	if summary == nil {
		return nil, apperr.NotFoundf("Post not found.")
	}

	if _, err := s.store.Posts.Update(ctx, store.Eq(store.PostCol.ID, id), store.Increment(store.PostCol.ViewCount, 1)); err != nil {
		return nil, apperr.Wrap(apperr.WriteFault, err, "Failed to record view")
	}

	return &PostDetail{
		ID:        summary.ID,
		Title:     summary.Title,
		ViewCount: summary.ViewCount,
		CreatedAt: summary.CreatedAt,
		UpdatedAt: summary.UpdatedAt,
		UserID:    summary.UserID,
		Upvotes:   summary.Upvotes,
		UserInfo:  UserInfo{Name: summary.AuthorName, Email: summary.AuthorEmail},
	}, nil
}

// CreateInput is a new post.
type CreateInput struct {
	Title     string
	ViewCount int64
}

// Create stores a post owned by the caller.
func (s *Service) Create(ctx context.Context, caller *models.User, in CreateInput) (*models.Post, error) {
	post := models.Post{Title: in.Title, ViewCount: in.ViewCount, UserID: caller.ID}
	if err := s.store.Posts.Create(ctx, &post); err != nil {
		if errors.Is(err, store.ErrMissingReference) {
			return nil, apperr.Wrap(apperr.NotFound, err, "User with ID %d was not found.", caller.ID)
		}
		return nil, apperr.Wrap(apperr.WriteFault, err, "Failed to save post")
	}
	return &post, nil
}

// ChangeInput names the fields to write. Nil leaves a field unchanged.
type ChangeInput struct {
	Title     *string
	ViewCount *int64
}

func (in ChangeInput) assignments() []store.Assignment[models.Post] {
	var sets []store.Assignment[models.Post]
	if in.Title != nil {
		sets = append(sets, store.Set(store.PostCol.Title, *in.Title))
	}
	if in.ViewCount != nil {
		sets = append(sets, store.Set(store.PostCol.ViewCount, *in.ViewCount))
	}
	return sets
}

// Replace overwrites every field of a post the caller owns.
func (s *Service) Replace(ctx context.Context, caller *models.User, id uint, in ChangeInput) error {
	if err := s.checkOwner(ctx, caller, id); err != nil {
		return err
	}
	return s.update(ctx, id, in.assignments())
}

// Patch changes some fields of a post the caller owns. Supplying every
// field is rejected in favour of Replace.
func (s *Service) Patch(ctx context.Context, caller *models.User, id uint, in ChangeInput) error {
	if err := s.checkOwner(ctx, caller, id); err != nil {
		return err
	}
	sets := in.assignments()
	switch len(sets) {
	case 0:
		return apperr.Validationf("No fields to update.")
	case 2:
		return apperr.Validationf("To update all the fields make a PUT request.")
	}
	return s.update(ctx, id, sets)
}

func (s *Service) update(ctx context.Context, id uint, sets []store.Assignment[models.Post]) error {
	n, err := s.store.Posts.Update(ctx, store.Eq(store.PostCol.ID, id), sets...)
	if err != nil {
		return apperr.Wrap(apperr.WriteFault, err, "Failed to update post")
	}
	if n == 0 {
		return apperr.NotFoundf("Post %d was not found.", id)
	}
	return nil
}

// Delete removes a post the caller owns.
func (s *Service) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := s.checkOwner(ctx, caller, id); err != nil {
		return err
	}
	n, err := s.store.Posts.Delete(ctx, store.Eq(store.PostCol.ID, id))
	if err != nil {
		return apperr.Wrap(apperr.WriteFault, err, "Failed to delete post")
	}
	if n == 0 {
		return apperr.NotFoundf("Post %d was not found.", id)
	}
	return nil
}

// checkOwner runs before any existence check, so a missing post is
// reported as forbidden.
func (s *Service) checkOwner(ctx context.Context, caller *models.User, id uint) error {
	owner, found, err := store.Field(ctx, s.store.Posts.Accessor, store.PostCol.ID, id, store.PostCol.UserID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to fetch post")
	}
	if !found || owner != caller.ID {
		return apperr.Forbiddenf("Not authorized to perform requested action.")
	}
	return nil
}
