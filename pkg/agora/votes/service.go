package votes

import (
	"context"
	"errors"

	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
)

// Direction is the requested vote change.
type Direction int

const (
	// Remove withdraws an existing upvote.
	Remove Direction = 0
	// Upvote adds one.
	Upvote Direction = 1
)

// Service records and withdraws upvotes.
type Service struct {
	store *store.Store
}

// NewService creates a votes service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Cast applies dir for the caller on postID and returns the confirmation
// message.
func (s *Service) Cast(ctx context.Context, caller *models.User, postID uint, dir Direction) (string, error) {
	key := []store.Cond[models.Vote]{
		store.Eq(store.VoteCol.PostID, postID),
		store.Eq(store.VoteCol.UserID, caller.ID),
	}
	existing, err := s.store.Votes.Exists(ctx, key...)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "Failed to fetch vote")
	}

	switch dir {
	case Upvote:
		if existing {
			return "", apperr.Conflictf("User %d already voted on post %d.", caller.ID, postID)
		}
		err := s.store.Votes.Create(ctx, &models.Vote{PostID: postID, UserID: caller.ID})
		switch {
		case err == nil:
			return "Successful upvote.", nil
		case errors.Is(err, store.ErrMissingReference):
			return "", apperr.Wrap(apperr.NotFound, err, "Post %d not found.", postID)
		case errors.Is(err, store.ErrConflict):
			// A concurrent request won the insert.
			return "", apperr.Wrap(apperr.Conflict, err, "User %d already voted on post %d.", caller.ID, postID)
		default:
			return "", apperr.Wrap(apperr.WriteFault, err, "Failed to save vote")
		}

	case Remove:
		if !existing {
			return "", apperr.NotFoundf("Post %d not found.", postID)
		}
		n, err := s.store.Votes.Delete(ctx, key...)
		if err != nil {
			return "", apperr.Wrap(apperr.WriteFault, err, "Failed to remove vote")
		}
		if n == 0 {
			return "", apperr.NotFoundf("Post %d not found.", postID)
		}
		return "Upvote removed.", nil
	}
	return "", apperr.Validationf("vote: must be one of 0, 1")
}
