package groups

import (
	"context"
	"errors"

	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
)

// Service implements the social group operations.
type Service struct {
	store *store.Store
}

// NewService creates a social groups service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// ListInput pages and filters a listing. Zero values mean unset.
type ListInput struct {
	Search string
	Limit  int
	Offset int
}

func (in ListInput) filter() store.GroupFilter {
	return store.GroupFilter{Search: in.Search, Limit: in.Limit, Offset: in.Offset}
}

// List returns every group with its admin and member count.
func (s *Service) List(ctx context.Context, in ListInput) ([]store.GroupSummary, error) {
	rows, err := s.store.Groups.ListGroups(ctx, in.filter())
	return listResult(rows, err)
}

// ListMine returns the groups the caller belongs to.
func (s *Service) ListMine(ctx context.Context, caller *models.User, in ListInput) ([]store.GroupSummary, error) {
	rows, err := s.store.Groups.GroupsForUser(ctx, caller.ID, in.filter())
	return listResult(rows, err)
}

func listResult(rows []store.GroupSummary, err error) ([]store.GroupSummary, error) {
	if errors.Is(err, store.ErrNoResults) {
		return nil, apperr.NotFoundf("No social groups were found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch social groups")
	}
	return rows, nil
}

// Get returns one group with its admin and member count.
func (s *Service) Get(ctx context.Context, id uint) (*store.GroupSummary, error) {
	summary, err := s.store.Groups.Summary(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch social group")
	}
	if summary == nil {
		return nil, apperr.NotFoundf("Group with ID %d not found.", id)
	}
	return summary, nil
}

// CreateInput is a new group.
type CreateInput struct {
	Title   string
	Details string
}

// Create stores a group administered by the caller together with the
// caller's admin membership. Either both rows exist afterwards or neither.
func (s *Service) Create(ctx context.Context, caller *models.User, in CreateInput) (*models.SocialGroup, error) {
	taken, err := s.store.Groups.Exists(ctx, store.Eq(store.GroupCol.Title, in.Title))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch social group")
	}
	if taken {
		return nil, apperr.Conflictf("Social Group %s already exists.", in.Title)
	}

	group := models.SocialGroup{Title: in.Title, Details: in.Details, AdminID: caller.ID}
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Groups.Create(ctx, &group); err != nil {
			return err
		}
		return tx.Members.Create(ctx, &models.GroupMember{UserID: caller.ID, GroupID: group.ID, Admin: true})
	})
	switch {
	case err == nil:
		return &group, nil
	case errors.Is(err, store.ErrConflict):
		return nil, apperr.Wrap(apperr.Conflict, err, "Social Group %s already exists.", in.Title)
	case errors.Is(err, store.ErrMissingReference):
		return nil, apperr.Wrap(apperr.NotFound, err, "User with ID %d was not found.", caller.ID)
	default:
		return nil, apperr.Wrap(apperr.WriteFault, err, "Failed to save social group")
	}
}

// Join adds the caller to a group as a regular member.
func (s *Service) Join(ctx context.Context, caller *models.User, id uint) (*models.GroupMember, error) {
	exists, err := s.store.Groups.Exists(ctx, store.Eq(store.GroupCol.ID, id))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch social group")
	}
	if !exists {
		return nil, apperr.NotFoundf("Social group with ID %d was not found.", id)
	}

	member := models.GroupMember{UserID: caller.ID, GroupID: id}
	err = s.store.Members.Create(ctx, &member)
	switch {
	case err == nil:
		return &member, nil
	case errors.Is(err, store.ErrConflict):
		return nil, apperr.Wrap(apperr.Conflict, err, "User %d is already a member of social group %d.", caller.ID, id)
	case errors.Is(err, store.ErrMissingReference):
		// The group was deleted after the existence check.
		return nil, apperr.Wrap(apperr.NotFound, err, "Social group with ID %d was not found.", id)
	default:
		return nil, apperr.Wrap(apperr.WriteFault, err, "Failed to join social group")
	}
}

// UpdateInput names the group fields to change. Nil leaves a field unchanged.
type UpdateInput struct {
	Title   *string
	Details *string
}

// Update changes a group the caller administers.
func (s *Service) Update(ctx context.Context, caller *models.User, id uint, in UpdateInput) error {
	if err := s.checkAdmin(ctx, caller, id); err != nil {
		return err
	}

	var sets []store.Assignment[models.SocialGroup]
	if in.Title != nil {
		sets = append(sets, store.Set(store.GroupCol.Title, *in.Title))
	}
	if in.Details != nil {
		sets = append(sets, store.Set(store.GroupCol.Details, *in.Details))
	}
	if len(sets) == 0 {
		return apperr.Validationf("No fields to update.")
	}

	n, err := s.store.Groups.Update(ctx, store.Eq(store.GroupCol.ID, id), sets...)
	switch {
	case errors.Is(err, store.ErrConflict):
		return apperr.Wrap(apperr.Conflict, err, "Social Group %s already exists.", *in.Title)
	case err != nil:
		return apperr.Wrap(apperr.WriteFault, err, "Failed to update social group")
	case n == 0:
		return apperr.NotFoundf("Social group with ID %d was not found.", id)
	}
	return nil
}

// Delete removes a group the caller administers. Memberships go with it.
func (s *Service) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := s.checkAdmin(ctx, caller, id); err != nil {
		return err
	}
	n, err := s.store.Groups.Delete(ctx, store.Eq(store.GroupCol.ID, id))
	if err != nil {
		return apperr.Wrap(apperr.WriteFault, err, "Failed to delete social group")
	}
	if n == 0 {
		return apperr.NotFoundf("Social group with ID %d was not found.", id)
	}
	return nil
}

func (s *Service) checkAdmin(ctx context.Context, caller *models.User, id uint) error {
	admin, found, err := store.Field(ctx, s.store.Groups.Accessor, store.GroupCol.ID, id, store.GroupCol.AdminID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to fetch social group")
	}
	if !found || admin != caller.ID {
		return apperr.Forbiddenf("Not authorized to perform requested action.")
	}
	return nil
}
