package members

import (
	"context"
	"errors"
	"time"

	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
)

// Service implements the group membership operations.
type Service struct {
	store *store.Store
}

// NewService creates a group members service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Membership is one row of the membership listing.
type Membership struct {
	MemberID uint   `json:"member_id"`
	GroupID  uint   `json:"group_id"`
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Admin    bool   `json:"admin"`
}

// MemberDetail is a membership with the member's account and post count.
type MemberDetail struct {
	MemberID   uint      `json:"member_id"`
	GroupID    uint      `json:"group_id"`
	UserID     uint      `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Admin      bool      `json:"admin"`
	TotalPosts int64     `json:"total_posts"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListInput pages the membership listing. Search matches against the
// group id read as text.
type ListInput struct {
	Search string
	Limit  int
	Offset int
}

// List returns memberships across every group.
func (s *Service) List(ctx context.Context, in ListInput) ([]Membership, error) {
	rows, err := s.store.Members.List(ctx, store.ListQuery[models.GroupMember]{
		SearchIn: store.MemberCol.GroupID,
		Search:   in.Search,
		Preload:  []store.Relation[models.GroupMember]{store.MemberUser},
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if errors.Is(err, store.ErrNoResults) {
		return nil, apperr.NotFoundf("No memberships were found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch memberships")
	}

	out := make([]Membership, len(rows))
	for i, m := range rows {
		out[i] = Membership{MemberID: m.ID, GroupID: m.GroupID, UserID: m.UserID, Name: m.User.Name, Admin: m.Admin}
	}
	return out, nil
}

// ListGroup returns the members of one group.
func (s *Service) ListGroup(ctx context.Context, groupID uint) ([]store.MemberInfo, error) {
	rows, err := s.store.Members.MembersOf(ctx, store.Eq(store.MemberCol.GroupID, groupID))
	if errors.Is(err, store.ErrNoResults) {
		return nil, apperr.NotFoundf("No members were found in social group %d.", groupID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch members")
	}
	return rows, nil
}

// Get returns one membership with the member's details.
func (s *Service) Get(ctx context.Context, groupID, userID uint) (*MemberDetail, error) {
	member, err := s.store.Members.FetchOne(ctx,
		store.Eq(store.MemberCol.GroupID, groupID),
		store.Eq(store.MemberCol.UserID, userID),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch membership")
	}
	if member == nil {
		return nil, apperr.NotFoundf("Member %d not found in social group %d.", userID, groupID)
	}

	profile, err := s.store.Users.Profile(ctx, store.ProfileQuery{By: store.Eq(store.UserCol.ID, userID), CountPosts: true})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch user")
	}
	if profile == nil {
		return nil, apperr.NotFoundf("Member %d not found in social group %d.", userID, groupID)
	}

	return &MemberDetail{
		MemberID:   member.ID,
		GroupID:    member.GroupID,
		UserID:     member.UserID,
		Name:       profile.Name,
		Email:      profile.Email,
		Admin:      member.Admin,
		TotalPosts: profile.PostCount,
		CreatedAt:  member.CreatedAt,
		UpdatedAt:  member.UpdatedAt,
	}, nil
}

// Join adds the caller to a group.
func (s *Service) Join(ctx context.Context, caller *models.User, groupID uint) (*models.GroupMember, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}

	member := models.GroupMember{UserID: caller.ID, GroupID: groupID}
	err := s.store.Members.Create(ctx, &member)
	switch {
	case err == nil:
		return &member, nil
	case errors.Is(err, store.ErrConflict):
		return nil, apperr.Wrap(apperr.Conflict, err, "User %d is already a member of group %d.", caller.ID, groupID)
	case errors.Is(err, store.ErrMissingReference):
		return nil, apperr.Wrap(apperr.NotFound, err, "Group %d was not found.", groupID)
	default:
		return nil, apperr.Wrap(apperr.WriteFault, err, "Failed to join group")
	}
}

// Leave removes the caller's membership. The admin cannot leave their
// own group.
func (s *Service) Leave(ctx context.Context, caller *models.User, groupID uint) error {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return err
	}

	isAdmin, err := s.store.Members.Exists(ctx,
		store.Eq(store.MemberCol.GroupID, groupID),
		store.Eq(store.MemberCol.UserID, caller.ID),
		store.Eq(store.MemberCol.Admin, true),
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to fetch membership")
	}
	if isAdmin {
		return apperr.Forbiddenf("The admin of group %d cannot leave it.", groupID)
	}

	n, err := s.store.Members.Delete(ctx,
		store.Eq(store.MemberCol.GroupID, groupID),
		store.Eq(store.MemberCol.UserID, caller.ID),
	)
	if err != nil {
		return apperr.Wrap(apperr.WriteFault, err, "Failed to leave group")
	}
	if n == 0 {
		return apperr.NotFoundf("User %d is not a member of group %d.", caller.ID, groupID)
	}
	return nil
}

func (s *Service) requireGroup(ctx context.Context, groupID uint) error {
	exists, err := s.store.Groups.Exists(ctx, store.Eq(store.GroupCol.ID, groupID))
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to fetch group")
	}
	if !exists {
		return apperr.NotFoundf("Group %d was not found.", groupID)
	}
	return nil
}
