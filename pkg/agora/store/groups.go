package store

import (
	"context"
	"errors"
	"time"

	"github.com/mikepea/agora/pkg/agora/models"
)

// SocialGroups adds membership aggregates to the group accessor.
type SocialGroups struct {
	*Accessor[models.SocialGroup]
	members *Accessor[models.GroupMember]
}

// GroupSummary is a group with its admin and member count.
type GroupSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Details     string    `json:"details"`
	AdminID     uint      `json:"admin_id"`
	AdminName   string    `json:"admin_name"`
	AdminEmail  string    `json:"admin_email"`
	MemberCount int64     `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupFilter narrows ListGroups. A nil IDs slice means every group.
type GroupFilter struct {
	IDs    []uint
	Search string
	Limit  int
	Offset int
}

// MemberCount returns how many members a group has.
func (g *SocialGroups) MemberCount(ctx context.Context, groupID uint) (int64, error) {
	return g.members.Count(ctx, Eq(MemberCol.GroupID, groupID))
}

// ListGroups returns groups with admin info and member counts, or ErrNoResults.
func (g *SocialGroups) ListGroups(ctx context.Context, f GroupFilter) ([]GroupSummary, error) {
	tx := g.db.WithContext(ctx).
		Table("social_groups").
		Select("social_groups.id, social_groups.title, social_groups.details, social_groups.admin_id, " +
			"social_groups.created_at, social_groups.updated_at, users.name AS admin_name, users.email AS admin_email, " +
			"COUNT(group_members.member_id) AS member_count").
		Joins("JOIN users ON users.id = social_groups.admin_id").
		Joins("LEFT JOIN group_members ON group_members.group_id = social_groups.id")
	if f.IDs != nil {
		tx = tx.Where(In(GroupCol.ID, f.IDs...).expr)
	}
	if f.Search != "" {
		tx = tx.Where(Contains[models.SocialGroup](GroupCol.Title, f.Search).expr)
	}
	tx = page(tx.Group("social_groups.id, users.id").Order("social_groups.id"), f.Limit, f.Offset)

	var rows []GroupSummary
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	return rows, nil
}

// Summary returns one group with its aggregates, or nil.
func (g *SocialGroups) Summary(ctx context.Context, groupID uint) (*GroupSummary, error) {
	rows, err := g.ListGroups(ctx, GroupFilter{IDs: []uint{groupID}})
	if errors.Is(err, ErrNoResults) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// GroupsForUser lists the groups userID belongs to, or ErrNoResults.
func (g *SocialGroups) GroupsForUser(ctx context.Context, userID uint, f GroupFilter) ([]GroupSummary, error) {
	memberships, err := g.members.FetchGrouped(ctx, Eq(MemberCol.UserID, userID))
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrNoResults
	}
	f.IDs = make([]uint, len(memberships))
	for i, m := range memberships {
		f.IDs[i] = m.GroupID
	}
	return g.ListGroups(ctx, f)
}
