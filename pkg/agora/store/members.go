package store

import (
	"context"
	"time"

	"github.com/mikepea/agora/pkg/agora/models"
)

// GroupMembers adds user-joined listings to the membership accessor.
type GroupMembers struct {
	*Accessor[models.GroupMember]
}

// MemberInfo is a membership joined with the member's name.
type MemberInfo struct {
	MemberID  uint      `json:"member_id"`
	UserID    uint      `json:"user_id"`
	GroupID   uint      `json:"group_id"`
	Name      string    `json:"name"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"joined_at"`
}

// MembersOf lists memberships matching cond with member names, in
// membership order. It returns ErrNoResults when none match.
func (m *GroupMembers) MembersOf(ctx context.Context, cond Cond[models.GroupMember]) ([]MemberInfo, error) {
	var rows []MemberInfo
	err := m.db.WithContext(ctx).
		Table("group_members").
		Select("group_members.member_id, group_members.user_id, group_members.group_id, " +
			"users.name, group_members.admin, group_members.created_at").
		Joins("JOIN users ON users.id = group_members.user_id").
		Where(cond.expr).
		Order("group_members.member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	return rows, nil
}
