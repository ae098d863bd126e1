package models

import "time"

// GroupMember is a user's membership in a social group. The group admin
// holds a membership row with Admin set.
type GroupMember struct {
	ID        uint      `gorm:"column:member_id;primarykey" json:"member_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_group" json:"user_id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_user_group" json:"group_id"`
	Admin     bool      `gorm:"not null;default:false" json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User  User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Group SocialGroup `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}
