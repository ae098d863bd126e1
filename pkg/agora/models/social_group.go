package models

import "time"

// SocialGroup is a titled community with a single admin.
type SocialGroup struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AdminID   uint      `gorm:"not null;index" json:"admin_id"`
	Title     string    `gorm:"uniqueIndex;not null" json:"title"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}
