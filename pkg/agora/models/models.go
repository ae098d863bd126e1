package models

import "gorm.io/gorm"

// AllModels returns all models for migration.
// Users must come first since every other table references them.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Vote{},
		&SocialGroup{},
		&GroupMember{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
