package store

import (
	"testing"

	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func setupTestStore(t *testing.T) (*Store, *gorm.DB) {
	db := setupTestDB(t)
	return New(db, nil), db
}

func createUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	user := models.User{Name: name, Email: email, PasswordHash: "hash-" + email}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, owner models.User, title string) models.Post {
	post := models.Post{Title: title, UserID: owner.ID}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func createGroup(t *testing.T, db *gorm.DB, admin models.User, title string) models.SocialGroup {
	group := models.SocialGroup{Title: title, AdminID: admin.ID}
	require.NoError(t, db.Create(&group).Error)
	require.NoError(t, db.Create(&models.GroupMember{UserID: admin.ID, GroupID: group.ID, Admin: true}).Error)
	return group
}
