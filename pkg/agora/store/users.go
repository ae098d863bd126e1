package store

import (
	"context"
	"time"

	"github.com/mikepea/agora/pkg/agora/models"
)

// Users adds profile lookups to the user accessor.
type Users struct {
	*Accessor[models.User]
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID        uint       `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	PostCount int64      `json:"posts"`
}

// ProfileQuery selects one user. With CountPosts the lookup joins posts and
// counts them; without it PostCount is always zero.
type ProfileQuery struct {
	By         Cond[models.User]
	CountPosts bool
}

// Profile returns the matching user's profile, or nil when none matches.
func (u *Users) Profile(ctx context.Context, q ProfileQuery) (*UserProfile, error) {
	if !q.CountPosts {
		user, err := u.FetchOne(ctx, q.By)
		if err != nil || user == nil {
			return nil, err
		}
		return ProfileOf(user, 0), nil
	}

	var rows []UserProfile
	err := u.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.email, users.created_at, users.updated_at, users.last_login, " +
			"COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.user_id = users.id").
		Where(q.By.expr).
		Group("users.id").
		Order("users.id").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ProfileOf converts a user row.
func ProfileOf(user *models.User, posts int64) *UserProfile {
	return &UserProfile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		LastLogin: user.LastLogin,
		PostCount: posts,
	}
}
