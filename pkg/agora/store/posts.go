package store

import (
	"context"
	"errors"
	"time"

	"github.com/mikepea/agora/pkg/agora/models"
)

// Posts adds vote-aware queries to the post accessor.
type Posts struct {
	*Accessor[models.Post]
	votes *Accessor[models.Vote]
}

// PostSummary is a post joined with its author and upvote count.
type PostSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `json:"user_id"`
	Upvotes     int64     `json:"upvotes"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
}

// PostFilter narrows ListPosts.
type PostFilter struct {
	Search string
	Where  []Cond[models.Post]
	Limit  int
	Offset int
}

// UpvoteCount returns the number of votes on a post, zero when there are none.
func (p *Posts) UpvoteCount(ctx context.Context, postID uint) (int64, error) {
	return p.votes.Count(ctx, Eq(VoteCol.PostID, postID))
}

// ListPosts returns posts with author details and upvote counts in id
// order, or ErrNoResults.
func (p *Posts) ListPosts(ctx context.Context, f PostFilter) ([]PostSummary, error) {
	tx := p.db.WithContext(ctx).
		Table("posts").
		Select("posts.id, posts.title, posts.view_count, posts.created_at, posts.updated_at, posts.user_id, " +
			"COUNT(votes.post_id) AS upvotes, users.name AS author_name, users.email AS author_email").
		Joins("LEFT JOIN votes ON votes.post_id = posts.id").
		Joins("JOIN users ON users.id = posts.user_id")
	for _, c := range f.Where {
		tx = tx.Where(c.expr)
	}
	if f.Search != "" {
		tx = tx.Where(Contains[models.Post](PostCol.Title, f.Search).expr)
	}
	tx = page(tx.Group("posts.id, users.id").Order("posts.id"), f.Limit, f.Offset)

	var rows []PostSummary
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	return rows, nil
}

// Summary returns one post with its aggregates, or nil.
func (p *Posts) Summary(ctx context.Context, postID uint) (*PostSummary, error) {
	rows, err := p.ListPosts(ctx, PostFilter{Where: []Cond[models.Post]{Eq(PostCol.ID, postID)}, Limit: 1})
	if errors.Is(err, ErrNoResults) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}
