// Package seed fills a database with demo users, posts, votes and groups.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/groups"
	"github.com/mikepea/agora/pkg/agora/members"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/posts"
	"github.com/mikepea/agora/pkg/agora/store"
	"github.com/mikepea/agora/pkg/agora/users"
	"github.com/mikepea/agora/pkg/agora/votes"
)

// Options sizes a seeding run.
type Options struct {
	Users        int
	PostsPerUser int
	Groups       int

	// Password is shared by every seeded account so they can log in.
	Password string

	// Seed makes runs reproducible. Zero picks a random seed.
	Seed int64
}

// Report summarizes what a run wrote.
type Report struct {
	Users       int
	Posts       int
	Votes       int
	Groups      int
	Memberships int
	Authors     []uint
	NewestPost  map[string]any
}

// Seeder drives the feature services so seeded rows obey the same rules as
// API writes.
type Seeder struct {
	store   *store.Store
	logger  *slog.Logger
	users   *users.Service
	posts   *posts.Service
	votes   *votes.Service
	groups  *groups.Service
	members *members.Service
}

// New creates a seeder over s.
func New(s *store.Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		store:   s,
		logger:  logger,
		users:   users.NewService(s),
		posts:   posts.NewService(s),
		votes:   votes.NewService(s),
		groups:  groups.NewService(s),
		members: members.NewService(s),
	}
}

// Run writes one batch of demo data.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Report, error) {
	faker := gofakeit.New(opts.Seed)
	report := &Report{}

	accounts := make([]models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		profile, err := s.users.Create(ctx, users.CreateInput{
			Name:     faker.Name(),
			Email:    fmt.Sprintf("%d.%s", i, faker.Email()),
			Password: opts.Password,
		})
		if err != nil {
			return report, fmt.Errorf("seed user %d: %w", i, err)
		}
		accounts = append(accounts, models.User{ID: profile.ID, Name: profile.Name, Email: profile.Email})
		report.Users++
	}
	if len(accounts) == 0 {
		return report, nil
	}

	var postIDs []uint
	for i := range accounts {
		for j := 0; j < opts.PostsPerUser; j++ {
			post, err := s.posts.Create(ctx, &accounts[i], posts.CreateInput{
				Title:     faker.Sentence(faker.Number(3, 8)),
				ViewCount: int64(faker.Number(0, 500)),
			})
			if err != nil {
				return report, fmt.Errorf("seed post: %w", err)
			}
			postIDs = append(postIDs, post.ID)
			report.Posts++
		}
	}

	for i := range accounts {
		for k := 0; k < len(postIDs)/2; k++ {
			postID := postIDs[faker.Number(0, len(postIDs)-1)]
			_, err := s.votes.Cast(ctx, &accounts[i], postID, votes.Upvote)
			if apperr.Is(err, apperr.Conflict) {
				continue
			}
			if err != nil {
				return report, fmt.Errorf("seed vote: %w", err)
			}
			report.Votes++
		}
	}

	for g := 0; g < opts.Groups; g++ {
		admin := &accounts[faker.Number(0, len(accounts)-1)]
		group, err := s.groups.Create(ctx, admin, groups.CreateInput{
			Title:   fmt.Sprintf("%s %d", faker.Company(), g),
			Details: faker.Sentence(12),
		})
		if err != nil {
			return report, fmt.Errorf("seed group %d: %w", g, err)
		}
		report.Groups++
		report.Memberships++

		for i := range accounts {
			if accounts[i].ID == admin.ID || !faker.Bool() {
				continue
			}
			if _, err := s.members.Join(ctx, &accounts[i], group.ID); err != nil {
				return report, fmt.Errorf("seed membership: %w", err)
			}
			report.Memberships++
		}
	}

	if err := s.summarize(ctx, report); err != nil {
		return report, err
	}
	s.logger.InfoContext(ctx, "seed complete",
		slog.Int("users", report.Users),
		slog.Int("posts", report.Posts),
		slog.Int("votes", report.Votes),
		slog.Int("groups", report.Groups),
		slog.Int("memberships", report.Memberships),
		slog.Int("authors", len(report.Authors)),
	)
	return report, nil
}

// ClearAll removes every group and user. Posts, votes and memberships go
// with them through the cascading foreign keys.
func (s *Seeder) ClearAll(ctx context.Context) error {
	groupIDs, err := store.Distinct(ctx, s.store.Groups.Accessor, store.GroupCol.ID)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	if len(groupIDs) > 0 {
		if _, err := s.store.Groups.Delete(ctx, store.In(store.GroupCol.ID, groupIDs...)); err != nil {
			return fmt.Errorf("clear groups: %w", err)
		}
	}

	userIDs, err := store.Distinct(ctx, s.store.Users.Accessor, store.UserCol.ID)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(userIDs) > 0 {
		if _, err := s.store.Users.Delete(ctx, store.In(store.UserCol.ID, userIDs...)); err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "database cleared",
		slog.Int("groups", len(groupIDs)),
		slog.Int("users", len(userIDs)),
	)
	return nil
}

func (s *Seeder) summarize(ctx context.Context, report *Report) error {
	authors, err := store.Distinct(ctx, s.store.Posts.Accessor, store.PostCol.UserID)
	if err != nil {
		return fmt.Errorf("count authors: %w", err)
	}
	report.Authors = authors

	newest, err := s.store.Posts.Newest(ctx, store.PostCol.CreatedAt)
	if err != nil {
		return fmt.Errorf("find newest post: %w", err)
	}
	if newest == nil {
		return nil
	}
	row, err := s.store.Posts.FetchOneMap(ctx, store.Eq(store.PostCol.ID, newest.ID))
	if err != nil {
		return fmt.Errorf("load newest post: %w", err)
	}
	report.NewestPost = row
	return nil
}
