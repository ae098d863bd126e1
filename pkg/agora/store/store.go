package store

import (
	"context"
	"log/slog"

	"github.com/mikepea/agora/pkg/agora/models"
	"gorm.io/gorm"
)

// Store groups the entity accessors over one connection pool.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger

	Users   *Users
	Posts   *Posts
	Votes   *Accessor[models.Vote]
	Groups  *SocialGroups
	Members *GroupMembers
}

// New builds a Store on db. A nil logger uses slog.Default.
func New(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return build(db, logger, false)
}

func build(db *gorm.DB, logger *slog.Logger, inTx bool) *Store {
	votes := &Accessor[models.Vote]{db: db, logger: logger, inTx: inTx}
	members := &Accessor[models.GroupMember]{db: db, logger: logger, inTx: inTx}
	return &Store{
		db:      db,
		logger:  logger,
		Users:   &Users{Accessor: &Accessor[models.User]{db: db, logger: logger, inTx: inTx}},
		Posts:   &Posts{Accessor: &Accessor[models.Post]{db: db, logger: logger, inTx: inTx}, votes: votes},
		Votes:   votes,
		Groups:  &SocialGroups{Accessor: &Accessor[models.SocialGroup]{db: db, logger: logger, inTx: inTx}, members: members},
		Members: &GroupMembers{Accessor: members},
	}
}

// Transaction runs fn with a Store bound to a single transaction. The
// transaction commits when fn returns nil.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(build(tx, s.logger, true))
	})
}
