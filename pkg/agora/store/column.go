package store

import (
	"time"

	"github.com/mikepea/agora/pkg/agora/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column names a column of T's table whose values have type V. Conditions
// and assignments built from a Column only apply to accessors of T.
type Column[T, V any] struct {
	table string
	name  string
}

func col[T, V any](table, name string) Column[T, V] {
	return Column[T, V]{table: table, name: name}
}

// Name is the bare column name.
func (c Column[T, V]) Name() string { return c.name }

// Qualified is table.column, for raw join queries.
func (c Column[T, V]) Qualified() string { return c.table + "." + c.name }

func (c Column[T, V]) ref() clause.Column {
	return clause.Column{Table: c.table, Name: c.name}
}

func (Column[T, V]) entity(T) {}

// AnyColumn is a column of T with its value type erased.
type AnyColumn[T any] interface {
	Name() string
	Qualified() string
	ref() clause.Column
	entity(T)
}

// Cond is one filter against T's table.
type Cond[T any] struct {
	expr clause.Expression
}

// Eq matches rows where col equals v.
func Eq[T, V any](c Column[T, V], v V) Cond[T] {
	return Cond[T]{expr: clause.Eq{Column: c.ref(), Value: v}}
}

// In matches rows where col is one of vs.
func In[T, V any](c Column[T, V], vs ...V) Cond[T] {
	values := make([]any, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return Cond[T]{expr: clause.IN{Column: c.ref(), Values: values}}
}

// Contains matches rows whose column, read as text, contains s.
func Contains[T any](c AnyColumn[T], s string) Cond[T] {
	return Cond[T]{expr: clause.Expr{
		SQL:  "CAST(? AS TEXT) LIKE ?",
		Vars: []any{c.ref(), "%" + s + "%"},
	}}
}

// Assignment sets one column in an update.
type Assignment[T any] struct {
	name  string
	value any
}

// Set assigns v to col.
func Set[T, V any](c Column[T, V], v V) Assignment[T] {
	return Assignment[T]{name: c.name, value: v}
}

// Increment adds by to an integer column in place.
func Increment[T any](c Column[T, int64], by int64) Assignment[T] {
	return Assignment[T]{name: c.name, value: gorm.Expr("? + ?", clause.Column{Name: c.name}, by)}
}

// Relation names an association of T to eager-load.
type Relation[T any] struct {
	name string
}

var UserCol = struct {
	ID           Column[models.User, uint]
	Name         Column[models.User, string]
	Email        Column[models.User, string]
	PasswordHash Column[models.User, string]
	CreatedAt    Column[models.User, time.Time]
	UpdatedAt    Column[models.User, time.Time]
	LastLogin    Column[models.User, *time.Time]
}{
	ID:           col[models.User, uint]("users", "id"),
	Name:         col[models.User, string]("users", "name"),
	Email:        col[models.User, string]("users", "email"),
	PasswordHash: col[models.User, string]("users", "password_hash"),
	CreatedAt:    col[models.User, time.Time]("users", "created_at"),
	UpdatedAt:    col[models.User, time.Time]("users", "updated_at"),
	LastLogin:    col[models.User, *time.Time]("users", "last_login"),
}

var PostCol = struct {
	ID        Column[models.Post, uint]
	Title     Column[models.Post, string]
	ViewCount Column[models.Post, int64]
	UserID    Column[models.Post, uint]
	CreatedAt Column[models.Post, time.Time]
	UpdatedAt Column[models.Post, time.Time]
}{
	ID:        col[models.Post, uint]("posts", "id"),
	Title:     col[models.Post, string]("posts", "title"),
	ViewCount: col[models.Post, int64]("posts", "view_count"),
	UserID:    col[models.Post, uint]("posts", "user_id"),
	CreatedAt: col[models.Post, time.Time]("posts", "created_at"),
	UpdatedAt: col[models.Post, time.Time]("posts", "updated_at"),
}

var VoteCol = struct {
	PostID    Column[models.Vote, uint]
	UserID    Column[models.Vote, uint]
	CreatedAt Column[models.Vote, time.Time]
}{
	PostID:    col[models.Vote, uint]("votes", "post_id"),
	UserID:    col[models.Vote, uint]("votes", "user_id"),
	CreatedAt: col[models.Vote, time.Time]("votes", "created_at"),
}

var GroupCol = struct {
	ID        Column[models.SocialGroup, uint]
	AdminID   Column[models.SocialGroup, uint]
	Title     Column[models.SocialGroup, string]
	Details   Column[models.SocialGroup, string]
	CreatedAt Column[models.SocialGroup, time.Time]
	UpdatedAt Column[models.SocialGroup, time.Time]
}{
	ID:        col[models.SocialGroup, uint]("social_groups", "id"),
	AdminID:   col[models.SocialGroup, uint]("social_groups", "admin_id"),
	Title:     col[models.SocialGroup, string]("social_groups", "title"),
	Details:   col[models.SocialGroup, string]("social_groups", "details"),
	CreatedAt: col[models.SocialGroup, time.Time]("social_groups", "created_at"),
	UpdatedAt: col[models.SocialGroup, time.Time]("social_groups", "updated_at"),
}

var MemberCol = struct {
	ID        Column[models.GroupMember, uint]
	UserID    Column[models.GroupMember, uint]
	GroupID   Column[models.GroupMember, uint]
	Admin     Column[models.GroupMember, bool]
	CreatedAt Column[models.GroupMember, time.Time]
}{
	ID:        col[models.GroupMember, uint]("group_members", "member_id"),
	UserID:    col[models.GroupMember, uint]("group_members", "user_id"),
	GroupID:   col[models.GroupMember, uint]("group_members", "group_id"),
	Admin:     col[models.GroupMember, bool]("group_members", "admin"),
	CreatedAt: col[models.GroupMember, time.Time]("group_members", "created_at"),
}

var (
	PostAuthor  = Relation[models.Post]{name: "User"}
	GroupAdmin  = Relation[models.SocialGroup]{name: "Admin"}
	MemberUser  = Relation[models.GroupMember]{name: "User"}
	MemberGroup = Relation[models.GroupMember]{name: "Group"}
)
