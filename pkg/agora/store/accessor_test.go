package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFetchOne(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, db, "Alice", "alice@example.com")
	createUser(t, db, "Bob", "bob@example.com")

	got, err := s.Users.FetchOne(ctx, Eq(UserCol.Email, "alice@example.com"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.Users.FetchOne(ctx, Eq(UserCol.Email, "alice@example.com"), Eq(UserCol.Name, "Bob"))
	require.NoError(t, err)
	assert.Nil(t, got, "conditions are a conjunction")

	got, err = s.Users.FetchOne(ctx, Eq(UserCol.ID, uint(999)))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFetchOneMap(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, db, "Alice", "alice@example.com")

	row, err := s.Users.FetchOneMap(ctx, Eq(UserCol.ID, alice.ID))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Alice", row["name"])
	assert.Equal(t, "alice@example.com", row["email"])

	row, err = s.Users.FetchOneMap(ctx, Eq(UserCol.ID, uint(42)))
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestNewest(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()

	got, err := s.Posts.Newest(ctx, PostCol.CreatedAt)
	require.NoError(t, err)
	assert.Nil(t, got, "empty table")

	owner := createUser(t, db, "Owner", "owner@example.com")
	older := models.Post{Title: "older", UserID: owner.ID, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&older).Error)
	newer := createPost(t, db, owner, "newer")

	got, err = s.Posts.Newest(ctx, PostCol.CreatedAt)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)

	_, err = s.Posts.Update(ctx, Eq(PostCol.ID, older.ID), Set(PostCol.Title, "touched"))
	require.NoError(t, err)
	got, err = s.Posts.Newest(ctx, PostCol.UpdatedAt)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
}

func TestList(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	for _, title := range []string{"go tips", "rust tips", "go generics", "cooking"} {
		createPost(t, db, owner, title)
	}

	all, err := s.Posts.List(ctx, ListQuery[models.Post]{SearchIn: PostCol.Title})
	require.NoError(t, err)
	assert.Len(t, all, 4, "empty search is no filter")

	matched, err := s.Posts.List(ctx, ListQuery[models.Post]{SearchIn: PostCol.Title, Search: "go"})
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "go tips", matched[0].Title)
	assert.Equal(t, "go generics", matched[1].Title)

	paged, err := s.Posts.List(ctx, ListQuery[models.Post]{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, "rust tips", paged[0].Title)

	withAuthor, err := s.Posts.List(ctx, ListQuery[models.Post]{Limit: 1, Preload: []Relation[models.Post]{PostAuthor}})
	require.NoError(t, err)
	assert.Equal(t, "Owner", withAuthor[0].User.Name)

	_, err = s.Posts.List(ctx, ListQuery[models.Post]{SearchIn: PostCol.Title, Search: "haskell"})
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestListSearchesNonTextColumns(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, db, "Alice", "alice@example.com")
	bob := createUser(t, db, "Bob", "bob@example.com")
	g1 := createGroup(t, db, alice, "one")
	createGroup(t, db, bob, "two")
	require.NoError(t, db.Create(&models.GroupMember{UserID: bob.ID, GroupID: g1.ID}).Error)

	rows, err := s.Members.List(ctx, ListQuery[models.GroupMember]{SearchIn: MemberCol.GroupID, Search: "1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDistinct(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, db, "Alice", "alice@example.com")
	bob := createUser(t, db, "Bob", "bob@example.com")
	createPost(t, db, alice, "a")
	createPost(t, db, alice, "b")
	createPost(t, db, bob, "c")

	owners, err := Distinct(ctx, s.Posts.Accessor, PostCol.UserID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID, bob.ID}, owners)
}

func TestField(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, db, "Alice", "alice@example.com")

	id, ok, err := Field(ctx, s.Users.Accessor, UserCol.Email, "alice@example.com", UserCol.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice.ID, id)

	name, ok, err := Field(ctx, s.Users.Accessor, UserCol.Email, "nobody@example.com", UserCol.Name)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestFetchGrouped(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, db, "Alice", "alice@example.com")
	bob := createUser(t, db, "Bob", "bob@example.com")
	group := createGroup(t, db, alice, "club")
	require.NoError(t, db.Create(&models.GroupMember{UserID: bob.ID, GroupID: group.ID}).Error)

	rows, err := s.Members.FetchGrouped(ctx, Eq(MemberCol.GroupID, group.ID), MemberUser)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].User.Name)
	assert.Equal(t, "Bob", rows[1].User.Name)

	rows, err = s.Members.FetchGrouped(ctx, Eq(MemberCol.GroupID, uint(77)))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateConflictIsNotRetried(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	createUser(t, db, "Alice", "alice@example.com")

	attempts := countCreates(t, db)
	err := s.Users.Create(ctx, &models.User{Name: "Imposter", Email: "alice@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, *attempts)
}

func TestCreateMissingReference(t *testing.T) {
	s, _ := setupTestStore(t)

	err := s.Posts.Create(context.Background(), &models.Post{Title: "orphan", UserID: 404})
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestCreateRetriesTransientFailureOnce(t *testing.T) {
	s, db := setupTestStore(t)
	failures := 1
	registerFailingCreate(t, db, &failures)

	user := models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, s.Users.Create(context.Background(), &user))
	assert.NotZero(t, user.ID)

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestCreateWriteFaultAfterSecondFailure(t *testing.T) {
	s, db := setupTestStore(t)
	failures := 2
	attempts := registerFailingCreate(t, db, &failures)

	err := s.Users.Create(context.Background(), &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.True(t, IsWriteFault(err))
	assert.Equal(t, 2, *attempts)

	var wf *WriteFaultError
	require.True(t, errors.As(err, &wf))
	assert.Equal(t, "users", wf.Table)
}

func TestCreateInTransactionIsNotRetried(t *testing.T) {
	s, db := setupTestStore(t)
	failures := 1
	attempts := registerFailingCreate(t, db, &failures)

	err := s.Transaction(context.Background(), func(tx *Store) error {
		return tx.Users.Create(context.Background(), &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"})
	})
	assert.True(t, IsWriteFault(err))
	assert.Equal(t, 1, *attempts)
}

func TestUpdate(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	post := createPost(t, db, owner, "draft")

	n, err := s.Posts.Update(ctx, Eq(PostCol.ID, post.ID), Set(PostCol.Title, "final"), Increment(PostCol.ViewCount, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := s.Posts.FetchOne(ctx, Eq(PostCol.ID, post.ID))
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, int64(2), got.ViewCount)

	n, err = s.Posts.Update(ctx, Eq(PostCol.ID, uint(999)), Set(PostCol.Title, "ghost"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateUniqueViolation(t *testing.T) {
	s, db := setupTestStore(t)
	alice := createUser(t, db, "Alice", "alice@example.com")
	createUser(t, db, "Bob", "bob@example.com")

	_, err := s.Users.Update(context.Background(), Eq(UserCol.ID, alice.ID), Set(UserCol.Email, "bob@example.com"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDelete(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	post := createPost(t, db, owner, "doomed")

	n, err := s.Posts.Delete(ctx, Eq(PostCol.ID, post.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Posts.Delete(ctx, Eq(PostCol.ID, post.ID))
	require.NoError(t, err)
	assert.Zero(t, n, "second delete is a no-op")

	_, err = s.Posts.Delete(ctx)
	assert.Error(t, err)
}

func TestTransactionRollsBack(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	admin := createUser(t, db, "Admin", "admin@example.com")

	err := s.Transaction(ctx, func(tx *Store) error {
		group := models.SocialGroup{Title: "club", AdminID: admin.ID}
		if err := tx.Groups.Create(ctx, &group); err != nil {
			return err
		}
		return tx.Members.Create(ctx, &models.GroupMember{UserID: 999, GroupID: group.ID, Admin: true})
	})
	assert.ErrorIs(t, err, ErrMissingReference)

	exists, err := s.Groups.Exists(ctx, Eq(GroupCol.Title, "club"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// countCreates records how many insert statements reach the database.
func countCreates(t *testing.T, db *gorm.DB) *int {
	t.Helper()
	attempts := 0
	err := db.Callback().Create().Before("gorm:create").Register("test:count_creates", func(*gorm.DB) {
		attempts++
	})
	require.NoError(t, err)
	return &attempts
}

// registerFailingCreate makes the next *failures inserts fail with a
// transient error.
func registerFailingCreate(t *testing.T, db *gorm.DB, failures *int) *int {
	t.Helper()
	attempts := 0
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_create", func(tx *gorm.DB) {
		attempts++
		if *failures > 0 {
			*failures--
			_ = tx.AddError(errors.New("connection reset by peer"))
		}
	})
	require.NoError(t, err)
	return &attempts
}

func TestCreateThenNewestReturnsRow(t *testing.T) {
	s, db := setupTestStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")

	post := models.Post{Title: "fresh", ViewCount: 3, UserID: owner.ID}
	require.NoError(t, s.Posts.Create(ctx, &post))

	got, err := s.Posts.Newest(ctx, PostCol.CreatedAt)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, "fresh", got.Title)
	assert.Equal(t, int64(3), got.ViewCount)
	assert.Equal(t, owner.ID, got.UserID)
	assert.False(t, got.CreatedAt.IsZero())
}
