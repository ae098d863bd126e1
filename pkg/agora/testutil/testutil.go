// Package testutil builds the in-memory database, store and auth service
// shared by the handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
	"github.com/mikepea/agora/pkg/agora/validation"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Secret signs every token issued in tests.
const Secret = "agora-test-secret-with-enough-length"

// Password is the plain-text password of users made by CreateUser.
const Password = "password123"

// Env is one isolated test world.
type Env struct {
	DB    *gorm.DB
	Store *store.Store
	Auth  *auth.Service
}

// New opens a fresh in-memory database with foreign keys enabled.
func New(t *testing.T) *Env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	tokens, err := auth.NewTokens(Secret, "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("Failed to build tokens: %v", err)
	}
	s := store.New(db, nil)
	return &Env{DB: db, Store: s, Auth: auth.NewService(s, tokens, nil)}
}

// Router returns a gin engine in test mode with validators registered.
func Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()
	return gin.New()
}

// CreateUser inserts a user whose password is Password.
func (e *Env) CreateUser(t *testing.T, name, email string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(Password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{Name: name, Email: email, PasswordHash: hash}
	if err := e.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreatePost inserts a post owned by owner.
func (e *Env) CreatePost(t *testing.T, owner models.User, title string) models.Post {
	t.Helper()
	post := models.Post{Title: title, UserID: owner.ID}
	if err := e.DB.Create(&post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return post
}

// CreateGroup inserts a group administered by admin, with its admin membership.
func (e *Env) CreateGroup(t *testing.T, admin models.User, title string) models.SocialGroup {
	t.Helper()
	group := models.SocialGroup{Title: title, Details: title + " details", AdminID: admin.ID}
	if err := e.DB.Create(&group).Error; err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	e.AddMember(t, group, models.User{ID: admin.ID}, true)
	return group
}

// AddMember inserts a membership row.
func (e *Env) AddMember(t *testing.T, group models.SocialGroup, user models.User, admin bool) models.GroupMember {
	t.Helper()
	member := models.GroupMember{GroupID: group.ID, UserID: user.ID, Admin: admin}
	if err := e.DB.Create(&member).Error; err != nil {
		t.Fatalf("Failed to create membership: %v", err)
	}
	return member
}

// AuthHeader returns an Authorization header value for user.
func (e *Env) AuthHeader(t *testing.T, user models.User) string {
	t.Helper()
	token, err := e.Auth.Tokens().Issue(user.ID)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return "Bearer " + token
}

// Do sends a request through router. A non-nil body is encoded as JSON and
// a non-empty authHeader is sent as Authorization.
func Do(t *testing.T, router http.Handler, method, path string, body any, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// Decode unmarshals a JSON response body into v.
func Decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", resp.Body.String(), err)
	}
}
