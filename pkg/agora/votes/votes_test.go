package votes

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/testutil"
)

func setupTestRouter(env *testutil.Env) *gin.Engine {
	r := testutil.Router()
	NewHandler(NewService(env.Store)).RegisterRoutes(&r.RouterGroup, auth.RequireUser(env.Auth))
	return r
}

func voteBody(postID uint, vote int) map[string]any {
	return map[string]any{"post_id": postID, "vote": vote}
}

func TestVoteLifecycle(t *testing.T) {
	env := testutil.New(t)
	router := setupTestRouter(env)
	user := env.CreateUser(t, "Alice", "alice@example.com")
	post := env.CreatePost(t, user, "hello")
	header := env.AuthHeader(t, user)

	steps := []struct {
		name       string
		vote       int
		wantStatus int
		wantBody   string
	}{
		{"first upvote", 1, http.StatusAccepted, "Successful upvote."},
		{"repeat upvote", 1, http.StatusConflict, "already voted on post"},
		{"remove", 0, http.StatusAccepted, "Upvote removed."},
		{"remove again", 0, http.StatusNotFound, "not found"},
		{"upvote after removal", 1, http.StatusAccepted, "Successful upvote."},
	}
	for _, step := range steps {
		resp := testutil.Do(t, router, "POST", "/votes", voteBody(post.ID, step.vote), header)
		if resp.Code != step.wantStatus {
			t.Fatalf("%s: expected status %d, got %d: %s", step.name, step.wantStatus, resp.Code, resp.Body.String())
		}
		if !strings.Contains(resp.Body.String(), step.wantBody) {
			t.Errorf("%s: expected body to contain %q, got %s", step.name, step.wantBody, resp.Body.String())
		}
	}

	var count int64
	env.DB.Model(&models.Vote{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 stored vote, got %d", count)
	}
}

func TestVoteOnMissingPost(t *testing.T) {
	env := testutil.New(t)
	router := setupTestRouter(env)
	user := env.CreateUser(t, "Alice", "alice@example.com")

	resp := testutil.Do(t, router, "POST", "/votes", voteBody(999, 1), env.AuthHeader(t, user))
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestVoteValidation(t *testing.T) {
	env := testutil.New(t)
	router := setupTestRouter(env)
	user := env.CreateUser(t, "Alice", "alice@example.com")
	post := env.CreatePost(t, user, "hello")
	header := env.AuthHeader(t, user)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"vote out of range", voteBody(post.ID, -1)},
		{"vote missing", map[string]any{"post_id": post.ID}},
		{"post missing", map[string]any{"vote": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Do(t, router, "POST", "/votes", tt.body, header)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Errorf("Expected status 422, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}

	resp := testutil.Do(t, router, "POST", "/votes", voteBody(post.ID, 1), "")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a token, got %d", resp.Code)
	}
}

func TestCastRejectsUnknownDirection(t *testing.T) {
	env := testutil.New(t)
	user := env.CreateUser(t, "Alice", "alice@example.com")
	post := env.CreatePost(t, user, "hello")

	_, err := NewService(env.Store).Cast(context.Background(), &user, post.ID, Direction(5))
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}
