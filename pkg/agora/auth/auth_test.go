package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
	"github.com/mikepea/agora/pkg/agora/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	models.AutoMigrate(db)
	return db
}

func newTestTokens(t *testing.T) *Tokens {
	tokens, err := NewTokens(testSecret, "HS256", 30*time.Minute)
	require.NoError(t, err)
	return tokens
}

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(store.New(db, nil), newTestTokens(t), nil), db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	hash, _ := HashPassword("password123")
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func setupTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()
	r := gin.New()
	NewHandler(svc).RegisterRoutes(&r.RouterGroup)
	r.GET("/me", RequireUser(svc), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "email": user.Email})
	})
	return r
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))

	other, _ := HashPassword("s3cret")
	assert.NotEqual(t, hash, other, "hashes are salted")
}

func TestNewTokensRejectsBadSettings(t *testing.T) {
	_, err := NewTokens("", "HS256", time.Minute)
	assert.Error(t, err)
	_, err = NewTokens(testSecret, "RS256", time.Minute)
	assert.Error(t, err)
	_, err = NewTokens(testSecret, "HS256", 0)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	tokens := newTestTokens(t)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens := newTestTokens(t)
	token, err := tokens.Issue(1)
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	tokens := newTestTokens(t)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	cases := map[string]string{
		"wrong secret": sign(jwt.SigningMethodHS256, []byte("another-secret"),
			&Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"wrong algorithm": sign(jwt.SigningMethodHS512, []byte(testSecret),
			&Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"unsigned": sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
			&Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"missing expiry": sign(jwt.SigningMethodHS256, []byte(testSecret),
			&Claims{UserID: 1}),
		"missing user id": sign(jwt.SigningMethodHS256, []byte(testSecret),
			&Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"garbage": "not.a.token",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	tokens := newTestTokens(t)
	token, err := tokens.Issue(7)
	require.NoError(t, err)

	sig := strings.LastIndex(token, ".") + 1
	flipped := byte('A')
	if token[sig] == 'A' {
		flipped = 'B'
	}
	tampered := token[:sig] + string(flipped) + token[sig+1:]

	_, err = tokens.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginSuccessRecordsLastLogin(t *testing.T) {
	svc, db := setupTestService(t)
	user := createTestUser(t, db, "test@example.com")

	result, err := svc.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", result.TokenType)

	claims, err := svc.Tokens().Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	var reloaded models.User
	db.First(&reloaded, user.ID)
	assert.NotNil(t, reloaded.LastLogin)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, db := setupTestService(t)
	createTestUser(t, db, "test@example.com")

	_, wrongPassword := svc.Login(context.Background(), "test@example.com", "nope")
	_, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "password123")

	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	}
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestResolveCurrentUser(t *testing.T) {
	svc, db := setupTestService(t)
	user := createTestUser(t, db, "test@example.com")
	token, _ := svc.Tokens().Issue(user.ID)

	got, err := svc.ResolveCurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	db.Delete(&models.User{}, user.ID)
	_, err = svc.ResolveCurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestLoginHandlerJSON(t *testing.T) {
	svc, db := setupTestService(t)
	router := setupTestRouter(svc)
	createTestUser(t, db, "test@example.com")

	body, _ := json.Marshal(LoginRequest{Username: "test@example.com", Password: "password123"})
	req, _ := http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result LoginResult
	json.Unmarshal(resp.Body.Bytes(), &result)
	if result.AccessToken == "" {
		t.Error("Expected access token in response")
	}
	if result.TokenType != "bearer" {
		t.Errorf("Expected token_type 'bearer', got %s", result.TokenType)
	}
}

func TestLoginHandlerForm(t *testing.T) {
	svc, db := setupTestService(t)
	router := setupTestRouter(svc)
	createTestUser(t, db, "test@example.com")

	form := url.Values{"username": {"test@example.com"}, "password": {"password123"}}
	req, _ := http.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	svc, db := setupTestService(t)
	router := setupTestRouter(svc)
	createTestUser(t, db, "test@example.com")

	body, _ := json.Marshal(LoginRequest{Username: "test@example.com", Password: "wrong"})
	req, _ := http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid credentials") {
		t.Errorf("Expected 'Invalid credentials' detail, got %s", resp.Body.String())
	}
}

func TestLoginHandlerMissingFields(t *testing.T) {
	svc, _ := setupTestService(t)
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("POST", "/login", bytes.NewBufferString(`{"username":"test@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.Code)
	}
}

func TestRequireUser(t *testing.T) {
	svc, db := setupTestService(t)
	router := setupTestRouter(svc)
	user := createTestUser(t, db, "test@example.com")
	valid, _ := svc.Tokens().Issue(user.ID)

	expiredTokens := newTestTokens(t)
	expiredTokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredTokens.Issue(user.ID)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"no header", "", http.StatusUnauthorized, "Not authenticated"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Could not validate credentials."},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "Token has expired."},
		{"garbage token", "Bearer nonsense", http.StatusUnauthorized, "Could not validate credentials."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
				assert.Contains(t, resp.Body.String(), tt.wantDetail)
			}
		})
	}
}
