package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"murmur.chat.web/internal/jwt"
	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	"murmur.chat.web/pkg/response"
)

// fakeTokenStore 内存 Token 存储，测试用
type fakeTokenStore struct {
	tokens    map[string]*repository.UserTokenInfo
	ttl       time.Duration
	refreshed bool
}

func (f *fakeTokenStore) GetUserInfoByToken(_ context.Context, token string) (*repository.UserTokenInfo, error) {
	return f.tokens[token], nil
}

func (f *fakeTokenStore) GetTokenTTL(_ context.Context, _ string) (time.Duration, error) {
	return f.ttl, nil
}

func (f *fakeTokenStore) RefreshTokenExpire(_ context.Context, _ int64, _ string, _ time.Duration) error {
	f.refreshed = true
	return nil
}

func setupAuthRouter(t *testing.T, store TokenStore) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtService := jwt.NewService("test-secret", 2*time.Hour, 7*24*time.Hour)

	r := gin.New()
	r.GET("/me", TokenAuth(jwtService, store), func(c *gin.Context) {
		response.Success(c, gin.H{"userId": GetUserID(c), "role": GetUserRole(c)})
	})
	r.GET("/admin", TokenAuth(jwtService, store), AdminOnly(), func(c *gin.Context) {
		response.Success(c, nil)
	})
	return r, jwtService
}

func issueToken(t *testing.T, jwtService *jwt.Service, userID int64) string {
	t.Helper()
	pair, err := jwtService.GenerateTokenPair(userID)
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	return pair.AccessToken
}

func TestTokenAuthMissingHeader(t *testing.T) {
	r, _ := setupAuthRouter(t, &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenAuthInvalidToken(t *testing.T) {
	r, _ := setupAuthRouter(t, &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenAuthRevokedToken(t *testing.T) {
	// JWT 本身有效，但 Redis 中已无登录态（登出或顶号）
	store := &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}, ttl: time.Hour}
	r, jwtService := setupAuthRouter(t, store)
	token := issueToken(t, jwtService, 42)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenAuthSuccess(t *testing.T) {
	store := &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}, ttl: time.Hour}
	r, jwtService := setupAuthRouter(t, store)
	token := issueToken(t, jwtService, 42)
	store.tokens[token] = &repository.UserTokenInfo{UserID: 42, Username: "alice", Role: model.RoleUser}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":42`)
	assert.False(t, store.refreshed, "TTL 充足不应续期")
}

func TestTokenAuthSlidingRenewal(t *testing.T) {
	// 剩余 TTL 低于过期时长一半时滑动续期
	store := &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}, ttl: 10 * time.Minute}
	r, jwtService := setupAuthRouter(t, store)
	token := issueToken(t, jwtService, 42)
	store.tokens[token] = &repository.UserTokenInfo{UserID: 42, Username: "alice", Role: model.RoleUser}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.refreshed)
}

func TestAdminOnlyForbidsUser(t *testing.T) {
	store := &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}, ttl: time.Hour}
	r, jwtService := setupAuthRouter(t, store)
	token := issueToken(t, jwtService, 42)
	store.tokens[token] = &repository.UserTokenInfo{UserID: 42, Username: "alice", Role: model.RoleUser}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnlyAllowsAdmin(t *testing.T) {
	store := &fakeTokenStore{tokens: map[string]*repository.UserTokenInfo{}, ttl: time.Hour}
	r, jwtService := setupAuthRouter(t, store)
	token := issueToken(t, jwtService, 7)
	store.tokens[token] = &repository.UserTokenInfo{UserID: 7, Username: "root", Role: model.RoleAdmin}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		if got := extractToken(tt.header); got != tt.want {
			t.Errorf("extractToken(%q) = %q, 期望 %q", tt.header, got, tt.want)
		}
	}
}
