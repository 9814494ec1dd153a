package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tvumtech/lumen/internal/workspace/api"
)

const JWTSecret = "lumen-workspace-test-secret"

// FakeBackend is an in-process stand-in for the ERP API server.
// Tests register gin handlers on Router, then point a client at URL().
type FakeBackend struct {
	Router *gin.Engine
	Server *httptest.Server
	T      *testing.T

	mu sync.Mutex
	// requests counts calls per "METHOD path" for interaction assertions
	requests map[string]int
}

// NewBackend starts a fake backend. Shut down via t.Cleanup automatically.
func NewBackend(t *testing.T) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	b := &FakeBackend{
		Router:   r,
		T:        t,
		requests: make(map[string]int),
	}
	r.Use(func(c *gin.Context) {
		b.mu.Lock()
		b.requests[c.Request.Method+" "+c.FullPath()]++
		b.mu.Unlock()
		c.Next()
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend base URL for clients
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// Client builds an api.Client wired to this backend with a valid test token
func (b *FakeBackend) Client() *api.Client {
	return api.NewClient(b.URL(), api.StaticToken(DefaultTestToken()), 5*time.Second, nil)
}

// ClientWithTokens builds an api.Client with a caller-supplied token source
func (b *FakeBackend) ClientWithTokens(tokens api.TokenSource) *api.Client {
	return api.NewClient(b.URL(), tokens, 5*time.Second, nil)
}

// Calls returns how many times "METHOD path" was hit (path is the gin route pattern)
func (b *FakeBackend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[method+" "+path]
}

// JSON registers a route that always replies with the given status and body
func (b *FakeBackend) JSON(method, path string, status int, body interface{}) {
	b.Router.Handle(method, path, func(c *gin.Context) {
		c.JSON(status, body)
	})
}

// Handle registers a custom gin handler
func (b *FakeBackend) Handle(method, path string, fn gin.HandlerFunc) {
	b.Router.Handle(method, path, fn)
}

// Unauthorized registers a route that always replies 401
func (b *FakeBackend) Unauthorized(method, path string) {
	b.JSON(method, path, http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
}

// GenerateTestToken creates a signed JWT for testing
func GenerateTestToken(userID, name string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"iss":  "lumen-test",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", 24*time.Hour)
}

// ExpiredTestToken returns a token whose exp is already in the past
func ExpiredTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", -time.Hour)
}
