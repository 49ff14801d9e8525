package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := GetUserIDFromContext(c)
		c.String(http.StatusOK, userID.String())
	})
	r.GET("/", handlers...)
	return r
}

func TestUserContext(t *testing.T) {
	r := newTestRouter(UserContext())
	userID := uuid.New()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed id", "not-a-uuid", http.StatusUnauthorized},
		{"nil id", uuid.Nil.String(), http.StatusUnauthorized},
		{"valid id", userID.String(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}

func TestRateLimiter_PerUser(t *testing.T) {
	rl := NewRateLimiterWithConfig(2, time.Minute)
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := newTestRouter(UserContext(), rl.Middleware())

	do := func(userID uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	alice, bob := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusOK, do(alice))
	assert.Equal(t, http.StatusOK, do(alice))
	assert.Equal(t, http.StatusTooManyRequests, do(alice))
	assert.Equal(t, http.StatusOK, do(bob), "limits are tracked per user")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, do(alice), "the window resets")

	rl.Cleanup()
	assert.Len(t, rl.entries, 1)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiterWithConfig(0, time.Minute)
	r := newTestRouter(rl.Middleware())

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
