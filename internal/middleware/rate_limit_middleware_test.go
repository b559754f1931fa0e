package middleware

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/model"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetIP(t *testing.T) {
	m := &RateLimitMiddleware{
		trustedProxyCIDRs: parseTrustedProxyCIDRs([]string{"10.0.0.0/8", "not-a-cidr"}),
	}

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		expected   string
	}{
		{"Untrusted Remote Ignores Headers", "198.51.100.20:1234", "203.0.113.1", "", "198.51.100.20"},
		{"Right Most Untrusted Hop", "10.0.0.1:1234", "1.1.1.1, 2.2.2.2, 198.51.100.10", "", "198.51.100.10"},
		{"Skips Trusted Chain", "10.0.0.1:1234", "203.0.113.10, 10.1.1.1", "", "203.0.113.10"},
		{"Falls Back To X-Real-IP", "10.0.0.1:1234", "", "198.51.100.11", "198.51.100.11"},
		{"IPv6 Remote", "[2001:db8::1]:443", "", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.expected, m.getIP(req))
		})
	}
}

type countingStore struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (s *countingStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key] <= limit, window, nil
}

func TestRateLimitMiddleware_Limit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("Per User Window", func(t *testing.T) {
		store := &countingStore{counts: map[string]int{}}
		m := &RateLimitMiddleware{store: store}
		handler := m.Limit("create_chat", 2, time.Minute)(ok)

		user := &model.UserDTO{ID: uuid.New()}
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/chats", nil)
			req = req.WithContext(context.WithValue(req.Context(), UserContextKey, user))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)

			if rr.Code == http.StatusTooManyRequests {
				assert.Equal(t, "60", rr.Header().Get("Retry-After"))
				assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
			}
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		assert.Contains(t, store.counts, "ratelimit:user:create_chat:"+user.ID.String())
	})

	t.Run("Per Client IP Without User", func(t *testing.T) {
		store := &countingStore{counts: map[string]int{}}
		m := NewRateLimitMiddleware(store, &config.AppConfig{TrustedProxyCIDRs: []string{"10.0.0.0/8"}})
		handler := m.Limit("google_exchange", 1, time.Minute)(ok)

		send := func(clientIP string) int {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/google", nil)
			req.RemoteAddr = "10.0.0.5:4000"
			req.Header.Set("X-Forwarded-For", clientIP)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			return rr.Code
		}

		assert.Equal(t, http.StatusOK, send("198.51.100.1"))
		assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
		assert.Equal(t, http.StatusOK, send("198.51.100.2"))
		assert.Equal(t, 2, store.counts["ratelimit:ip:google_exchange:198.51.100.1"])
	})

	t.Run("Store Failure", func(t *testing.T) {
		m := &RateLimitMiddleware{store: &countingStore{err: errors.New("redis down")}}
		rr := httptest.NewRecorder()
		m.Limit("create_chat", 2, time.Minute)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("Disabled Without Store", func(t *testing.T) {
		m := NewRateLimitMiddleware(nil, &config.AppConfig{})
		handler := m.Limit("create_chat", 1, time.Minute)(ok)

		for i := 0; i < 3; i++ {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		}
	})
}
