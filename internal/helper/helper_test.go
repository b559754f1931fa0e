package helper

import (
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		expected string
	}{
		{"Short Unchanged", "Hello there", 80, "Hello there"},
		{"Whitespace Collapsed", "Hello \n\n  there\t!", 80, "Hello there !"},
		{"Cut With Ellipsis", "abcdefghij", 5, "abcde…"},
		{"Trailing Space Trimmed Before Ellipsis", "abcd efghij", 5, "abcd…"},
		{"Multibyte Runes", "🐶🐱🐭🐹🐰🦊", 3, "🐶🐱🐭…"},
		{"No Limit", "abcdefghij", 0, "abcdefghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncatePreview(tt.input, tt.maxRunes))
		})
	}

	long := strings.Repeat("é", 200)
	assert.Equal(t, 81, utf8.RuneCountInString(TruncatePreview(long, 80)))
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, 100*time.Millisecond, Backoff(0, base, time.Second))
	assert.Equal(t, 200*time.Millisecond, Backoff(1, base, time.Second))
	assert.Equal(t, 800*time.Millisecond, Backoff(3, base, time.Second))
	assert.Equal(t, time.Second, Backoff(4, base, time.Second))
	assert.Equal(t, time.Second, Backoff(1000, base, time.Second))
	assert.Equal(t, 100*time.Millisecond, Backoff(-3, base, time.Second))
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("Succeeds After Retries", func(t *testing.T) {
		calls := 0
		got, err := RetryWithBackoff(func() (string, bool, error) {
			calls++
			if calls < 3 {
				return "", true, assert.AnError
			}
			return "ok", false, nil
		}, 3, time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("Stops On Permanent Error", func(t *testing.T) {
		calls := 0
		_, err := RetryWithBackoff(func() (int, bool, error) {
			calls++
			return 0, false, assert.AnError
		}, 3, time.Millisecond)

		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, calls)
	})

	t.Run("Gives Up", func(t *testing.T) {
		calls := 0
		_, err := RetryWithBackoff(func() (int, bool, error) {
			calls++
			return 0, true, assert.AnError
		}, 2, time.Millisecond)

		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 3, calls)
	})
}

func TestJWT(t *testing.T) {
	userID := uuid.New()

	t.Run("Round Trip", func(t *testing.T) {
		token, err := GenerateJWT("secret", 1, userID)
		require.NoError(t, err)

		claims, err := ParseJWT("secret", token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := GenerateJWT("secret", 1, userID)
		require.NoError(t, err)

		_, err = ParseJWT("other", token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateJWT("secret", -1, userID)
		require.NoError(t, err)

		_, err = ParseJWT("secret", token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("Foreign Issuer", func(t *testing.T) {
		claims := JWTClaims{
			UserID: userID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = ParseJWT("secret", token)
		assert.Error(t, err)
	})
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewForbiddenError(""), http.StatusForbidden))
	assert.False(t, HasCode(NewForbiddenError(""), http.StatusNotFound))
	assert.False(t, HasCode(assert.AnError, http.StatusForbidden))
	assert.Equal(t, MsgServiceUnavailable, NewServiceUnavailableError("").Message)
}
