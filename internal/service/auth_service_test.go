package service_test

import (
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func fakeVerifier(claims map[string]interface{}) func(context.Context, string, string) (*idtoken.Payload, error) {
	return func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "valid-google-token" || audience != "client-id" {
			return nil, errors.New("idtoken: invalid token")
		}
		return &idtoken.Payload{Audience: audience, Claims: claims}, nil
	}
}

func TestGoogleExchange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.cfg.GoogleClientID = "client-id"
	env.auth.WithIDTokenVerifier(fakeVerifier(map[string]interface{}{
		"email":   "Olivia@Example.com",
		"name":    "Olivia",
		"picture": "https://example.com/olivia.png",
	}))

	t.Run("Success", func(t *testing.T) {
		resp, err := env.auth.GoogleExchange(ctx, model.GoogleLoginRequest{IDToken: "valid-google-token"})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "olivia@example.com", resp.User.Email)
		assert.Equal(t, "Olivia", resp.User.FullName)
		assert.Equal(t, "https://example.com/olivia.png", resp.User.Avatar)

		user, err := env.auth.VerifyUser(ctx, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, user.ID)
	})

	t.Run("Second Sign In Reuses Profile", func(t *testing.T) {
		first, err := env.auth.GoogleExchange(ctx, model.GoogleLoginRequest{IDToken: "valid-google-token"})
		require.NoError(t, err)
		second, err := env.auth.GoogleExchange(ctx, model.GoogleLoginRequest{IDToken: "valid-google-token"})
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		_, err := env.auth.GoogleExchange(ctx, model.GoogleLoginRequest{IDToken: "forged"})
		assert.True(t, helper.HasCode(err, http.StatusUnauthorized))
	})

	t.Run("Missing Token", func(t *testing.T) {
		_, err := env.auth.GoogleExchange(ctx, model.GoogleLoginRequest{})
		assert.True(t, helper.HasCode(err, http.StatusBadRequest))
	})
}

func TestGoogleExchange_Disabled(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.GoogleExchange(context.Background(), model.GoogleLoginRequest{IDToken: "valid-google-token"})
	assert.True(t, helper.HasCode(err, http.StatusBadRequest))
}

func TestVerifyUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.createProfile(t, "Adam")

	t.Run("Valid", func(t *testing.T) {
		token, err := helper.GenerateJWT(env.cfg.JWTSecret, env.cfg.JWTExp, user.ID)
		require.NoError(t, err)

		got, err := env.auth.VerifyUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "Adam", got.FullName)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := helper.GenerateJWT("other-secret", env.cfg.JWTExp, user.ID)
		require.NoError(t, err)

		_, err = env.auth.VerifyUser(ctx, token)
		assert.True(t, helper.HasCode(err, http.StatusUnauthorized))
	})

	t.Run("Unknown User", func(t *testing.T) {
		token, err := helper.GenerateJWT(env.cfg.JWTSecret, env.cfg.JWTExp, uuid.New())
		require.NoError(t, err)

		_, err = env.auth.VerifyUser(ctx, token)
		assert.True(t, helper.HasCode(err, http.StatusUnauthorized))
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := env.auth.VerifyUser(ctx, "not-a-jwt")
		assert.True(t, helper.HasCode(err, http.StatusUnauthorized))
	})
}

func TestSignOut_WithoutSessionStore(t *testing.T) {
	env := newTestEnv(t)
	user := env.createProfile(t, "Adam")

	token, err := helper.GenerateJWT(env.cfg.JWTSecret, env.cfg.JWTExp, user.ID)
	require.NoError(t, err)

	assert.NoError(t, env.auth.SignOut(context.Background(), token))
	assert.True(t, helper.HasCode(env.auth.SignOut(context.Background(), "garbage"), http.StatusUnauthorized))
}
