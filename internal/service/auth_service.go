package service

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"google.golang.org/api/idtoken"
)

// IDTokenVerifier checks a Google ID token against an audience and returns its payload.
type IDTokenVerifier func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type AuthService struct {
	repo          *repository.Repository
	cfg           *config.AppConfig
	validator     *validator.Validate
	verifyIDToken IDTokenVerifier
}

func NewAuthService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate) *AuthService {
	return &AuthService{
		repo:          repo,
		cfg:           cfg,
		validator:     validator,
		verifyIDToken: idtoken.Validate,
	}
}

// WithIDTokenVerifier replaces Google's verifier, used where the identity provider is not reachable.
func (s *AuthService) WithIDTokenVerifier(v IDTokenVerifier) *AuthService {
	s.verifyIDToken = v
	return s
}

func profileToDTO(p *entity.Profile) model.UserDTO {
	dto := model.UserDTO{
		ID:       p.ID,
		Email:    p.Email,
		FullName: p.DisplayName(strings.Split(p.Email, "@")[0]),
	}
	if p.AvatarURL != nil {
		dto.Avatar = *p.AvatarURL
	}
	return dto
}

// VerifyUser resolves a bearer token to the current user, or Unauthorized.
func (s *AuthService) VerifyUser(ctx context.Context, tokenString string) (*model.UserDTO, error) {
	claims, err := helper.ParseJWT(s.cfg.JWTSecret, tokenString)
	if err != nil {
		slog.Debug("Rejected bearer token", "error", err)
		return nil, helper.NewUnauthorizedError("Invalid or expired token")
	}

	if s.repo.Session != nil && s.repo.Session.IsTokenBlacklisted(ctx, tokenString) {
		return nil, helper.NewUnauthorizedError("Token has been revoked")
	}

	profile, err := s.repo.Profile.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewUnauthorizedError("User not found")
		}
		slog.Error("Failed to load profile", "error", err, "userID", claims.UserID)
		return nil, helper.NewServiceUnavailableError("")
	}

	dto := profileToDTO(profile)
	return &dto, nil
}

func (s *AuthService) GoogleExchange(ctx context.Context, req model.GoogleLoginRequest) (*model.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err)
		return nil, helper.NewBadRequestError("")
	}

	if s.cfg.GoogleClientID == "" {
		slog.Warn("Google sign-in requested but GOOGLE_CLIENT_ID is not configured")
		return nil, helper.NewBadRequestError("Google sign-in is not enabled")
	}

	payload, err := s.verifyIDToken(ctx, req.IDToken, s.cfg.GoogleClientID)
	if err != nil {
		slog.Error("Failed to validate google token", "error", err)
		return nil, helper.NewUnauthorizedError("")
	}

	email, ok := payload.Claims["email"].(string)
	if !ok || email == "" {
		slog.Warn("Email not found in token claims")
		return nil, helper.NewBadRequestError("")
	}

	profile := &entity.Profile{
		ID:        uuid.New(),
		Email:     strings.ToLower(email),
		CreatedAt: time.Now().UTC(),
	}
	if name, ok := payload.Claims["name"].(string); ok && name != "" {
		profile.FullName = &name
	}
	if picture, ok := payload.Claims["picture"].(string); ok && picture != "" {
		profile.AvatarURL = &picture
	}

	stored, err := s.repo.Profile.Upsert(ctx, profile)
	if err != nil {
		slog.Error("Failed to upsert profile", "error", err, "email", profile.Email)
		return nil, helper.NewServiceUnavailableError("")
	}

	token, err := helper.GenerateJWT(s.cfg.JWTSecret, s.cfg.JWTExp, stored.ID)
	if err != nil {
		slog.Error("Failed to generate JWT token", "error", err)
		return nil, helper.NewInternalServerError("")
	}

	slog.Info("User signed in with Google", "userID", stored.ID)

	return &model.AuthResponse{
		Token: token,
		User:  profileToDTO(stored),
	}, nil
}

// SignOut revokes tokenString until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, tokenString string) error {
	claims, err := helper.ParseJWT(s.cfg.JWTSecret, tokenString)
	if err != nil {
		return helper.NewUnauthorizedError("Invalid or expired token")
	}

	if s.repo.Session == nil {
		slog.Warn("Sign-out without session store, token stays valid until expiry", "userID", claims.UserID)
		return nil
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	if err := s.repo.Session.BlacklistToken(ctx, tokenString, ttl); err != nil {
		slog.Error("Failed to revoke token", "error", err, "userID", claims.UserID)
		return helper.NewServiceUnavailableError("")
	}

	slog.Info("User signed out", "userID", claims.UserID)
	return nil
}
