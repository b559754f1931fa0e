package controller

import (
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/middleware"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/service"
	"encoding/json"
	"log/slog"
	"net/http"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// GoogleExchange godoc
// @Summary      Google Exchange
// @Description  Exchange Google ID Token for App Token and User Info
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.GoogleLoginRequest true "Google Login Request"
// @Success      200  {object}  helper.ResponseSuccess{data=model.AuthResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      503  {object}  helper.ResponseError
// @Router       /api/auth/google [post]
func (c *AuthController) GoogleExchange(w http.ResponseWriter, r *http.Request) {
	var req model.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid request body", "error", err)
		helper.WriteError(w, helper.NewBadRequestError(""))
		return
	}

	resp, err := c.authService.GoogleExchange(r.Context(), req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// Me godoc
// @Summary      Current User
// @Tags         auth
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess{data=model.UserDTO}
// @Failure      401  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userContext, ok := currentUser(r)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	helper.WriteSuccess(w, userContext)
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the presented token.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      401  {object}  helper.ResponseError
// @Failure      503  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := r.Context().Value(middleware.TokenContextKey).(string)
	if !ok || tokenString == "" {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	if err := c.authService.SignOut(r.Context(), tokenString); err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, nil)
}
