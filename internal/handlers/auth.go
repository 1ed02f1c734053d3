package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/winter-backend/internal/apperror"
	"github.com/AnshRaj112/winter-backend/internal/middleware"
	"github.com/AnshRaj112/winter-backend/internal/services"
)

// AuthHandler exposes the identity pipeline over HTTP. Validation happens
// here; everything stateful lives in the auth service.
type AuthHandler struct {
	service *services.AuthService
	session *middleware.Session
}

func NewAuthHandler(service *services.AuthService, session *middleware.Session) *AuthHandler {
	return &AuthHandler{service: service, session: session}
}

// CurrentUserResponse is the body of GET /auth/currentuser.
type CurrentUserResponse struct {
	IsUser bool        `json:"isUser"`
	Token  string      `json:"token,omitempty"`
	User   interface{} `json:"user"`
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.BadRequest("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.SignUp(r.Context(), services.SignUpModel{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		AvatarColor: req.AvatarColor,
		AvatarImage: req.AvatarImage,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.session.SetToken(w, result.Token)
	writeSuccess(w, http.StatusCreated, "User created successfully", result)
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.BadRequest("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.SignIn(r.Context(), services.SignInModel{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.session.SetToken(w, result.Token)
	writeSuccess(w, http.StatusOK, "User signed in successfully", result)
}

// SignOut handles GET /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.Clear(w)
	writeSuccess(w, http.StatusOK, "User signed out successfully", struct{}{})
}

// ForgotPassword handles POST /auth/forgot-password. The reset token itself
// leaves only via email.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.BadRequest("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if _, err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password reset email sent", struct{}{})
}

// ResetPassword handles POST /auth/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	resetToken := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.BadRequest("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), resetToken, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password successfully updated", struct{}{})
}

// CurrentUser handles GET /auth/currentuser. Answers from the cache when it
// can; a profile missing from both cache and database reads as isUser=false
// rather than an error, since the session itself verified.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	payload := middleware.CurrentUserFrom(r.Context())

	user, err := h.service.CurrentUser(r.Context(), payload)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.StatusCode == http.StatusNotFound {
			writeJSON(w, http.StatusOK, CurrentUserResponse{IsUser: false, User: nil})
			return
		}
		writeError(w, err)
		return
	}

	sessionToken, _ := h.session.ReadToken(r)
	writeJSON(w, http.StatusOK, CurrentUserResponse{
		IsUser: true,
		Token:  sessionToken,
		User:   user,
	})
}
