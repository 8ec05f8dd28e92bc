package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/api"
	"github.com/aerogenv/aero-club-api/auth"
	"github.com/aerogenv/aero-club-api/config"
)

// Auth exported for testing purposes
type Auth struct {
	Service *auth.Service
}

type signupInitiateRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type signupVerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type googleAuthRequest struct {
	AccessToken string `json:"access_token"`
}

type forgotPasswordVerifyRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SignupInitiateHandler stages a pending signup and emails a verification code
func (a Auth) SignupInitiateHandler(w http.ResponseWriter, r *http.Request) {
	var req signupInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Service.InitiateSignup(ctx, req.Email, req.Password, req.FullName); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "verification code sent to your email"})
}

// SignupVerifyHandler consumes the emailed code and promotes the pending
// signup into a verified account
func (a Auth) SignupVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req signupVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tokens, err := a.Service.VerifySignup(ctx, req.Email, req.OTP)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// ResendOTPHandler re-issues the signup verification code
func (a Auth) ResendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Service.ResendOTP(ctx, req.Email); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "verification code resent to your email"})
}

// LoginHandler exchanges email+password for a session token pair
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tokens, err := a.Service.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// RefreshHandler exchanges a refresh token for a new session token pair
func (a Auth) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tokens, err := a.Service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// GoogleAuthHandler signs a user in (or up) with a Google OAuth access token
func (a Auth) GoogleAuthHandler(w http.ResponseWriter, r *http.Request) {
	var req googleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tokens, err := a.Service.GoogleSignIn(ctx, req.AccessToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// MeHandler returns the authenticated user's profile
func (a Auth) MeHandler(w http.ResponseWriter, r *http.Request) {
	authUser, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, auth.ErrUnauthorized)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Service.UserByID(ctx, authUser.ID)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// LogoutHandler acknowledges a logout. Tokens are stateless so the client
// discards them; nothing is stored server side.
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if authUser, ok := api.UserFromContext(r.Context()); ok {
		zap.S().Debugw("user logged out", "email", authUser.Email)
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "logged out"})
}

// ForgotPasswordInitiateHandler emails a password reset code
func (a Auth) ForgotPasswordInitiateHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Service.InitiateForgotPassword(ctx, req.Email); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "password reset code sent to your email"})
}

// ForgotPasswordVerifyHandler consumes the reset code and sets a new password
func (a Auth) ForgotPasswordVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Service.VerifyForgotPassword(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "password updated successfully"})
}

// ForgotPasswordResendHandler re-issues the password reset code
func (a Auth) ForgotPasswordResendHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Service.InitiateForgotPassword(ctx, req.Email); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "password reset code resent to your email"})
}
