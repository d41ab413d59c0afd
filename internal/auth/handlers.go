package auth

import (
	"errors"
	"net/http"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/respond"
)

const (
	msgEmailTaken       = "This email is already registered. Please log in instead."
	msgInvalidLogin     = "Invalid email or password"
	msgNotRegistered    = "This email is not registered. Please sign up first."
	msgInvalidLink      = "This link is invalid or has expired"
	msgHandleTaken      = "This handle is already taken"
	msgCheckEmail       = "Check your email for the login link!"
	msgCheckResetEmail  = "If this email is registered, a password reset link is on its way."
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type handleRequest struct {
	Handle string `json:"handle"`
}

// Handlers serves the account endpoints.
type Handlers struct {
	svc           *Service
	provider      Provider
	secureCookies bool
}

func NewHandlers(svc *Service, provider Provider, secureCookies bool) *Handlers {
	return &Handlers{svc: svc, provider: provider, secureCookies: secureCookies}
}

// writeAuthError maps service errors to status codes.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Invalid(w, "Invalid input", verr.Fields)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(w, r, http.StatusConflict, msgEmailTaken, err)
	case errors.Is(err, ErrHandleTaken):
		respond.Error(w, r, http.StatusConflict, msgHandleTaken, err)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(w, r, http.StatusUnauthorized, msgInvalidLogin, err)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrRevoked):
		respond.Error(w, r, http.StatusUnauthorized, msgInvalidLink, err)
	case errors.Is(err, ErrNotRegistered):
		respond.Error(w, r, http.StatusNotFound, msgNotRegistered, err)
	default:
		respond.Error(w, r, http.StatusInternalServerError, config.ErrInternalServerError, err)
	}
}

func (h *Handlers) startSession(w http.ResponseWriter, status int, s *Session) {
	http.SetCookie(w, SessionCookie(s.Token, s.ExpiresAt, h.secureCookies))
	respond.JSON(w, status, s)
}

func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	session, err := h.svc.SignUp(r.Context(), req.Email, req.Password, Profile{FirstName: req.FirstName, LastName: req.LastName})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	h.startSession(w, http.StatusCreated, session)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	session, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

func (h *Handlers) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	if err := h.svc.RequestMagicLink(r.Context(), req.Email); err != nil {
		writeAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]string{"message": msgCheckEmail})
}

func (h *Handlers) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.VerifyMagicLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]string{"message": msgCheckResetEmail})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	session, err := h.svc.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := TokenFromContext(r.Context())
	if !ok {
		token = TokenFromRequest(r)
	}
	if token != "" {
		if err := h.svc.SignOut(r.Context(), token); err != nil && !errors.Is(err, ErrInvalidToken) {
			respond.Error(w, r, http.StatusInternalServerError, config.ErrInternalServerError, err)
			return
		}
	}

	http.SetCookie(w, expiredSessionCookie(h.secureCookies))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := h.provider.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, http.StatusNotFound, "User not found", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *Handlers) UpdateHandle(w http.ResponseWriter, r *http.Request) {
	userID, err := h.provider.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var req handleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	user, err := h.svc.UpdateHandle(r.Context(), userID, req.Handle)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}
