// Package auth resolves the authenticated user of a request and manages
// local accounts: sign-up, password and magic-link sign-in, sign-out and handles.
package auth

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/respond"
)

var ErrNoSession = errors.New("no user in session")

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

type Provider interface {
	// WithHeaderAuthorization puts the user of a valid session into the request context.
	// Requests without one pass through unchanged.
	WithHeaderAuthorization() func(http.Handler) http.Handler

	GetUserIDFromSession(r *http.Request) (model.UserID, error)

	// EnforceUserAndGetID answers 401 when there is no user.
	EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error)

	HandleWebhookUser(w http.ResponseWriter, r *http.Request)
}

func userFromContext(r *http.Request) (model.UserID, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok || userID == "" {
		return "", ErrNoSession
	}
	return userID, nil
}

func enforce(p Provider, w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	userID, err := p.GetUserIDFromSession(r)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Unauthorized access attempt")
		respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{Error: config.ErrUnauthorized})
		return "", err
	}
	return userID, nil
}

// RequireUser rejects requests without an authenticated user.
func RequireUser(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := p.EnforceUserAndGetID(w, r); err != nil {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
