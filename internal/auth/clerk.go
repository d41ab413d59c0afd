package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	"github.com/debemdeboas/spawnwrite/internal/respond"
	"github.com/debemdeboas/spawnwrite/internal/util"
)

// ClerkAuthProvider trusts Clerk sessions and mirrors Clerk users into the users table.
type ClerkAuthProvider struct {
	users repository.UserRepository

	cookieExtractor clerkhttp.AuthorizationOption
}

func NewClerkAuthProvider(clerkKey string, users repository.UserRepository) *ClerkAuthProvider {
	clerk.SetKey(clerkKey)

	return &ClerkAuthProvider{
		users: users,
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			if token := TokenFromRequest(r); token != "" {
				return token
			}
			cookie, err := r.Cookie("__session")
			if err != nil || cookie == nil {
				return ""
			}
			return cookie.Value
		}),
	}
}

func (c *ClerkAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	clerkMiddleware := clerkhttp.WithHeaderAuthorization(c.cookieExtractor)
	return func(next http.Handler) http.Handler {
		withUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := clerk.SessionClaimsFromContext(r.Context()); ok {
				r = r.WithContext(ContextWithUserID(r.Context(), model.UserID(claims.Subject)))
			}
			next.ServeHTTP(w, r)
		})
		return clerkMiddleware(withUser)
	}
}

func (c *ClerkAuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	if userID, err := userFromContext(r); err == nil {
		return userID, nil
	}
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok {
		return "", errors.Wrap(ErrNoSession, "failed to get session claims from context")
	}
	return model.UserID(claims.Subject), nil
}

func (c *ClerkAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(c, w, r)
}

type clerkEvent struct {
	Data struct {
		clerk.User
	} `json:"data"`

	Type string `json:"type"`
}

func primaryEmail(usr *clerk.User) string {
	for _, addr := range usr.EmailAddresses {
		if addr == nil {
			continue
		}
		if usr.PrimaryEmailAddressID != nil && addr.ID == *usr.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(usr.EmailAddresses) > 0 && usr.EmailAddresses[0] != nil {
		return usr.EmailAddresses[0].EmailAddress
	}
	return ""
}

// HandleWebhookUser mirrors user.created and user.deleted events.
func (c *ClerkAuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	var payload clerkEvent
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Bad request", err)
		return
	}
	usr := payload.Data.User

	switch payload.Type {
	case "user.created":
		email := primaryEmail(&usr)
		if email == "" {
			respond.Error(w, r, http.StatusBadRequest, "No email address found", nil)
			return
		}

		handle, err := DefaultHandle()
		if err != nil {
			respond.Error(w, r, http.StatusInternalServerError, "Error saving user", err)
			return
		}
		if usr.Username != nil && handlePattern.MatchString(*usr.Username) {
			handle = strings.ToLower(*usr.Username)
		}

		err = c.users.Create(r.Context(), &model.User{
			ID:        model.UserID(usr.ID),
			Email:     email,
			Handle:    handle,
			FirstName: valueOrEmpty(usr.FirstName),
			LastName:  valueOrEmpty(usr.LastName),
		})
		if err != nil && !errors.Is(err, repository.ErrDuplicate) {
			respond.Error(w, r, http.StatusInternalServerError, "Error saving user", err)
			return
		}

		l.Info().Str("user_id", usr.ID).Msg("User created")
		w.WriteHeader(http.StatusCreated)
	case "user.updated":
		w.WriteHeader(http.StatusNoContent)
	case "user.deleted":
		err := c.users.Delete(r.Context(), model.UserID(usr.ID))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			respond.Error(w, r, http.StatusInternalServerError, "Error deleting user", err)
			return
		}

		l.Info().Str("user_id", usr.ID).Msg("User deleted")
		w.WriteHeader(http.StatusNoContent)
	default:
		respond.Error(w, r, http.StatusBadRequest, "Invalid event type", nil)
	}
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DefaultHandle returns user_ followed by six random lowercase alphanumerics.
func DefaultHandle() (string, error) {
	suffix, err := util.RandomString(6, util.LowerAlphanumeric)
	if err != nil {
		return "", err
	}
	return "user_" + suffix, nil
}
