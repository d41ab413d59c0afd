package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
)

const minSecretLen = 32

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevoked      = errors.New("session has been signed out")
	ErrWeakSecret   = errors.New("auth secret must be at least 32 bytes")
)

type Claims struct {
	jwt.RegisteredClaims
}

// LocalProvider issues and verifies its own JWT sessions, signed HS256 with a
// shared secret or EdDSA with an ed25519 key pair.
type LocalProvider struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	ttl       time.Duration
	revoker   Revoker

	now func() time.Time
}

func NewLocalProvider(cfg config.AuthConfig, revoker Revoker) (*LocalProvider, error) {
	p := &LocalProvider{
		ttl:     cfg.SessionTTL,
		revoker: revoker,
		now:     time.Now,
	}

	switch strings.ToUpper(cfg.SigningMethod) {
	case "", "HS256":
		if len(cfg.Secret) < minSecretLen {
			return nil, ErrWeakSecret
		}
		p.method = jwt.SigningMethodHS256
		p.signKey = []byte(cfg.Secret)
		p.verifyKey = []byte(cfg.Secret)
	case "EDDSA", "ED25519":
		priv, err := ParseEd25519PrivateKey(cfg.PrivateKeyPEM)
		if err != nil {
			return nil, err
		}
		pub, err := ParseEd25519PublicKey(cfg.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		p.method = jwt.SigningMethodEdDSA
		p.signKey = priv
		p.verifyKey = pub
	default:
		return nil, errors.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	if p.ttl <= 0 {
		p.ttl = 24 * time.Hour
	}
	return p, nil
}

// IssueToken returns a signed session token for user and its expiry.
func (p *LocalProvider) IssueToken(user model.UserID) (string, time.Time, error) {
	now := p.now()
	expires := now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   string(user),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(p.method, claims).SignedString(p.signKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "error signing session token")
	}
	return token, expires, nil
}

func (p *LocalProvider) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.verifyKey, nil
	},
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate verifies tokenString and checks it has not been revoked.
func (p *LocalProvider) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if p.revoker != nil {
		revoked, err := p.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, errors.Wrap(err, "error checking revocation")
		}
		if revoked {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}

// Revoke signs the token out until it would have expired.
func (p *LocalProvider) Revoke(ctx context.Context, tokenString string) error {
	claims, err := p.parse(tokenString)
	if err != nil {
		return err
	}
	if p.revoker == nil {
		return nil
	}
	return p.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(config.HAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(config.CookieSession); err == nil {
		return cookie.Value
	}
	return ""
}

func (p *LocalProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := p.Authenticate(r.Context(), token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithUserID(r.Context(), model.UserID(claims.Subject))
			ctx = ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (p *LocalProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	return userFromContext(r)
}

func (p *LocalProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(p, w, r)
}

// HandleWebhookUser is a no-op for this provider
func (p *LocalProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// SessionCookie carries token to browsers.
func SessionCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     config.CookieSession,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredSessionCookie(secure bool) *http.Cookie {
	c := SessionCookie("", time.Unix(0, 0), secure)
	c.MaxAge = -1
	return c
}
