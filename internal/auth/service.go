package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	"github.com/debemdeboas/spawnwrite/internal/util"
)

var (
	ErrEmailTaken         = errors.New("this email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotRegistered      = errors.New("no account for this email")
	ErrHandleTaken        = errors.New("handle is already taken")
)

const (
	magicTokenBytes   = 32
	handleRetries     = 3
	magicLinkVerify   = "/auth/magic-link/verify"
	passwordResetPage = "/auth/reset-password"
	defaultMagicTTL   = 15 * time.Minute
	defaultBcryptCost = bcrypt.DefaultCost
)

// Profile is the personal information captured at sign-up.
type Profile struct {
	FirstName string
	LastName  string
}

// Session is what a successful sign-in returns.
type Session struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type Service struct {
	users     repository.UserRepository
	sessions  *LocalProvider
	mailer    Mailer
	validator *Validator

	publicURL  string
	magicTTL   time.Duration
	bcryptCost int

	now func() time.Time
}

func NewService(users repository.UserRepository, sessions *LocalProvider, mailer Mailer, cfg config.AuthConfig, publicURL string) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	s := &Service{
		users:      users,
		sessions:   sessions,
		mailer:     mailer,
		validator:  NewValidator(cfg.CommonPasswords),
		publicURL:  strings.TrimSuffix(publicURL, "/"),
		magicTTL:   cfg.MagicLinkTTL,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
	if s.magicTTL <= 0 {
		s.magicTTL = defaultMagicTTL
	}
	if s.bcryptCost < bcrypt.MinCost || s.bcryptCost > bcrypt.MaxCost {
		s.bcryptCost = defaultBcryptCost
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) issue(user *model.User) (*Session, error) {
	token, expires, err := s.sessions.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// SignUp registers a new account with a default handle and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string, profile Profile) (*Session, error) {
	email = normalizeEmail(email)
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	if err := s.validator.SignUp(email, password, profile); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "error hashing password")
	}

	for attempt := 0; ; attempt++ {
		handle, err := DefaultHandle()
		if err != nil {
			return nil, err
		}
		user := &model.User{
			Email:        email,
			Handle:       handle,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			PasswordHash: string(hash),
		}

		err = s.users.Create(ctx, user)
		if err == nil {
			authLogger.Info().Str("user_id", string(user.ID)).Msg("User signed up")
			return s.issue(user)
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		// Duplicate email from a concurrent sign-up, or a handle collision worth retrying.
		if _, lookupErr := s.users.GetByEmail(ctx, email); lookupErr == nil {
			return nil, ErrEmailTaken
		}
		if attempt >= handleRetries {
			return nil, err
		}
	}
}

// SignIn checks a password and returns a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// issueLink stores a one-time token for user and returns the link that carries it.
func (s *Service) issueLink(ctx context.Context, user *model.User, purpose, path string) (string, error) {
	token, err := util.RandomToken(magicTokenBytes)
	if err != nil {
		return "", errors.Wrap(err, "error generating link token")
	}

	err = s.users.CreateMagicLink(ctx, &model.MagicLink{
		TokenHash: util.ContentHashString(token),
		UserID:    user.ID,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.magicTTL).UTC(),
	})
	if err != nil {
		return "", err
	}
	return s.publicURL + path + "?token=" + url.QueryEscape(token), nil
}

// consumeLink redeems a token issued for purpose and returns its user.
func (s *Service) consumeLink(ctx context.Context, token, purpose string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	userID, err := s.users.ConsumeMagicLink(ctx, util.ContentHashString(token), purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// RequestMagicLink mails a one-time sign-in link to a registered email.
func (s *Service) RequestMagicLink(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validator.Email(email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRegistered
		}
		return err
	}

	link, err := s.issueLink(ctx, user, model.LinkLogin, magicLinkVerify)
	if err != nil {
		return err
	}
	return s.mailer.SendMagicLink(ctx, email, link)
}

// VerifyMagicLink consumes a magic link token and returns a session.
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (*Session, error) {
	user, err := s.consumeLink(ctx, token, model.LinkLogin)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// RequestPasswordReset mails a password reset link. Unknown emails are
// accepted silently so the endpoint does not reveal who has an account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validator.Email(email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			authLogger.Debug().Str("email", email).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	link, err := s.issueLink(ctx, user, model.LinkPasswordReset, passwordResetPage)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, email, link)
}

// ResetPassword sets a new password using a reset token and signs the user in.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	if err := s.validator.Password(password); err != nil {
		return nil, err
	}

	user, err := s.consumeLink(ctx, token, model.LinkPasswordReset)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "error hashing password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}

	authLogger.Info().Str("user_id", string(user.ID)).Msg("Password reset")
	return s.issue(user)
}

// SignOut revokes a session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

func (s *Service) Me(ctx context.Context, user model.UserID) (*model.User, error) {
	return s.users.GetByID(ctx, user)
}

// UpdateHandle changes the handle shown on the user's public page.
func (s *Service) UpdateHandle(ctx context.Context, user model.UserID, handle string) (*model.User, error) {
	handle = strings.TrimSpace(handle)
	if err := s.validator.Handle(handle); err != nil {
		return nil, err
	}

	if err := s.users.UpdateHandle(ctx, user, handle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrHandleTaken
		}
		return nil, err
	}
	return s.users.GetByID(ctx, user)
}
