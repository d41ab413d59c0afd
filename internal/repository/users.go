package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/db"
	"github.com/debemdeboas/spawnwrite/internal/model"
)

const userColumns = `id, email, handle, first_name, last_name, password_hash, created_at, updated_at`

type DBUserRepository struct { // implements UserRepository
	db  db.Db
	now func() time.Time
}

func NewDBUserRepository(database db.Db) *DBUserRepository {
	return &DBUserRepository{
		db:  database,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *DBUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = model.UserID(uuid.New().String())
	}
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now

	x := r.db.Get()
	_, err := x.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (:id, :email, :handle, :first_name, :last_name, :password_hash, :created_at, :updated_at)`,
		user)
	if err != nil {
		return db.Translate(err, "error creating user")
	}

	repoLogger.Info().Str("user_id", string(user.ID)).Msg("User created")
	return nil
}

func (r *DBUserRepository) getBy(ctx context.Context, column string, value interface{}) (*model.User, error) {
	var user model.User
	x := r.db.Get()
	err := x.GetContext(ctx, &user, x.Rebind(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if err != nil {
		return nil, db.Translate(err, "error reading user")
	}
	return &user, nil
}

func (r *DBUserRepository) GetByID(ctx context.Context, id model.UserID) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *DBUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *DBUserRepository) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	return r.getBy(ctx, "handle", handle)
}

func (r *DBUserRepository) UpdateHandle(ctx context.Context, id model.UserID, handle string) error {
	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`UPDATE users SET handle = ?, updated_at = ? WHERE id = ?`), handle, r.now(), id)
	if err != nil {
		return db.Translate(err, "error updating handle")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

func (r *DBUserRepository) UpdatePassword(ctx context.Context, id model.UserID, passwordHash string) error {
	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`), passwordHash, r.now(), id)
	if err != nil {
		return db.Translate(err, "error updating password")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", id)
	}

	repoLogger.Info().Str("user_id", string(id)).Msg("Password updated")
	return nil
}

func (r *DBUserRepository) Delete(ctx context.Context, id model.UserID) error {
	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return db.Translate(err, "error deleting user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", id)
	}

	repoLogger.Info().Str("user_id", string(id)).Msg("User deleted")
	return nil
}

func (r *DBUserRepository) CreateMagicLink(ctx context.Context, link *model.MagicLink) error {
	link.CreatedAt = r.now()
	link.UsedAt = nil
	if link.Purpose == "" {
		link.Purpose = model.LinkLogin
	}

	x := r.db.Get()
	_, err := x.NamedExecContext(ctx,
		`INSERT INTO magic_links (token_hash, user_id, purpose, expires_at, used_at, created_at) VALUES (:token_hash, :user_id, :purpose, :expires_at, :used_at, :created_at)`,
		link)
	return db.Translate(err, "error storing magic link")
}

func (r *DBUserRepository) ConsumeMagicLink(ctx context.Context, tokenHash, purpose string) (model.UserID, error) {
	x := r.db.Get()

	var link model.MagicLink
	err := x.GetContext(ctx, &link,
		x.Rebind(`SELECT token_hash, user_id, purpose, expires_at, used_at, created_at FROM magic_links WHERE token_hash = ? AND purpose = ?`),
		tokenHash, purpose)
	if err != nil {
		return "", db.Translate(err, "error reading magic link")
	}

	now := r.now()
	if !link.Valid(now) {
		return "", errors.Wrap(ErrNotFound, "magic link expired or used")
	}

	// used_at IS NULL makes two concurrent verifications race for a single winner.
	res, err := x.ExecContext(ctx,
		x.Rebind(`UPDATE magic_links SET used_at = ? WHERE token_hash = ? AND used_at IS NULL`), now, tokenHash)
	if err != nil {
		return "", db.Translate(err, "error consuming magic link")
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return "", errors.Wrap(ErrNotFound, "magic link already used")
	}

	return link.UserID, nil
}
