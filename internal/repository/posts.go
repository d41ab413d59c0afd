package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/cache"
	"github.com/debemdeboas/spawnwrite/internal/db"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/util"
	"github.com/debemdeboas/spawnwrite/internal/util/compression"
)

const postReadTTL = time.Minute

const postColumns = `id, user_id, title, content, content_hash, published, views, created_at, updated_at`

// postRow carries the compressed content column alongside the model fields.
type postRow struct {
	model.Post
	Compressed []byte `db:"content"`
}

type DBPostRepository struct { // implements PostRepository
	postsCache *cache.Cache[model.PostID, *model.Post]
	lists      ListCache

	changeNotifier func(model.PostID, model.UserID)

	db         db.Db
	compressor compression.Compressor

	now func() time.Time
}

func NewDBPostRepository(database db.Db, compressor compression.Compressor, lists ListCache) *DBPostRepository {
	if compressor == nil {
		compressor = compression.NoopCompressor{}
	}
	if lists == nil {
		lists = NewMemoryListCache(5 * time.Minute)
	}
	return &DBPostRepository{
		postsCache: cache.NewCache[model.PostID, *model.Post](),
		lists:      lists,

		db:         database,
		compressor: compressor,

		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *DBPostRepository) SetChangeNotifier(notifier func(model.PostID, model.UserID)) {
	r.changeNotifier = notifier
}

func (r *DBPostRepository) NewPost(owner model.UserID) *model.Post {
	now := r.now()

	return &model.Post{
		ID:    model.PostID(uuid.New().String()),
		Owner: owner,

		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *DBPostRepository) encode(post *model.Post) ([]byte, error) {
	compressed, err := r.compressor.Compress([]byte(post.Content))
	if err != nil {
		return nil, errors.Wrap(err, "error compressing content")
	}
	post.ContentHash = util.ContentHashString(post.Content)
	return compressed, nil
}

func (r *DBPostRepository) decode(row *postRow) (*model.Post, error) {
	post := row.Post
	content, err := r.compressor.Decompress(row.Compressed)
	if err != nil {
		return nil, errors.Wrapf(err, "error decompressing content of post %s", post.ID)
	}
	post.Content = string(content)
	return &post, nil
}

func (r *DBPostRepository) written(ctx context.Context, post *model.Post) {
	r.postsCache.Delete(post.ID)
	r.lists.Invalidate(ctx, post.Owner)
	if r.changeNotifier != nil {
		go r.changeNotifier(post.ID, post.Owner)
	}
}

func (r *DBPostRepository) Create(ctx context.Context, post *model.Post) error {
	if post.Owner == "" {
		return errors.New("post has no owner")
	}
	if post.ID == "" {
		post.ID = model.PostID(uuid.New().String())
	}
	now := r.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	compressed, err := r.encode(post)
	if err != nil {
		return err
	}

	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		post.ID, post.Owner, post.Title, compressed, post.ContentHash, post.Published, post.Views, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return db.Translate(err, "error saving post")
	}

	repoLogger.Debug().Interface("result", res).Str("post_id", string(post.ID)).Msg("Post created")
	r.written(ctx, post)
	return nil
}

func (r *DBPostRepository) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = r.now()

	compressed, err := r.encode(post)
	if err != nil {
		return err
	}

	x := r.db.Get()
	res, err := x.ExecContext(ctx,
		x.Rebind(`UPDATE posts SET title = ?, content = ?, content_hash = ?, published = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		post.Title, compressed, post.ContentHash, post.Published, post.UpdatedAt, post.ID, post.Owner,
	)
	if err != nil {
		return db.Translate(err, "error updating post")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(ErrNotFound, "post %s", post.ID)
	}

	repoLogger.Debug().Str("post_id", string(post.ID)).Msg("Post updated")
	r.written(ctx, post)
	return nil
}

func (r *DBPostRepository) Upsert(ctx context.Context, post *model.Post) error {
	if post.Owner == "" {
		return errors.New("post has no owner")
	}
	if post.ID == "" {
		post.ID = model.PostID(uuid.New().String())
	}
	now := r.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	compressed, err := r.encode(post)
	if err != nil {
		return err
	}

	// The WHERE clause turns a conflicting row owned by someone else into a no-op.
	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`
INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    title = excluded.title,
    content = excluded.content,
    content_hash = excluded.content_hash,
    published = excluded.published,
    updated_at = excluded.updated_at
WHERE posts.user_id = excluded.user_id`),
		post.ID, post.Owner, post.Title, compressed, post.ContentHash, post.Published, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return db.Translate(err, "error upserting post")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(ErrNotOwner, "post %s", post.ID)
	}

	// An update keeps the stored creation time and view count.
	var stored struct {
		CreatedAt time.Time `db:"created_at"`
		Views     int64     `db:"views"`
	}
	if err := x.GetContext(ctx, &stored, x.Rebind(`SELECT created_at, views FROM posts WHERE id = ?`), post.ID); err != nil {
		return db.Translate(err, "error reading upserted post")
	}
	post.CreatedAt, post.Views = stored.CreatedAt, stored.Views

	repoLogger.Debug().Str("post_id", string(post.ID)).Msg("Post upserted")
	r.written(ctx, post)
	return nil
}

func (r *DBPostRepository) Delete(ctx context.Context, id model.PostID, owner model.UserID) error {
	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`DELETE FROM posts WHERE id = ? AND user_id = ?`), id, owner)
	if err != nil {
		return db.Translate(err, "error deleting post")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(ErrNotFound, "post %s", id)
	}

	repoLogger.Info().Str("post_id", string(id)).Msg("Post deleted")
	r.written(ctx, &model.Post{ID: id, Owner: owner})
	return nil
}

func (r *DBPostRepository) Get(ctx context.Context, id model.PostID, owner model.UserID) (*model.Post, error) {
	if post, ok := r.postsCache.Get(id); ok && post.Owner == owner {
		cp := *post
		return &cp, nil
	}

	var row postRow
	x := r.db.Get()
	err := x.GetContext(ctx, &row, x.Rebind(`SELECT `+postColumns+` FROM posts WHERE id = ? AND user_id = ?`), id, owner)
	if err != nil {
		return nil, db.Translate(err, "error reading post")
	}

	post, err := r.decode(&row)
	if err != nil {
		return nil, err
	}

	cp := *post
	r.postsCache.SetWithTTL(id, &cp, postReadTTL)
	return post, nil
}

func (r *DBPostRepository) list(ctx context.Context, key, query string, args ...interface{}) ([]model.PostSummary, error) {
	if posts, ok := r.lists.Get(ctx, key); ok {
		return posts, nil
	}

	posts := make([]model.PostSummary, 0)
	x := r.db.Get()
	if err := x.SelectContext(ctx, &posts, x.Rebind(query), args...); err != nil {
		return nil, db.Translate(err, "error listing posts")
	}

	r.lists.Set(ctx, key, posts)
	return posts, nil
}

func (r *DBPostRepository) ListByOwner(ctx context.Context, owner model.UserID) ([]model.PostSummary, error) {
	return r.list(ctx, ownerListKey(owner),
		`SELECT id, user_id, title, published, views, created_at, updated_at FROM posts WHERE user_id = ? ORDER BY created_at DESC`,
		owner)
}

func (r *DBPostRepository) ListPublishedByOwner(ctx context.Context, owner model.UserID) ([]model.PostSummary, error) {
	return r.list(ctx, publishedListKey(owner),
		`SELECT id, user_id, title, published, views, created_at, updated_at FROM posts WHERE user_id = ? AND published = ? ORDER BY created_at DESC`,
		owner, true)
}

func (r *DBPostRepository) GetPublished(ctx context.Context, id model.PostID) (*model.Post, error) {
	x := r.db.Get()
	res, err := x.ExecContext(ctx, x.Rebind(`UPDATE posts SET views = views + 1 WHERE id = ? AND published = ?`), id, true)
	if err != nil {
		return nil, db.Translate(err, "error counting view")
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return nil, errors.Wrapf(ErrNotFound, "published post %s", id)
	}

	var row postRow
	if err := x.GetContext(ctx, &row, x.Rebind(`SELECT `+postColumns+` FROM posts WHERE id = ?`), id); err != nil {
		return nil, db.Translate(err, "error reading post")
	}

	// The owner's cached copies carry the old count.
	r.postsCache.Delete(id)
	r.lists.Invalidate(ctx, row.Owner)
	return r.decode(&row)
}

