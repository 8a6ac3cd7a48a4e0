// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and applies embedded SQL migrations
// at startup.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const userColumns = "id, username, email, password_hash, active, created_at, updated_at"

// CreateUser inserts a user record. Returns storage.ErrConflict if the
// username or email is already taken.
func (s *Store) CreateUser(ctx context.Context, u *api.User) (*api.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.Active,
	)

	out, err := scanUser(row)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return out, nil
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*api.User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return userOrNotFound(scanUser(row))
}

// GetUserByUsername retrieves a user by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*api.User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return userOrNotFound(scanUser(row))
}

// UpdateUser replaces the user's mutable fields and bumps updated_at.
func (s *Store) UpdateUser(ctx context.Context, u *api.User) (*api.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Active,
	)

	out, err := scanUser(row)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, storage.ErrConflict
		}
	}
	return userOrNotFound(out, err)
}

// DeleteUser removes a user. Posts and comments cascade via foreign keys.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const postColumns = "id, title, description, owner_id, created_at, updated_at"

// CreatePost inserts a post record.
func (s *Store) CreatePost(ctx context.Context, p *api.Post) (*api.Post, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO posts (title, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING `+postColumns,
		p.Title, p.Description, p.OwnerID,
	)

	out, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return out, nil
}

// GetPost retrieves a post by primary key.
func (s *Store) GetPost(ctx context.Context, id int64) (*api.Post, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
	return postOrNotFound(scanPost(row))
}

// ListPosts returns all posts ordered by ID.
func (s *Store) ListPosts(ctx context.Context) ([]*api.Post, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+postColumns+" FROM posts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return collectPosts(rows)
}

// ListPostsByOwner returns the posts owned by one user, ordered by ID.
func (s *Store) ListPostsByOwner(ctx context.Context, ownerID int64) ([]*api.Post, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+postColumns+" FROM posts WHERE owner_id = $1 ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing posts by owner: %w", err)
	}
	return collectPosts(rows)
}

// UpdatePost replaces the post's mutable fields and bumps updated_at.
func (s *Store) UpdatePost(ctx context.Context, p *api.Post) (*api.Post, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE posts
		SET title = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+postColumns,
		p.ID, p.Title, p.Description,
	)
	return postOrNotFound(scanPost(row))
}

// DeletePost removes a post. Comments cascade via foreign keys.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const commentColumns = "id, body, post_id, owner_id, created_at, updated_at"

// CreateComment inserts a comment record.
func (s *Store) CreateComment(ctx context.Context, c *api.Comment) (*api.Comment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO comments (body, post_id, owner_id)
		VALUES ($1, $2, $3)
		RETURNING `+commentColumns,
		c.Body, c.PostID, c.OwnerID,
	)

	out, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}
	return out, nil
}

// GetComment retrieves a comment by primary key.
func (s *Store) GetComment(ctx context.Context, id int64) (*api.Comment, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id)
	return commentOrNotFound(scanComment(row))
}

// ListCommentsByPost returns the comments on one post, ordered by ID.
func (s *Store) ListCommentsByPost(ctx context.Context, postID int64) ([]*api.Comment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE post_id = $1 ORDER BY id", postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var out []*api.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateComment replaces the comment's body and bumps updated_at.
func (s *Store) UpdateComment(ctx context.Context, c *api.Comment) (*api.Comment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE comments
		SET body = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+commentColumns,
		c.ID, c.Body,
	)
	return commentOrNotFound(scanComment(row))
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func scanUser(row pgx.Row) (*api.User, error) {
	var u api.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Active,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanPost(row pgx.Row) (*api.Post, error) {
	var p api.Post
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanComment(row pgx.Row) (*api.Comment, error) {
	var c api.Comment
	err := row.Scan(&c.ID, &c.Body, &c.PostID, &c.OwnerID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectPosts(rows pgx.Rows) ([]*api.Post, error) {
	defer rows.Close()

	var out []*api.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func userOrNotFound(u *api.User, err error) (*api.User, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return u, err
}

func postOrNotFound(p *api.Post, err error) (*api.Post, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return p, err
}

func commentOrNotFound(c *api.Comment, err error) (*api.Comment, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return c, err
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
