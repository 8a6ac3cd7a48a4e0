// Package storage defines the persistence interface for the scribe content
// API and its sentinel errors. Implementations live in the memory and
// postgres subpackages.
package storage

import (
	"context"

	"github.com/scribeapp/scribe/pkg/api"
)

// UserStore persists account records. Username and email are unique;
// violating either returns ErrConflict.
type UserStore interface {
	CreateUser(ctx context.Context, u *api.User) (*api.User, error)
	GetUserByID(ctx context.Context, id int64) (*api.User, error)
	GetUserByUsername(ctx context.Context, username string) (*api.User, error)
	UpdateUser(ctx context.Context, u *api.User) (*api.User, error)

	// DeleteUser removes the user and cascades to their posts and comments.
	DeleteUser(ctx context.Context, id int64) error
}

// PostStore persists posts.
type PostStore interface {
	CreatePost(ctx context.Context, p *api.Post) (*api.Post, error)
	GetPost(ctx context.Context, id int64) (*api.Post, error)
	ListPosts(ctx context.Context) ([]*api.Post, error)
	ListPostsByOwner(ctx context.Context, ownerID int64) ([]*api.Post, error)
	UpdatePost(ctx context.Context, p *api.Post) (*api.Post, error)

	// DeletePost removes the post and cascades to its comments.
	DeletePost(ctx context.Context, id int64) error
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c *api.Comment) (*api.Comment, error)
	GetComment(ctx context.Context, id int64) (*api.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]*api.Comment, error)
	UpdateComment(ctx context.Context, c *api.Comment) (*api.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// Store combines the per-entity stores with lifecycle operations.
type Store interface {
	UserStore
	PostStore
	CommentStore

	// Ping verifies the backend is reachable. Used by the health endpoint.
	Ping(ctx context.Context) error

	Close()
}
