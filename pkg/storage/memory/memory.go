// Package memory provides an in-memory implementation of storage.Store for
// testing and lightweight deployments. Records are lost when the process
// restarts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/storage"
)

// Store is an in-memory storage.Store guarded by a single RWMutex.
type Store struct {
	mu sync.RWMutex

	users    map[int64]*api.User
	posts    map[int64]*api.Post
	comments map[int64]*api.Comment

	// Unique indexes for users.
	byUsername map[string]int64
	byEmail    map[string]int64

	nextUserID    int64
	nextPostID    int64
	nextCommentID int64

	now func() time.Time
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[int64]*api.User),
		posts:      make(map[int64]*api.Post),
		comments:   make(map[int64]*api.Comment),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser inserts a user, assigning its ID and timestamps.
// Returns storage.ErrConflict if the username or email is taken.
func (s *Store) CreateUser(_ context.Context, u *api.User) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[u.Username]; taken {
		return nil, storage.ErrConflict
	}
	if _, taken := s.byEmail[u.Email]; taken {
		return nil, storage.ErrConflict
	}

	s.nextUserID++
	now := s.now()

	stored := *u
	stored.ID = s.nextUserID
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.users[stored.ID] = &stored
	s.byUsername[stored.Username] = stored.ID
	s.byEmail[stored.Email] = stored.ID

	out := stored
	return &out, nil
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(_ context.Context, id int64) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *u
	return &out, nil
}

// GetUserByUsername retrieves a user by its unique username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// UpdateUser replaces the stored user's mutable fields and bumps UpdatedAt.
func (s *Store) UpdateUser(_ context.Context, u *api.User) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	if u.Username != cur.Username {
		if _, taken := s.byUsername[u.Username]; taken {
			return nil, storage.ErrConflict
		}
		delete(s.byUsername, cur.Username)
		s.byUsername[u.Username] = u.ID
	}
	if u.Email != cur.Email {
		if _, taken := s.byEmail[u.Email]; taken {
			return nil, storage.ErrConflict
		}
		delete(s.byEmail, cur.Email)
		s.byEmail[u.Email] = u.ID
	}

	stored := *u
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = s.now()
	s.users[u.ID] = &stored

	out := stored
	return &out, nil
}

// DeleteUser removes the user and cascades to their posts and comments.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(s.byUsername, u.Username)
	delete(s.byEmail, u.Email)
	delete(s.users, id)

	for pid, p := range s.posts {
		if p.OwnerID == id {
			s.deletePostLocked(pid)
		}
	}
	for cid, c := range s.comments {
		if c.OwnerID == id {
			delete(s.comments, cid)
		}
	}

	return nil
}

// CreatePost inserts a post, assigning its ID and timestamps.
func (s *Store) CreatePost(_ context.Context, p *api.Post) (*api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	now := s.now()

	stored := *p
	stored.ID = s.nextPostID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.posts[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetPost retrieves a post by primary key.
func (s *Store) GetPost(_ context.Context, id int64) (*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *p
	return &out, nil
}

// ListPosts returns all posts ordered by ID.
func (s *Store) ListPosts(_ context.Context) ([]*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectPosts(func(*api.Post) bool { return true }), nil
}

// ListPostsByOwner returns the posts owned by one user, ordered by ID.
func (s *Store) ListPostsByOwner(_ context.Context, ownerID int64) ([]*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectPosts(func(p *api.Post) bool { return p.OwnerID == ownerID }), nil
}

// UpdatePost replaces the stored post's mutable fields and bumps UpdatedAt.
func (s *Store) UpdatePost(_ context.Context, p *api.Post) (*api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[p.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	stored := *p
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = s.now()
	s.posts[p.ID] = &stored

	out := stored
	return &out, nil
}

// DeletePost removes the post and cascades to its comments.
func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	s.deletePostLocked(id)
	return nil
}

// CreateComment inserts a comment, assigning its ID and timestamps.
func (s *Store) CreateComment(_ context.Context, c *api.Comment) (*api.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCommentID++
	now := s.now()

	stored := *c
	stored.ID = s.nextCommentID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.comments[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetComment retrieves a comment by primary key.
func (s *Store) GetComment(_ context.Context, id int64) (*api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

// ListCommentsByPost returns the comments on one post, ordered by ID.
func (s *Store) ListCommentsByPost(_ context.Context, postID int64) ([]*api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*api.Comment
	var maxID int64
	for _, c := range s.comments {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	for id := int64(1); id <= maxID; id++ {
		if c, ok := s.comments[id]; ok && c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateComment replaces the stored comment's body and bumps UpdatedAt.
func (s *Store) UpdateComment(_ context.Context, c *api.Comment) (*api.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.comments[c.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	stored := *c
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = s.now()
	s.comments[c.ID] = &stored

	out := stored
	return &out, nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}

// deletePostLocked removes a post and its comments. Caller holds the lock.
func (s *Store) deletePostLocked(id int64) {
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
}

// collectPosts returns copies of matching posts in ID order. Caller holds
// at least the read lock.
func (s *Store) collectPosts(match func(*api.Post) bool) []*api.Post {
	var maxID int64
	for _, p := range s.posts {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	var out []*api.Post
	for id := int64(1); id <= maxID; id++ {
		if p, ok := s.posts[id]; ok && match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}
