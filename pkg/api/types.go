package api

import "time"

// User is the stored account record. The password hash never leaves the
// server; it is excluded from all JSON output.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Post is an authored entry owned by a single user.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is a reply attached to a post. Ownership is the comment
// author's, independent of the parent post's owner.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	PostID    int64     `json:"post_id"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserUpdateRequest carries a partial profile update. Nil fields are
// left unchanged.
type UserUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// PostRequest creates a new post.
type PostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PostUpdateRequest carries a partial post update.
type PostUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CommentRequest creates a new comment on a post.
type CommentRequest struct {
	Body string `json:"body"`
}

// CommentUpdateRequest carries a partial comment update.
type CommentUpdateRequest struct {
	Body *string `json:"body"`
}

// PostView is a post joined with its owner for list and detail responses.
type PostView struct {
	Post
	Owner UserRef `json:"owner"`
}

// CommentView is a comment joined with its author.
type CommentView struct {
	Comment
	Owner UserRef `json:"owner"`
}

// UserRef is the public subset of a user embedded in other resources.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Ref returns the public reference for a user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Email: u.Email}
}
