package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/storage"
)

func newUser(username, email string) *api.User {
	return &api.User{
		Username:     username,
		Email:        email,
		PasswordHash: "digest",
		Active:       true,
	}
}

func mustCreateUser(t *testing.T, s *Store, username, email string) *api.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), newUser(username, email))
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func mustCreatePost(t *testing.T, s *Store, ownerID int64, title string) *api.Post {
	t.Helper()
	p, err := s.CreatePost(context.Background(), &api.Post{
		Title:       title,
		Description: "body of " + title,
		OwnerID:     ownerID,
	})
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", title, err)
	}
	return p
}

func mustCreateComment(t *testing.T, s *Store, postID, ownerID int64, body string) *api.Comment {
	t.Helper()
	c, err := s.CreateComment(context.Background(), &api.Comment{
		Body:    body,
		PostID:  postID,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	return c
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	created := mustCreateUser(t, s, "alice", "alice@example.com")
	if created.ID == 0 {
		t.Fatal("CreateUser did not assign an ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("CreateUser did not set timestamps")
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("Username = %q, want alice", byID.Username)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("lookup by username returned ID %d, want %d", byName.ID, created.ID)
	}

	byID.Email = "new@example.com"
	updated, err := s.UpdateUser(ctx, byID)
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Email != "new@example.com" {
		t.Errorf("Email = %q after update", updated.Email)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Error("UpdateUser changed CreatedAt")
	}

	if err := s.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUserByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestCreateUser_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()
	mustCreateUser(t, s, "alice", "alice@example.com")

	if _, err := s.CreateUser(ctx, newUser("alice", "other@example.com")); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate username: err = %v, want ErrConflict", err)
	}
	if _, err := s.CreateUser(ctx, newUser("bob", "alice@example.com")); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate email: err = %v, want ErrConflict", err)
	}
}

func TestUpdateUser_ConflictAndIndexMaintenance(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustCreateUser(t, s, "alice", "alice@example.com")
	mustCreateUser(t, s, "bob", "bob@example.com")

	// Renaming onto a taken username fails.
	alice.Username = "bob"
	if _, err := s.UpdateUser(ctx, alice); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("rename onto taken username: err = %v, want ErrConflict", err)
	}

	// A successful rename frees the old username.
	alice.Username = "alicia"
	if _, err := s.UpdateUser(ctx, alice); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if _, err := s.GetUserByUsername(ctx, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("old username still resolves: err = %v", err)
	}
	if _, err := s.CreateUser(ctx, newUser("alice", "second@example.com")); err != nil {
		t.Fatalf("freed username not reusable: %v", err)
	}
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustCreateUser(t, s, "alice", "alice@example.com")
	bob := mustCreateUser(t, s, "bob", "bob@example.com")

	p1 := mustCreatePost(t, s, alice.ID, "first")
	p2 := mustCreatePost(t, s, bob.ID, "second")
	mustCreatePost(t, s, alice.ID, "third")

	all, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListPosts returned %d posts, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatal("ListPosts not ordered by ID")
		}
	}

	mine, err := s.ListPostsByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListPostsByOwner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ListPostsByOwner returned %d posts, want 2", len(mine))
	}
	for _, p := range mine {
		if p.OwnerID != alice.ID {
			t.Fatalf("post %d has owner %d, want %d", p.ID, p.OwnerID, alice.ID)
		}
	}

	p1.Title = "renamed"
	updated, err := s.UpdatePost(ctx, p1)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("Title = %q after update", updated.Title)
	}

	if err := s.DeletePost(ctx, p2.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := s.GetPost(ctx, p2.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestCommentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustCreateUser(t, s, "alice", "alice@example.com")
	post := mustCreatePost(t, s, alice.ID, "post")

	c1 := mustCreateComment(t, s, post.ID, alice.ID, "one")
	mustCreateComment(t, s, post.ID, alice.ID, "two")

	list, err := s.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListCommentsByPost: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d comments, want 2", len(list))
	}
	if list[0].Body != "one" || list[1].Body != "two" {
		t.Fatal("comments not in insertion order")
	}

	c1.Body = "edited"
	updated, err := s.UpdateComment(ctx, c1)
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if updated.Body != "edited" {
		t.Errorf("Body = %q after update", updated.Body)
	}

	if err := s.DeleteComment(ctx, c1.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if _, err := s.GetComment(ctx, c1.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestDeletePost_CascadesComments(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustCreateUser(t, s, "alice", "alice@example.com")
	post := mustCreatePost(t, s, alice.ID, "post")
	c := mustCreateComment(t, s, post.ID, alice.ID, "hello")

	if err := s.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := s.GetComment(ctx, c.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("comment survived post deletion: err = %v", err)
	}
}

func TestDeleteUser_CascadesPostsAndComments(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustCreateUser(t, s, "alice", "alice@example.com")
	bob := mustCreateUser(t, s, "bob", "bob@example.com")

	alicePost := mustCreatePost(t, s, alice.ID, "alice post")
	bobPost := mustCreatePost(t, s, bob.ID, "bob post")
	bobCommentOnAlicePost := mustCreateComment(t, s, alicePost.ID, bob.ID, "from bob")
	aliceCommentOnBobPost := mustCreateComment(t, s, bobPost.ID, alice.ID, "from alice")

	if err := s.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	// Alice's post is gone, taking bob's comment on it along.
	if _, err := s.GetPost(ctx, alicePost.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("alice's post survived: err = %v", err)
	}
	if _, err := s.GetComment(ctx, bobCommentOnAlicePost.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("comment on alice's post survived: err = %v", err)
	}

	// Alice's comment elsewhere is gone; bob's own post stays.
	if _, err := s.GetComment(ctx, aliceCommentOnBobPost.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("alice's comment survived: err = %v", err)
	}
	if _, err := s.GetPost(ctx, bobPost.ID); err != nil {
		t.Fatalf("bob's post deleted by alice's cascade: %v", err)
	}
}

func TestNotFoundErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	checks := []struct {
		name string
		err  error
	}{
		{"GetUserByID", func() error { _, err := s.GetUserByID(ctx, 999); return err }()},
		{"GetUserByUsername", func() error { _, err := s.GetUserByUsername(ctx, "ghost"); return err }()},
		{"UpdateUser", func() error { _, err := s.UpdateUser(ctx, &api.User{ID: 999}); return err }()},
		{"DeleteUser", s.DeleteUser(ctx, 999)},
		{"GetPost", func() error { _, err := s.GetPost(ctx, 999); return err }()},
		{"UpdatePost", func() error { _, err := s.UpdatePost(ctx, &api.Post{ID: 999}); return err }()},
		{"DeletePost", s.DeletePost(ctx, 999)},
		{"GetComment", func() error { _, err := s.GetComment(ctx, 999); return err }()},
		{"UpdateComment", func() error { _, err := s.UpdateComment(ctx, &api.Comment{ID: 999}); return err }()},
		{"DeleteComment", s.DeleteComment(ctx, 999)},
	}

	for _, c := range checks {
		if !errors.Is(c.err, storage.ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", c.name, c.err)
		}
	}
}

func TestCopyOnRead(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := mustCreateUser(t, s, "alice", "alice@example.com")

	got, _ := s.GetUserByID(ctx, created.ID)
	got.Username = "mutated"

	again, _ := s.GetUserByID(ctx, created.ID)
	if again.Username != "alice" {
		t.Fatal("mutating a returned record changed the stored copy")
	}
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustCreateUser(t, s, "alice", "alice@example.com")

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			_, err := s.CreatePost(ctx, &api.Post{
				Title:       fmt.Sprintf("post-%d", i),
				Description: "d",
				OwnerID:     alice.ID,
			})
			done <- err
		}(i)
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent CreatePost: %v", err)
		}
	}

	all, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(all) != 20 {
		t.Fatalf("got %d posts, want 20", len(all))
	}
	seen := make(map[int64]bool)
	for _, p := range all {
		if seen[p.ID] {
			t.Fatalf("duplicate post ID %d", p.ID)
		}
		seen[p.ID] = true
	}
}
