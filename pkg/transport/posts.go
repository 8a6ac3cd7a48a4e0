package transport

import (
	"context"
	"net/http"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/auth"
)

// handleCreatePost creates a post owned by the caller.
func (h *Handlers) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidatePost(&req, h.config.Validation); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	post, err := h.store.CreatePost(r.Context(), &api.Post{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     user.ID,
	})
	if err != nil {
		storageError(w, err, "post")
		return
	}

	writeJSON(w, http.StatusCreated, api.PostView{Post: *post, Owner: user.Ref()})
}

// handleListAllPosts returns every post. This is the public listing
// endpoint: no authentication required.
func (h *Handlers) handleListAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context())
	if err != nil {
		storageError(w, err, "posts")
		return
	}
	h.writePostViews(w, r.Context(), posts)
}

// handleListOwnPosts returns the caller's posts.
func (h *Handlers) handleListOwnPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.store.ListPostsByOwner(r.Context(), user.ID)
	if err != nil {
		storageError(w, err, "posts")
		return
	}
	h.writePostViews(w, r.Context(), posts)
}

// handleUpdatePost applies a partial update to a post the caller owns.
func (h *Handlers) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req api.PostUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidatePostUpdate(&req, h.config.Validation); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		storageError(w, err, "post")
		return
	}
	if err := auth.RequireOwner(auth.IdentityFromContext(r.Context()), post.OwnerID); err != nil {
		WriteAPIError(w, api.NewForbiddenError("you are not the owner of this post"))
		return
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Description != nil {
		post.Description = *req.Description
	}

	updated, err := h.store.UpdatePost(r.Context(), post)
	if err != nil {
		storageError(w, err, "post")
		return
	}
	writeJSON(w, http.StatusOK, api.PostView{Post: *updated, Owner: user.Ref()})
}

// handleDeletePost removes a post the caller owns, along with its comments.
func (h *Handlers) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		storageError(w, err, "post")
		return
	}
	if err := auth.RequireOwner(auth.IdentityFromContext(r.Context()), post.OwnerID); err != nil {
		WriteAPIError(w, api.NewForbiddenError("you are not the owner of this post"))
		return
	}

	if err := h.store.DeletePost(r.Context(), postID); err != nil {
		storageError(w, err, "post")
		return
	}
	writeJSON(w, http.StatusOK, api.PostView{Post: *post, Owner: user.Ref()})
}

// writePostViews joins posts with their owners and writes the list.
func (h *Handlers) writePostViews(w http.ResponseWriter, ctx context.Context, posts []*api.Post) {
	owners := make(map[int64]api.UserRef)
	views := make([]api.PostView, 0, len(posts))

	for _, p := range posts {
		ref, ok := owners[p.OwnerID]
		if !ok {
			owner, err := h.store.GetUserByID(ctx, p.OwnerID)
			if err != nil {
				storageError(w, err, "post owner")
				return
			}
			ref = owner.Ref()
			owners[p.OwnerID] = ref
		}
		views = append(views, api.PostView{Post: *p, Owner: ref})
	}

	writeJSON(w, http.StatusOK, views)
}

// ownerRef resolves the public reference for one user ID.
func (h *Handlers) ownerRef(ctx context.Context, id int64) (api.UserRef, error) {
	owner, err := h.store.GetUserByID(ctx, id)
	if err != nil {
		return api.UserRef{}, err
	}
	return owner.Ref(), nil
}
