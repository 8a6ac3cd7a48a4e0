package transport

import (
	"net/http"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/auth"
)

// handleCreateComment attaches a comment to an existing post. Any
// authenticated user may comment on any post.
func (h *Handlers) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	var req api.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateComment(&req, h.config.Validation); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	if _, err := h.store.GetPost(r.Context(), postID); err != nil {
		storageError(w, err, "post")
		return
	}

	comment, err := h.store.CreateComment(r.Context(), &api.Comment{
		Body:    req.Body,
		PostID:  postID,
		OwnerID: user.ID,
	})
	if err != nil {
		storageError(w, err, "comment")
		return
	}

	writeJSON(w, http.StatusCreated, api.CommentView{Comment: *comment, Owner: user.Ref()})
}

// handleListComments returns the comments on one post.
func (h *Handlers) handleListComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	if _, err := h.store.GetPost(r.Context(), postID); err != nil {
		storageError(w, err, "post")
		return
	}

	comments, err := h.store.ListCommentsByPost(r.Context(), postID)
	if err != nil {
		storageError(w, err, "comments")
		return
	}

	owners := make(map[int64]api.UserRef)
	views := make([]api.CommentView, 0, len(comments))
	for _, c := range comments {
		ref, ok := owners[c.OwnerID]
		if !ok {
			var err error
			ref, err = h.ownerRef(r.Context(), c.OwnerID)
			if err != nil {
				storageError(w, err, "comment author")
				return
			}
			owners[c.OwnerID] = ref
		}
		views = append(views, api.CommentView{Comment: *c, Owner: ref})
	}

	writeJSON(w, http.StatusOK, views)
}

// handleUpdateComment edits a comment the caller authored. The parent
// post's owner has no say here: comment ownership is the author's alone.
func (h *Handlers) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req api.CommentUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateCommentUpdate(&req, h.config.Validation); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	comment, err := h.store.GetComment(r.Context(), commentID)
	if err != nil {
		storageError(w, err, "comment")
		return
	}
	if err := auth.RequireOwner(auth.IdentityFromContext(r.Context()), comment.OwnerID); err != nil {
		WriteAPIError(w, api.NewForbiddenError("you do not have permission to edit this comment"))
		return
	}

	comment.Body = *req.Body

	updated, err := h.store.UpdateComment(r.Context(), comment)
	if err != nil {
		storageError(w, err, "comment")
		return
	}
	writeJSON(w, http.StatusOK, api.CommentView{Comment: *updated, Owner: user.Ref()})
}

// handleDeleteComment removes a comment the caller authored.
func (h *Handlers) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	comment, err := h.store.GetComment(r.Context(), commentID)
	if err != nil {
		storageError(w, err, "comment")
		return
	}
	if err := auth.RequireOwner(auth.IdentityFromContext(r.Context()), comment.OwnerID); err != nil {
		WriteAPIError(w, api.NewForbiddenError("you do not have permission to edit this comment"))
		return
	}

	if err := h.store.DeleteComment(r.Context(), commentID); err != nil {
		storageError(w, err, "comment")
		return
	}
	writeJSON(w, http.StatusOK, api.CommentView{Comment: *comment, Owner: user.Ref()})
}
