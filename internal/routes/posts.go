package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/debemdeboas/spawnwrite/internal/auth"
	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	"github.com/debemdeboas/spawnwrite/internal/respond"
)

const (
	msgPostNotOwned  = "Post belongs to another user"
	msgPostsFailed   = "Failed to load posts"
	msgPostInvalid   = "Title and content cannot be empty"
	msgUserNotFound  = "User not found"
	msgFieldRequired = "Cannot be empty"
)

// PostsHandler serves the dashboard and the public post pages.
type PostsHandler struct {
	auth  auth.Provider
	posts repository.PostRepository
	users repository.UserRepository
}

func NewPostsHandler(p auth.Provider, posts repository.PostRepository, users repository.UserRepository) *PostsHandler {
	return &PostsHandler{auth: p, posts: posts, users: users}
}

func (h *PostsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, config.ErrPostNotFound, err)
	case errors.Is(err, repository.ErrNotOwner):
		respond.Error(w, r, http.StatusForbidden, msgPostNotOwned, err)
	default:
		respond.Error(w, r, http.StatusInternalServerError, config.ErrInternalServerError, err)
	}
}

func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	posts, err := h.posts.ListByOwner(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, msgPostsFailed, err)
		return
	}
	respond.JSON(w, http.StatusOK, posts)
}

func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	post, err := h.posts.Get(r.Context(), model.PostID(mux.Vars(r)["id"]), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	etag := `"` + post.ContentHash + `"`
	w.Header().Set(config.HETag, etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	if err := h.posts.Delete(r.Context(), model.PostID(mux.Vars(r)["id"]), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type putPostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// Put creates the post with the id in the path or replaces the caller's copy of it.
func (h *PostsHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var req putPostRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = msgFieldRequired
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = msgFieldRequired
	}
	if len(fields) > 0 {
		respond.Invalid(w, msgPostInvalid, fields)
		return
	}

	post := &model.Post{
		ID:        model.PostID(mux.Vars(r)["id"]),
		Owner:     userID,
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	}
	if err := h.posts.Upsert(r.Context(), post); err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

// Published serves a published post to anyone and counts the read.
func (h *PostsHandler) Published(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPublished(r.Context(), model.PostID(mux.Vars(r)["id"]))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

type handlePage struct {
	Handle string              `json:"handle"`
	Posts  []model.PostSummary `json:"posts"`
}

// Handle lists the published posts of the user behind a handle.
func (h *PostsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]

	user, err := h.users.GetByHandle(r.Context(), handle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respond.Error(w, r, http.StatusNotFound, msgUserNotFound, err)
			return
		}
		respond.Error(w, r, http.StatusInternalServerError, config.ErrInternalServerError, err)
		return
	}

	posts, err := h.posts.ListPublishedByOwner(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, msgPostsFailed, err)
		return
	}
	respond.JSON(w, http.StatusOK, handlePage{Handle: user.Handle, Posts: posts})
}
