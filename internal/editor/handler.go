package editor

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/media"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/respond"
	"github.com/debemdeboas/spawnwrite/internal/sse"
)

const (
	msgEmptyPost      = "Title and content cannot be empty"
	msgAlreadySaved   = "This post has already been saved, its draft can no longer be cleared"
	msgSaveFailed     = "Failed to save post"
	msgSessionClosed  = "Editor session closed, reload the editor"
	msgEmbedNoUpload  = "Media uploads are not configured"
	msgFieldEmpty     = "Cannot be empty"
	embedPositionForm = "pos"
)

// Authenticator resolves the user of a request, answering 401 itself when there is none.
type Authenticator interface {
	EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error)
}

type Handler struct {
	auth     Authenticator
	sessions *Manager
	uploads  *media.Service
	events   *sse.SSEClients
}

func NewHandler(auth Authenticator, sessions *Manager, uploads *media.Service, events *sse.SSEClients) *Handler {
	return &Handler{auth: auth, sessions: sessions, uploads: uploads, events: events}
}

// RegisterRoutes mounts the editor endpoints under /editor on an authenticated router.
func (h *Handler) RegisterRoutes(api *mux.Router) {
	sub := api.PathPrefix("/editor").Subrouter()
	sub.HandleFunc("", h.Load).Methods(http.MethodGet)
	sub.HandleFunc("", h.Edit).Methods(http.MethodPatch)
	sub.HandleFunc("/save", h.Save).Methods(http.MethodPost)
	sub.HandleFunc("/draft", h.ClearDraft).Methods(http.MethodDelete)
	sub.HandleFunc("/embed", h.Embed).Methods(http.MethodPost)
	sub.HandleFunc("/events", h.Events).Methods(http.MethodGet)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	user, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return nil, false
	}
	return h.sessions.Session(user), true
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error, st State) {
	switch {
	case errors.Is(err, ErrEmptyPost):
		respond.Invalid(w, msgEmptyPost, emptyFields(st))
	case errors.Is(err, ErrAlreadyIdentified):
		respond.Error(w, r, http.StatusConflict, msgAlreadySaved, err)
	case errors.Is(err, ErrLoadFailed):
		respond.Error(w, r, http.StatusNotFound, msgLoadFailed, err)
	case errors.Is(err, ErrClosed):
		respond.Error(w, r, http.StatusConflict, msgSessionClosed, err)
	default:
		respond.Error(w, r, http.StatusInternalServerError, msgSaveFailed, err)
	}
}

func emptyFields(st State) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(st.Title) == "" {
		fields["title"] = msgFieldEmpty
	}
	if strings.TrimSpace(st.Content) == "" {
		fields["content"] = msgFieldEmpty
	}
	return fields
}

// Load serves GET /api/editor?id=. Without id the user's unsaved draft is restored.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := s.Load(r.Context(), model.PostID(r.URL.Query().Get("id")))
	if err != nil {
		writeSessionError(w, r, err, res.State)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Edit serves PATCH /api/editor.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var e Edit
	if err := respond.Decode(r, &e); err != nil {
		respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
		return
	}

	st, err := s.Apply(r.Context(), e)
	if err != nil {
		writeSessionError(w, r, err, st)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

type saveRequest struct {
	Published *bool `json:"published,omitempty"`
}

// Save serves POST /api/editor/save. An empty body saves without touching published.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req saveRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, http.StatusBadRequest, config.ErrInvalidJSON, err)
			return
		}
	}

	st, err := s.Save(r.Context(), req.Published)
	if err != nil {
		writeSessionError(w, r, err, st)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// ClearDraft serves DELETE /api/editor/draft.
func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	st, err := s.ClearDraft(r.Context())
	if err != nil {
		writeSessionError(w, r, err, st)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

type embedResponse struct {
	URL   string `json:"url"`
	HTML  string `json:"html"`
	State State  `json:"state"`
}

// Embed serves POST /api/editor/embed: it uploads the multipart field "file"
// and inserts the matching element at rune position "pos" (append when absent).
// A failed upload inserts nothing.
func (h *Handler) Embed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.uploads == nil {
		respond.Error(w, r, http.StatusServiceUnavailable, msgEmbedNoUpload, nil)
		return
	}

	res, err := h.uploads.FromRequest(r, "file")
	if err != nil {
		respond.Error(w, r, media.StatusFor(err), media.MessageFor(err), err)
		return
	}

	pos := -1
	if v := r.FormValue(embedPositionForm); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			pos = p
		}
	}

	fragment := EmbedHTML(res.URL, res.ContentType)
	st, err := s.InsertEmbed(r.Context(), pos, fragment)
	if err != nil {
		writeSessionError(w, r, err, st)
		return
	}
	respond.JSON(w, http.StatusOK, embedResponse{URL: res.URL, HTML: fragment, State: st})
}

// Events serves GET /api/editor/events as a server-sent event stream.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}
	h.events.Serve(w, r, user)
}
