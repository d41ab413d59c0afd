// Package routes assembles the HTTP surface: public pages, auth, the
// authenticated /api tree and the middleware chain around them.
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/auth"
	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/editor"
	"github.com/debemdeboas/spawnwrite/internal/logger"
	"github.com/debemdeboas/spawnwrite/internal/media"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	"github.com/debemdeboas/spawnwrite/internal/respond"
)

const (
	HealthPath     = "/healthz"
	RobotsPath     = "/robots.txt"
	PublicPostPath = "/p/{id}"
	HandlePath     = "/u/{handle}"

	APIPrefix  = "/api"
	PostsPath  = "/posts"
	PostPath   = "/posts/{id}"
	UploadPath = "/upload"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger zerolog.Logger
	CORS   config.CORSConfig

	DB    Pinger
	Posts repository.PostRepository
	Users repository.UserRepository

	Auth auth.Provider
	// AuthHandlers is nil when accounts live with an external provider.
	AuthHandlers *auth.Handlers
	Limiter      *auth.RateLimiter

	Editor *editor.Handler
	// Uploads is nil when no media provider is configured.
	Uploads *media.Service
}

// New returns the application handler.
func New(d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(HealthPath, health(d.DB)).Methods(http.MethodGet)
	r.HandleFunc(RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /api/\n"))
	}).Methods(http.MethodGet)

	posts := NewPostsHandler(d.Auth, d.Posts, d.Users)
	r.HandleFunc(PublicPostPath, posts.Published).Methods(http.MethodGet)
	r.HandleFunc(HandlePath, posts.Handle).Methods(http.MethodGet)

	if d.AuthHandlers != nil {
		auth.RegisterRoutes(r, d.AuthHandlers, d.Limiter)
	}
	auth.RegisterWebhookRoutes(r, d.Auth)

	api := r.PathPrefix(APIPrefix).Subrouter()
	api.Use(noCache, auth.RequireUser(d.Auth))

	api.HandleFunc(PostsPath, posts.List).Methods(http.MethodGet)
	api.HandleFunc(PostPath, posts.Get).Methods(http.MethodGet)
	api.HandleFunc(PostPath, posts.Put).Methods(http.MethodPut)
	api.HandleFunc(PostPath, posts.Delete).Methods(http.MethodDelete)

	if d.AuthHandlers != nil {
		auth.RegisterAccountRoutes(api, d.AuthHandlers)
	}
	if d.Editor != nil {
		d.Editor.RegisterRoutes(api)
	}
	if d.Uploads != nil {
		api.Handle(UploadPath, d.Uploads.Handler())
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusNotFound, respond.ErrorBody{Error: http.StatusText(http.StatusNotFound)})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorBody{Error: config.HTTPErrMethodNotAllowed})
	})

	var h http.Handler = r
	h = d.Auth.WithHeaderAuthorization()(h)
	h = cors(d.CORS)(h)
	h = secureHeaders(h)
	return logger.Middleware(d.Logger)(h)
}

func health(d Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				respond.Error(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
