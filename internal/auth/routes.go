package auth

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the public /auth endpoints, rate limited when limiter is set.
func RegisterRoutes(r *mux.Router, h *Handlers, limiter *RateLimiter) {
	sub := r.PathPrefix("/auth").Subrouter()
	if limiter != nil {
		sub.Use(limiter.Limit)
	}

	sub.HandleFunc("/signup", h.SignUp).Methods(http.MethodPost)
	sub.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	sub.HandleFunc("/magic-link", h.RequestMagicLink).Methods(http.MethodPost)
	sub.HandleFunc("/magic-link/verify", h.VerifyMagicLink).Methods(http.MethodGet)
	sub.HandleFunc("/password-reset", h.RequestPasswordReset).Methods(http.MethodPost)
	sub.HandleFunc("/password-reset/confirm", h.ResetPassword).Methods(http.MethodPost)
	sub.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

// RegisterAccountRoutes mounts /me on an authenticated router.
func RegisterAccountRoutes(api *mux.Router, h *Handlers) {
	api.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	api.HandleFunc("/me/handle", h.UpdateHandle).Methods(http.MethodPut)
}

// RegisterWebhookRoutes mounts the provider webhook.
func RegisterWebhookRoutes(r *mux.Router, p Provider) {
	r.HandleFunc("/webhook/user", p.HandleWebhookUser).Methods(http.MethodPost)
}
