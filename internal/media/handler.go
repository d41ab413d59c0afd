package media

import (
	"errors"
	"net/http"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/respond"
)

// MessageFor returns the user-facing message for an upload error.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return config.ErrNoFile
	case errors.Is(err, ErrInvalidType):
		return config.ErrInvalidType
	case errors.Is(err, ErrTooLarge):
		return config.ErrFileTooLarge
	default:
		return config.ErrUploadFailed
	}
}

// Handler serves POST /api/upload: multipart field "file", answers {"url"}.
func (s *Service) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorBody{Error: config.HTTPErrMethodNotAllowed})
			return
		}

		res, err := s.FromRequest(r, "file")
		if err != nil {
			respond.Error(w, r, StatusFor(err), MessageFor(err), err)
			return
		}

		respond.JSON(w, http.StatusOK, map[string]string{"url": res.URL})
	}
}
