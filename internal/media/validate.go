package media

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

var (
	ErrNoFile      = errors.New("no file provided")
	ErrInvalidType = errors.New("invalid file type")
	ErrTooLarge    = errors.New("file too large")
	ErrUpstream    = errors.New("upload provider failed")
)

// StatusFor maps an upload error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// TypeAllowed reports whether contentType matches one of the patterns.
// A pattern is a full media type or a family wildcard such as "image/*".
func TypeAllowed(contentType string, patterns []string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if family, ok := strings.CutSuffix(p, "/*"); ok {
			if strings.HasPrefix(mediaType, family+"/") {
				return true
			}
			continue
		}
		if mediaType == p {
			return true
		}
	}
	return false
}
