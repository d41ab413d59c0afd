package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

// multipartOverhead is the room left for headers and boundaries above the file limit.
const multipartOverhead = 1 << 20

type Result struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// Service validates uploads and hands them to a Provider.
type Service struct {
	provider Provider
	maxSize  int64
	allowed  []string
}

func NewService(provider Provider, cfg config.UploadConfig) *Service {
	return &Service{
		provider: provider,
		maxSize:  cfg.MaxSizeBytes,
		allowed:  cfg.AllowedTypes,
	}
}

func (s *Service) Provider() Provider {
	return s.provider
}

// FromRequest reads the multipart file in field, validates it and uploads it.
func (s *Service) FromRequest(r *http.Request, field string) (*Result, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxSize+multipartOverhead)

	file, header, err := r.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, ErrTooLarge
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, ErrNoFile
		default:
			return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
		}
	}
	defer file.Close()

	return s.Upload(r.Context(), file, header)
}

// Upload validates and uploads one multipart file.
func (s *Service) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*Result, error) {
	if header.Size == 0 {
		return nil, ErrNoFile
	}
	if header.Size > s.maxSize {
		return nil, ErrTooLarge
	}

	contentType := header.Header.Get(config.HCType)
	if contentType == "" || contentType == "application/octet-stream" {
		mt, err := mimetype.DetectReader(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidType, err)
		}
		contentType = mt.String()
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	if !TypeAllowed(contentType, s.allowed) {
		return nil, ErrInvalidType
	}

	url, err := s.provider.Upload(ctx, Object{
		Reader:      file,
		Size:        header.Size,
		ContentType: contentType,
		Filename:    header.Filename,
	})
	if err != nil {
		mediaLogger.Error().Err(err).Str("provider", s.provider.Name()).Str("filename", header.Filename).Msg("Upload failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &Result{URL: url, ContentType: contentType}, nil
}
