// Package media uploads user files to the configured object store or media
// service and returns the public URL to embed.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

var mediaLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	mediaLogger = l
}

// Object is one file to upload.
type Object struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

type Provider interface {
	Name() string
	// Upload stores obj and returns its public URL.
	Upload(ctx context.Context, obj Object) (string, error)
}

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.UploadConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "s3":
		return NewS3Provider(ctx, cfg.S3, cfg.KeyPrefix)
	case "minio":
		return NewMinioProvider(cfg.Minio, cfg.KeyPrefix)
	case "mux":
		return NewMuxProvider(cfg.Mux, nil), nil
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Provider)
	}
}

// objectKey names an upload <prefix>/<unix millis>-<uuid>.<ext>.
func objectKey(prefix, filename string, now time.Time) string {
	name := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		name += "." + strings.ToLower(ext)
	}
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
