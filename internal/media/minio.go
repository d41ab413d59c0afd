package media

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

type MinioProvider struct {
	client    *minio.Client
	bucket    string
	publicURL string
	prefix    string

	now func() time.Time
}

func NewMinioProvider(cfg config.MinioConfig, prefix string) (*MinioProvider, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating MinIO client")
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		publicURL = scheme + cfg.Endpoint + "/" + cfg.Bucket
	}

	return &MinioProvider{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		prefix:    prefix,
		now:       time.Now,
	}, nil
}

func (p *MinioProvider) Name() string {
	return "minio"
}

func (p *MinioProvider) Upload(ctx context.Context, obj Object) (string, error) {
	now := p.now()
	key := objectKey(p.prefix, obj.Filename, now)

	_, err := p.client.PutObject(ctx, p.bucket, key, obj.Reader, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
		UserMetadata: map[string]string{
			"original-filename": obj.Filename,
			"uploaded-at":       now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "error uploading %s to MinIO", key)
	}

	mediaLogger.Debug().Str("provider", p.Name()).Str("key", key).Int64("size", obj.Size).Msg("Uploaded object")
	return joinURL(p.publicURL, key), nil
}
