package media

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

// S3Provider uploads to any S3-compatible store (B2, R2, AWS).
type S3Provider struct {
	client    *s3.Client
	bucket    string
	publicURL string
	prefix    string

	now func() time.Time
}

func NewS3Provider(ctx context.Context, cfg config.S3Config, prefix string) (*S3Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error loading S3 config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// B2 and R2 reject the flexible checksum headers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &S3Provider{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		prefix:    prefix,
		now:       time.Now,
	}, nil
}

func (p *S3Provider) Name() string {
	return "s3"
}

func (p *S3Provider) Upload(ctx context.Context, obj Object) (string, error) {
	body, ok := obj.Reader.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(obj.Reader)
		if err != nil {
			return "", errors.Wrap(err, "error reading upload")
		}
		body = bytes.NewReader(data)
	}

	key := objectKey(p.prefix, obj.Filename, p.now())
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(obj.Size),
		ContentType:   aws.String(obj.ContentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "error uploading %s to bucket %s", key, p.bucket)
	}

	mediaLogger.Debug().Str("provider", p.Name()).Str("key", key).Int64("size", obj.Size).Msg("Uploaded object")
	return joinURL(p.publicURL, key), nil
}
