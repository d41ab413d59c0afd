package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

type recordedPut struct {
	path        string
	contentType string
	body        []byte
	checksum    string
}

func newFakeS3(t *testing.T, status int) (*httptest.Server, *[]recordedPut) {
	t.Helper()
	var mu sync.Mutex
	puts := []recordedPut{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, recordedPut{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
			checksum:    r.Header.Get("X-Amz-Sdk-Checksum-Algorithm"),
		})
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &puts
}

func newTestS3Provider(t *testing.T, endpoint string) *S3Provider {
	t.Helper()
	cfg := config.S3Config{
		Endpoint:        endpoint,
		Region:          "us-east-005",
		Bucket:          "spawnwrite-media",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicURL:       "https://f005.example/file/spawnwrite-media",
		UsePathStyle:    true,
	}
	p, err := NewS3Provider(context.Background(), cfg, "public")
	require.NoError(t, err)
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p
}

func TestS3ProviderUpload(t *testing.T) {
	srv, puts := newFakeS3(t, http.StatusOK)
	p := newTestS3Provider(t, srv.URL)

	url, err := p.Upload(context.Background(), Object{
		Reader:      bytes.NewReader(pngHeader),
		Size:        int64(len(pngHeader)),
		ContentType: "image/png",
		Filename:    "cat.png",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^https://f005\.example/file/spawnwrite-media/public/1700000000000-`+uuidPattern+`\.png$`, url)

	require.Len(t, *puts, 1)
	put := (*puts)[0]
	assert.Regexp(t, `^/spawnwrite-media/public/1700000000000-`+uuidPattern+`\.png$`, put.path)
	assert.Equal(t, "image/png", put.contentType)
	assert.Equal(t, pngHeader, put.body)
	assert.Empty(t, put.checksum)
}

func TestS3ProviderUnseekableReader(t *testing.T) {
	srv, puts := newFakeS3(t, http.StatusOK)
	p := newTestS3Provider(t, srv.URL)

	_, err := p.Upload(context.Background(), Object{
		Reader:      io.MultiReader(strings.NewReader("ID3"), strings.NewReader("audio")),
		Size:        8,
		ContentType: "audio/mpeg",
		Filename:    "song.mp3",
	})
	require.NoError(t, err)
	require.Len(t, *puts, 1)
	assert.Equal(t, []byte("ID3audio"), (*puts)[0].body)
}

func TestS3ProviderUpstreamError(t *testing.T) {
	srv, _ := newFakeS3(t, http.StatusForbidden)
	p := newTestS3Provider(t, srv.URL)

	_, err := p.Upload(context.Background(), Object{
		Reader:      bytes.NewReader(pngHeader),
		Size:        int64(len(pngHeader)),
		ContentType: "image/png",
		Filename:    "cat.png",
	})
	assert.Error(t, err)
}

func TestMinioProviderPublicURL(t *testing.T) {
	p, err := NewMinioProvider(config.MinioConfig{
		Endpoint: "localhost:9000",
		Bucket:   "images",
		Region:   "us-east-1",
	}, "public")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/images", p.publicURL)
	assert.Equal(t, "minio", p.Name())

	p, err = NewMinioProvider(config.MinioConfig{
		Endpoint:  "minio.example:443",
		Bucket:    "images",
		UseSSL:    true,
		PublicURL: "https://media.example/",
	}, "public")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/", p.publicURL)
}

func TestMinioProviderUpload(t *testing.T) {
	srv, puts := newFakeS3(t, http.StatusOK)
	p, err := NewMinioProvider(config.MinioConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "images",
		Region:    "us-east-1",
	}, "public")
	require.NoError(t, err)
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }

	url, err := p.Upload(context.Background(), Object{
		Reader:      bytes.NewReader(pngHeader),
		Size:        int64(len(pngHeader)),
		ContentType: "image/png",
		Filename:    "cat.png",
	})
	require.NoError(t, err)
	require.Len(t, *puts, 1)
	assert.Regexp(t, `^/images/public/1700000000000-`+uuidPattern+`\.png$`, (*puts)[0].path)
	assert.Equal(t, srv.URL+(*puts)[0].path, url)
}
