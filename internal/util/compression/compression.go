// Package compression holds the codecs applied to post content at rest.
package compression

import "fmt"

const (
	Zstd = "zstd"
	Gzip = "gzip"
	None = "none"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// New returns the compressor registered under name. An empty name selects zstd.
func New(name string) (Compressor, error) {
	switch name {
	case Zstd, "":
		return NewZstdCompressor()
	case Gzip:
		return GzipCompressor{}, nil
	case None:
		return NoopCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
