// Package util provides content hashing, front matter parsing and random token helpers.
package util

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
)

const (
	LowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

	frontMatterDelimiter = "%%%"
)

var ErrInvalidFrontMatter = fmt.Errorf("invalid front matter format")

// FrontMatter is the TOML block between two %%% lines at the top of an imported markdown file.
type FrontMatter struct {
	Title     string    `toml:"title"`
	Date      time.Time `toml:"date"`
	Published bool      `toml:"published"`
	Author    string    `toml:"author"`

	// Consumed is the number of bytes of the normalized input taken by the block.
	Consumed int `toml:"-"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// GetFrontMatter parses the front matter block. The block must be the first
// non-blank thing in md.
func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = trimFrontMatterInput(md)
	delim := []byte(frontMatterDelimiter)

	if len(md) < 2*len(delim) || !bytes.HasPrefix(md, delim) {
		return nil, ErrInvalidFrontMatter
	}

	closing := bytes.Index(md[len(delim):], delim)
	if closing == -1 {
		return nil, ErrInvalidFrontMatter
	}

	end := closing + 2*len(delim) + 1
	if end > len(md) {
		return nil, ErrInvalidFrontMatter
	}

	fm := &FrontMatter{}
	if _, err := toml.Decode(string(md[len(delim):end-len(delim)-1]), fm); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}
	fm.Consumed = end

	return fm, nil
}

// SplitFrontMatter returns the front matter and the markdown body that follows it.
func SplitFrontMatter(md []byte) (*FrontMatter, []byte, error) {
	fm, err := GetFrontMatter(md)
	if err != nil {
		return nil, nil, err
	}
	return fm, trimFrontMatterInput(md)[fm.Consumed:], nil
}

func trimFrontMatterInput(md []byte) []byte {
	return bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")
}

// RandomString returns n characters drawn uniformly from alphabet using crypto/rand.
func RandomString(n int, alphabet string) (string, error) {
	if n <= 0 || alphabet == "" {
		return "", nil
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// RandomToken returns n random bytes hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
