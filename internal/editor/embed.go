package editor

import (
	"fmt"
	"html"
	"strings"
)

// EmbedHTML returns the fragment that displays url according to its MIME family.
func EmbedHTML(url, contentType string) string {
	src := html.EscapeString(url)
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return fmt.Sprintf(`<video controls src="%s"></video>`, src)
	case strings.HasPrefix(contentType, "audio/"):
		return fmt.Sprintf(`<audio controls src="%s"></audio>`, src)
	default:
		return fmt.Sprintf(`<img src="%s" alt="" />`, src)
	}
}

// InsertAt inserts fragment at rune index pos of content. A negative or
// out-of-range pos appends.
func InsertAt(content string, pos int, fragment string) string {
	runes := []rune(content)
	if pos < 0 || pos > len(runes) {
		pos = len(runes)
	}
	var b strings.Builder
	b.Grow(len(content) + len(fragment))
	b.WriteString(string(runes[:pos]))
	b.WriteString(fragment)
	b.WriteString(string(runes[pos:]))
	return b.String()
}
