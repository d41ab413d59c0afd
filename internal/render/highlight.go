package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Rendered posts are stored as standalone fragments, so highlighting uses
// inline styles instead of a stylesheet.
var formatter = html.New(
	html.WithClasses(false),
	html.TabWidth(4),
	html.WrapLongLines(true),
)

func lookupStyle(name string) *chroma.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}

// Highlight renders code as a <pre> block. Unknown languages are analysed
// from the code and fall back to plain text.
func Highlight(code, language string, style *chroma.Style) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		renderLogger.Debug().Err(err).Str("language", language).Msg("Tokenise failed")
		return "<pre>" + escape(code) + "</pre>"
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		renderLogger.Debug().Err(err).Str("language", language).Msg("Format failed")
		return "<pre>" + escape(code) + "</pre>"
	}
	return buf.String()
}
