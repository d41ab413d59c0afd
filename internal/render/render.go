// Package render converts markdown into the HTML fragments posts store.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/cache"
	"github.com/debemdeboas/spawnwrite/internal/util"
)

const (
	EngineClassic = "classic"
	EngineMmark   = "mmark"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

var escape = html.EscapeString

// Output is a rendered document. Title is only set by the mmark engine,
// from the document's title block.
type Output struct {
	HTML  []byte
	Title string
}

type Renderer struct {
	engine string
	style  *chroma.Style
	cache  *cache.Cache[string, Output]
}

// New returns a renderer for engine highlighting code with the named chroma style.
func New(engine, style string) (*Renderer, error) {
	switch engine {
	case "":
		engine = EngineClassic
	case EngineClassic, EngineMmark:
	default:
		return nil, fmt.Errorf("unknown markdown engine %q", engine)
	}
	return &Renderer{
		engine: engine,
		style:  lookupStyle(style),
		cache:  cache.NewCache[string, Output](),
	}, nil
}

// Render converts md. Results are cached by content hash.
func (r *Renderer) Render(md []byte) Output {
	key := util.ContentHash(md)
	if out, ok := r.cache.Get(key); ok {
		renderLogger.Debug().Str("content_hash", key).Msg("Cache hit for rendered markdown")
		return out
	}

	var out Output
	switch r.engine {
	case EngineMmark:
		out = r.mmark(md)
	default:
		out = Output{HTML: r.classic(md)}
	}
	r.cache.Set(key, out)
	return out
}

func (r *Renderer) codeHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	code, ok := node.(*ast.CodeBlock)
	if !ok || !entering {
		return ast.GoToNext, false
	}
	var language string
	if fields := strings.Fields(string(code.Info)); len(fields) > 0 {
		language = fields[0]
	}
	fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", Highlight(string(code.Literal), language, r.style))
	return ast.GoToNext, true
}

func (r *Renderer) classic(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}
			return r.codeHook(w, node, entering)
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.NonBlockingSpace,
	).Parse(markdown.NormalizeNewlines(md))
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func (r *Renderer) mmark(md []byte) Output {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)

	var info *mast.TitleData
	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		Flags: parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	language := "en"
	if info != nil && info.Language != "" {
		language = info.Language
	}
	mhtmlOpts := mhtml.RendererOptions{Language: lang.New(language)}

	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, ok := r.codeHook(w, node, entering); ok {
				return status, true
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
	}

	out := Output{HTML: markdown.Render(doc, md_html.NewRenderer(opts))}
	if info != nil {
		out.Title = info.Title
	}
	return out
}
