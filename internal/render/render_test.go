package render

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestNewRejectsUnknownEngine(t *testing.T) {
	if _, err := New("asciidoc", "github"); err == nil {
		t.Fatal("Expected error for unknown engine")
	}

	r, err := New("", "no-such-style")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r.engine != EngineClassic {
		t.Errorf("Expected default engine %q, got %q", EngineClassic, r.engine)
	}
}

func TestRenderClassic(t *testing.T) {
	r, err := New(EngineClassic, "github")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		markdown string
		contains []string
		absent   []string
	}{
		{
			name:     "heading and paragraph",
			markdown: "# Hello\n\nSome *text*.",
			contains: []string{`<h1 id="hello">Hello</h1>`, "<em>text</em>"},
		},
		{
			name:     "code block is highlighted inline",
			markdown: "```go\nfunc main() {}\n```",
			contains: []string{`<div class="highlight">`, "<pre", `style="`, "main"},
			absent:   []string{"<code class=\"language-go\">"},
		},
		{
			name:     "unknown language still renders",
			markdown: "```nonexistent-lang\nplain words\n```",
			contains: []string{"plain", "words"},
		},
		{
			name:     "links open in a new tab",
			markdown: "[site](https://example.com)",
			contains: []string{`target="_blank"`},
		},
		{
			name:     "table",
			markdown: "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "empty input",
			markdown: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Render([]byte(tt.markdown))
			html := string(out.HTML)
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("Expected output to contain %q, got %q", want, html)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(html, unwanted) {
					t.Errorf("Expected output not to contain %q, got %q", unwanted, html)
				}
			}
			if out.Title != "" {
				t.Errorf("Classic engine should not set a title, got %q", out.Title)
			}
		})
	}
}

func TestRenderMmarkTitle(t *testing.T) {
	r, err := New(EngineMmark, "monokai")
	if err != nil {
		t.Fatal(err)
	}

	md := "%%%\ntitle = \"From the title block\"\n%%%\n\n# Section\n\nBody text.\n"
	out := r.Render([]byte(md))

	if out.Title != "From the title block" {
		t.Errorf("Expected title from title block, got %q", out.Title)
	}
	if !strings.Contains(string(out.HTML), "Body text.") {
		t.Errorf("Expected body in output, got %q", out.HTML)
	}
}

func TestRenderIsCached(t *testing.T) {
	r, err := New(EngineClassic, "github")
	if err != nil {
		t.Fatal(err)
	}

	md := []byte("# Cached\n")
	first := r.Render(md)
	second := r.Render(md)
	if !bytes.Equal(first.HTML, second.HTML) {
		t.Errorf("Expected identical output, got %q and %q", first.HTML, second.HTML)
	}

	other := r.Render([]byte("# Different\n"))
	if bytes.Equal(first.HTML, other.HTML) {
		t.Error("Different input should render differently")
	}
}

func TestRenderConcurrent(t *testing.T) {
	r, err := New(EngineClassic, "github")
	if err != nil {
		t.Fatal(err)
	}
	want := r.Render([]byte("```go\nx := 1\n```")).HTML

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Render([]byte("```go\nx := 1\n```")).HTML
			if !bytes.Equal(got, want) {
				t.Errorf("Concurrent render mismatch")
			}
		}()
	}
	wg.Wait()
}

func TestHighlightFallsBack(t *testing.T) {
	out := Highlight("SELECT 1;", "", lookupStyle("github"))
	if !strings.Contains(out, "SELECT") {
		t.Errorf("Expected code in output, got %q", out)
	}
}
