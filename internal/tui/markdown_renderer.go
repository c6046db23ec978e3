package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	lru "github.com/hashicorp/golang-lru/v2"
)

// markdownRenderer renders note markdown for terminal preview. Rendered
// output is cached per content and wrap width; the renderer itself is
// recreated when the wrap width changes.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    *lru.Cache[string, string]
}

func newMarkdownRenderer(cfg RenderConfig) *markdownRenderer {
	size := cfg.CacheSize
	if size < 1 {
		size = 1
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		cache = nil
	}
	return &markdownRenderer{style: cfg.Style, cache: cache}
}

// render converts markdown into ANSI-styled terminal text with the requested
// wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < 24 {
		wrapWidth = 24
	}

	cacheKey := fmt.Sprintf("%d\x00%s", wrapWidth, markdown)
	if r.cache != nil {
		if out, ok := r.cache.Get(cacheKey); ok {
			return out
		}
	}

	if r.renderer == nil || r.width != wrapWidth {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrapWidth)}
		if r.style == "" || r.style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(r.style))
		}
		renderer, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	out := strings.TrimRight(rendered, "\n")
	if r.cache != nil {
		r.cache.Add(cacheKey, out)
	}
	return out
}
