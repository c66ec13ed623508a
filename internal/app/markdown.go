package app

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

type markdownRendererKey struct {
	width int
	dark  bool
}

var (
	rendererMu sync.Mutex
	renderers  = map[markdownRendererKey]*glamour.TermRenderer{}
)

// renderMarkdown renders input at width, falling back to the raw text when
// glamour cannot build a renderer.
func renderMarkdown(input string, width int, dark bool) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := rendererFor(width, dark)
	if r == nil {
		return input
	}
	out, err := r.Render(input)
	if err != nil {
		return input
	}
	out = xansi.Hardwrap(strings.TrimRight(out, "\n"), width, true)
	return strings.TrimRight(out, "\n")
}

func rendererFor(width int, dark bool) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	key := markdownRendererKey{width: width, dark: dark}
	if r, ok := renderers[key]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = r
	return r
}

func markdownStyle(dark bool) glamouransi.StyleConfig {
	base := styles.LightStyleConfig
	if dark {
		base = styles.DarkStyleConfig
	}
	// bubble padding comes from lipgloss
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	faint := true
	color := "245"
	base.BlockQuote.StylePrimitive.Faint = &faint
	base.BlockQuote.StylePrimitive.Color = &color
	return base
}
