package ui

import (
	"strings"

	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme selects the chroma theme for code blocks.
// Unknown names fall back to the default theme.
func ConfigureMarkdownCodeTheme(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := chromastyles.Registry[name]; ok {
		markdownCodeTheme = name
		return
	}
	markdownCodeTheme = defaultCodeTheme
}

// RenderMarkdown renders markdown content for terminal display.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// markdownStyle is glamour's dark style with the accent color on headings,
// underlined top-level headings and the configured code theme.
func markdownStyle() ansi.StyleConfig {
	style := glamourstyles.DarkStyleConfig
	margin := uint(MarkdownRenderMargin)
	underline := true

	style.Document.Margin = &margin
	style.Document.Color = nil
	if color, ok := AccentColor(); ok {
		style.Heading.Color = &color
	}
	style.H1.Underline = &underline
	style.H1.Prefix = "# "
	style.H1.BackgroundColor = nil
	style.H1.Color = nil
	style.H2.Underline = &underline

	code := "203"
	style.Code.Color = &code
	style.Code.BackgroundColor = nil
	style.Code.Prefix, style.Code.Suffix = "", ""

	muted := "8"
	style.CodeBlock.Color = &muted
	style.CodeBlock.Margin = &margin
	style.CodeBlock.Theme = markdownCodeTheme
	style.CodeBlock.Chroma = nil
	return style
}
