package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter turns source code into token markup.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}

// Default highlighter themes.
const (
	DefaultLightTheme = "github"
	DefaultDarkTheme  = "github-dark"
)

const highlightClassPrefix = "hl-"

// ChromaHighlighter emits class-based markup so one stylesheet carrying a
// light and a dark theme serves every rendered block.
type ChromaHighlighter struct {
	formatter *chromahtml.Formatter
	light     *chroma.Style
	css       string
}

// NewChromaHighlighter builds the formatter and the theme-dual stylesheet.
// Unknown theme names fall back to chroma's default style.
func NewChromaHighlighter(lightTheme, darkTheme string) (*ChromaHighlighter, error) {
	if lightTheme == "" {
		lightTheme = DefaultLightTheme
	}
	if darkTheme == "" {
		darkTheme = DefaultDarkTheme
	}
	h := &ChromaHighlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.ClassPrefix(highlightClassPrefix),
			chromahtml.PreventSurroundingPre(true),
		),
		light: styles.Get(lightTheme),
	}

	var css bytes.Buffer
	if err := h.formatter.WriteCSS(&css, h.light); err != nil {
		return nil, fmt.Errorf("write %s theme css: %w", lightTheme, err)
	}
	css.WriteString("@media (prefers-color-scheme: dark) {\n")
	if err := h.formatter.WriteCSS(&css, styles.Get(darkTheme)); err != nil {
		return nil, fmt.Errorf("write %s theme css: %w", darkTheme, err)
	}
	css.WriteString("}\n")
	h.css = css.String()
	return h, nil
}

// CSS returns the stylesheet for the markup Highlight produces.
func (h *ChromaHighlighter) CSS() string { return h.css }

// Highlight implements Highlighter.
func (h *ChromaHighlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.light, iterator); err != nil {
		return "", fmt.Errorf("format %s: %w", language, err)
	}
	return buf.String(), nil
}

// ------------------- Pipeline stage -------------------

// highlightCode replaces the text of fenced code blocks tagged with a
// language by highlighted markup. Failures keep the plain code.
func (r *Renderer) highlightCode(st *renderState) {
	t := st.tree
	t.Walk(t.Root(), func(id NodeID) Step {
		if !t.IsElement(id, "code") || !t.IsElement(t.Parent(id), "pre") {
			return Continue
		}
		language := codeLanguage(t, id)
		if language == "" || language == "math" {
			return SkipChildren
		}
		log := st.log.WithField("renderer", "code").WithField("language", language)
		out, err := r.highlighter.Highlight(t.TextContent(id), language)
		if err != nil {
			r.metrics.enrichmentFailed("code")
			log.WithError(err).Warn("Failed to highlight code block")
			return SkipChildren
		}
		nodes, err := t.ImportFragment(out, "code")
		if err != nil {
			log.WithError(err).Warn("Failed to import highlighted code")
			return SkipChildren
		}
		t.RemoveChildren(id)
		for _, n := range nodes {
			t.Append(id, n)
		}
		t.SetAttr(t.Parent(id), "class", highlightClassPrefix+"chroma")
		return SkipChildren
	})
}

func codeLanguage(t *Tree, id NodeID) string {
	class, _ := t.Attr(id, "class")
	for _, f := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(f, "language-"); ok {
			return lang
		}
	}
	return ""
}
