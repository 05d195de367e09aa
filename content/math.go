package content

import (
	"bytes"
	"fmt"
	"strings"

	katex "github.com/FurqanSoftware/goldmark-katex"
)

// MathRenderer turns TeX source into final markup.
type MathRenderer interface {
	RenderMath(tex string, display bool) (string, error)
}

// DefaultMathMaxSize bounds the TeX source of one formula, in bytes.
const DefaultMathMaxSize = 8 << 10

// KaTeXRenderer typesets TeX on the server with KaTeX, producing HTML plus
// MathML. KaTeX runs with its defaults: non-strict, and at most 1000 macro
// expansions per formula.
type KaTeXRenderer struct {
	// MaxSize bounds the source, in bytes. KaTeX itself has no such limit.
	MaxSize int

	typeset func(w *bytes.Buffer, src []byte, display bool) error
}

// NewKaTeXRenderer returns a renderer with the default size limit.
func NewKaTeXRenderer() *KaTeXRenderer {
	return &KaTeXRenderer{
		MaxSize: DefaultMathMaxSize,
		typeset: func(w *bytes.Buffer, src []byte, display bool) error {
			return katex.Render(w, src, display)
		},
	}
}

// RenderMath implements MathRenderer.
func (r *KaTeXRenderer) RenderMath(tex string, display bool) (string, error) {
	tex = strings.TrimSpace(tex)
	if r.MaxSize > 0 && len(tex) > r.MaxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrMathTooLarge, len(tex), r.MaxSize)
	}
	var buf bytes.Buffer
	if err := r.typeset(&buf, []byte(tex), display); err != nil {
		return "", classifyKaTeXError(err)
	}

	class := "math-inline"
	if display {
		class = "math-display"
	}
	return `<span class="math-rendered ` + class + `">` + buf.String() + `</span>`, nil
}

// classifyKaTeXError maps KaTeX's ParseError messages onto the sentinel
// errors.
func classifyKaTeXError(err error) error {
	if strings.Contains(err.Error(), "Too many expansions") {
		return fmt.Errorf("%w: %v", ErrMathExpansion, err)
	}
	return fmt.Errorf("%w: %v", ErrMathSyntax, err)
}

// ------------------- Pipeline stage -------------------

// renderMath replaces math nodes emitted by the parser with rendered markup.
// A failing formula is logged and left as the parser emitted it.
func (r *Renderer) renderMath(st *renderState) {
	t := st.tree
	t.Walk(t.Root(), func(id NodeID) Step {
		if t.Kind(id) != ElementNode {
			return Continue
		}
		tex, display, target, ok := mathSource(t, id)
		if !ok {
			return Continue
		}
		out, err := r.math.RenderMath(tex, display)
		if err != nil {
			r.metrics.enrichmentFailed("math")
			st.log.WithError(err).WithField("renderer", "math").Warn("Failed to render math")
			return SkipChildren
		}
		nodes, err := t.ImportFragment(out, "div")
		if err != nil {
			st.log.WithError(err).WithField("renderer", "math").Warn("Failed to import rendered math")
			return SkipChildren
		}
		if target == id {
			return ReplaceWith(nodes...)
		}
		// Fenced math: the enclosing pre goes too.
		t.Replace(target, nodes...)
		return SkipChildren
	})
}

// mathSource recognizes the parser's math shapes: span.math.inline,
// span.math.display, code.math-inline, code.math-display and a fenced
// ```math block.
func mathSource(t *Tree, id NodeID) (tex string, display bool, target NodeID, ok bool) {
	switch t.Tag(id) {
	case "span":
		class, _ := t.Attr(id, "class")
		switch class {
		case "math inline":
			return trimDelims(t.TextContent(id), `\(`, `\)`), false, id, true
		case "math display":
			return trimDelims(t.TextContent(id), `\[`, `\]`), true, id, true
		}
	case "code":
		switch {
		case t.HasClass(id, "math-inline"):
			return t.TextContent(id), false, id, true
		case t.HasClass(id, "math-display"):
			return t.TextContent(id), true, id, true
		case t.HasClass(id, "language-math") && t.IsElement(t.Parent(id), "pre"):
			return t.TextContent(id), true, t.Parent(id), true
		}
	}
	return "", false, NoNode, false
}

func trimDelims(s, open, close string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, open) && strings.HasSuffix(s, close) && len(s) >= len(open)+len(close) {
		return s[len(open) : len(s)-len(close)]
	}
	return s
}
