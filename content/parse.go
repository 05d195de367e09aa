package content

import (
	"bytes"
	"context"
	"fmt"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Parser turns Markdown source into an HTML fragment. It is expected to be
// permissive; anything it emits is filtered by the sanitizer afterwards.
type Parser interface {
	ToHTML(ctx context.Context, source string) (string, error)
}

// goldmarkParser converts Markdown using goldmark (pure Go).
type goldmarkParser struct {
	md goldmark.Markdown
}

// NewMarkdownParser returns the default goldmark-backed parser.
func NewMarkdownParser() Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			extension.Footnote,
			mathjax.MathJax, // $inline$ and $$display$$
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			// Raw HTML (polls, details, video) passes through; the sanitizer
			// decides what survives.
			html.WithUnsafe(),
		),
	)
	return &goldmarkParser{md: md}
}

// ToHTML converts Markdown to an HTML fragment. Goldmark has no context
// support, so conversion runs in a goroutine raced against ctx.
func (p *goldmarkParser) ToHTML(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := p.md.Convert([]byte(source), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrParse, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// parseTree runs the parser and loads its output into a node arena.
func parseTree(ctx context.Context, p Parser, source string) (*Tree, error) {
	fragment, err := p.ToHTML(ctx, source)
	if err != nil {
		return nil, err
	}
	tree, err := ParseHTML(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return tree, nil
}
