package content

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// resolveFunc turns one match into final markup. ok=false keeps the match
// text.
type resolveFunc func(text string, groups []int) (NodeID, bool)

// skipResolution reports whether the subtree of id holds final markup that
// mention and reference scanning must leave alone.
func skipResolution(t *Tree, id NodeID) bool {
	switch t.Tag(id) {
	case "a", "code", "pre":
		return true
	case "span", "strong":
		return t.HasClass(id, "math") || t.HasClass(id, "math-rendered") || t.HasClass(id, "mention")
	}
	return false
}

// scanText runs resolve over every text node outside skipped subtrees.
func scanText(t *Tree, re *regexp.Regexp, resolve resolveFunc) {
	t.Walk(t.Root(), func(id NodeID) Step {
		switch t.Kind(id) {
		case ElementNode:
			if id != t.Root() && skipResolution(t, id) {
				return SkipChildren
			}
			return Continue
		case TextNode:
			if nodes, ok := substitute(t, t.Text(id), re, resolve); ok {
				return ReplaceWith(nodes...)
			}
		}
		return Continue
	})
}

// substitute splits text around resolved matches. It reports false when
// nothing resolved, so the original node stays byte-for-byte unchanged.
func substitute(t *Tree, text string, re *regexp.Regexp, resolve resolveFunc) ([]NodeID, bool) {
	var out []NodeID
	last, replaced := 0, false
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if !standalone(text, m[0], m[1]) {
			continue
		}
		n, ok := resolve(text, m)
		if !ok {
			continue
		}
		if m[0] > last {
			out = append(out, t.NewText(text[last:m[0]]))
		}
		out = append(out, n)
		last, replaced = m[1], true
	}
	if !replaced {
		return nil, false
	}
	if last < len(text) {
		out = append(out, t.NewText(text[last:]))
	}
	return out, true
}

// standalone reports whether text[start:end] is neither preceded nor
// followed by a word character.
func standalone(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func group(text string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}
