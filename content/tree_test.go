package content

import "testing"

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := ParseHTML(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return tree
}

func mustRender(t *testing.T, tree *Tree) string {
	t.Helper()
	out, err := tree.Render(tree.Root())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestTreeRoundTrip(t *testing.T) {
	src := `<p>a <em>b</em></p><ul><li>c</li></ul>`
	if got := mustRender(t, mustParse(t, src)); got != src {
		t.Fatalf("expected %q, got %q", src, got)
	}
}

func TestWalkVisitsInPreOrder(t *testing.T) {
	tree := mustParse(t, `<div><p>a</p><p>b</p></div><span>c</span>`)
	var tags []string
	tree.Walk(tree.Root(), func(id NodeID) Step {
		if tree.Kind(id) == ElementNode && id != tree.Root() {
			tags = append(tags, tree.Tag(id))
		}
		return Continue
	})
	want := []string{"div", "p", "p", "span"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}
}

func TestWalkRemoveAndReplace(t *testing.T) {
	tree := mustParse(t, `<p>keep</p><b>drop <i>all</i></b><em>swap</em>`)
	visited := 0
	tree.Walk(tree.Root(), func(id NodeID) Step {
		switch {
		case tree.IsElement(id, "b"):
			return Remove
		case tree.IsElement(id, "em"):
			repl := tree.Element("strong", nil, tree.NewText("new"))
			return ReplaceWith(repl)
		case tree.IsElement(id, "strong"), tree.IsElement(id, "i"):
			visited++
		}
		return Continue
	})
	if visited != 0 {
		t.Fatalf("removed and replacement nodes must not be visited, got %d visits", visited)
	}
	if got, want := mustRender(t, tree), `<p>keep</p><strong>new</strong>`; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWalkSkipChildren(t *testing.T) {
	tree := mustParse(t, `<pre><code>x</code></pre><code>y</code>`)
	codes := 0
	tree.Walk(tree.Root(), func(id NodeID) Step {
		if tree.IsElement(id, "pre") {
			return SkipChildren
		}
		if tree.IsElement(id, "code") {
			codes++
		}
		return Continue
	})
	if codes != 1 {
		t.Fatalf("expected one code outside pre, got %d", codes)
	}
}

func TestTreeEditing(t *testing.T) {
	tree := mustParse(t, `<p>b</p>`)
	p := tree.Children(tree.Root())[0]

	tree.Prepend(p, tree.NewText("a"))
	tree.Append(p, tree.NewText("c"))
	tree.SetAttr(p, "id", "x")
	tree.SetAttr(p, "class", "one two")
	if !tree.HasClass(p, "two") || tree.HasClass(p, "three") {
		t.Fatalf("HasClass mismatch on %q", tree.OuterHTML(p))
	}
	tree.DelAttr(p, "class")
	if got := tree.TextContent(p); got != "abc" {
		t.Fatalf("expected text abc, got %q", got)
	}
	if got, want := tree.OuterHTML(p), `<p id="x">abc</p>`; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	tree.Detach(p)
	if tree.Parent(p) != NoNode || len(tree.Children(tree.Root())) != 0 {
		t.Fatalf("expected p to be detached")
	}
}

func TestImportFragmentKeepsForeignContentApart(t *testing.T) {
	tree := NewTree()
	ids, err := tree.ImportFragment(`<svg><a href="x">l</a></svg>`, "div")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(ids) != 1 || tree.Tag(ids[0]) != "svg:svg" {
		t.Fatalf("expected namespaced svg root, got %v", ids)
	}
	if tree.HasAncestor(ids[0], func(NodeID) bool { return true }) {
		t.Fatalf("imported nodes must be detached")
	}
}
