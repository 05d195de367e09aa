package content

// restructureFootnotes turns the parser's footnote section (a div.footnotes
// holding a separator rule followed by an ordered list) into a plain block
// and swaps back-reference glyphs for an icon.
func (r *Renderer) restructureFootnotes(st *renderState) {
	t := st.tree
	t.Walk(t.Root(), func(id NodeID) Step {
		if !t.IsElement(id, "div") || !t.HasClass(id, "footnotes") {
			return Continue
		}
		kids := t.ElementChildren(id)
		if len(kids) != 2 || !isFootnoteLabel(t, kids[0]) || !t.IsElement(kids[1], "ol") {
			return SkipChildren
		}
		t.Detach(kids[0])
		t.SetAttrs(id, []Attr{{Key: "class", Val: "footnotes"}})
		for _, a := range descendantsByTag(t, kids[1], "a") {
			if t.HasClass(a, "footnote-backref") {
				replaceBackrefGlyph(t, a)
			}
		}
		return SkipChildren
	})
}

func isFootnoteLabel(t *Tree, id NodeID) bool {
	return t.IsElement(id, "hr") || t.IsElement(id, "h2")
}

func replaceBackrefGlyph(t *Tree, a NodeID) {
	t.RemoveChildren(a)
	icon := t.NewElement("span",
		Attr{Key: "class", Val: "icon icon-footnote-backref"},
		Attr{Key: "aria-hidden", Val: "true"},
	)
	t.Append(a, icon)
	t.SetAttr(a, "aria-label", "Back to content")
}
