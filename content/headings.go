package content

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// anchorHeadings gives every heading a slug id, unique within this render,
// and a permalink pointing at it. Ids are namespaced later with the rest.
func (r *Renderer) anchorHeadings(st *renderState) {
	t := st.tree
	t.Walk(t.Root(), func(id NodeID) Step {
		if t.Kind(id) != ElementNode || !headingTags[t.Tag(id)] {
			return Continue
		}
		slug := st.slugs.Slug(t.TextContent(id))
		t.SetAttr(id, "id", slug)
		icon := t.NewElement("span",
			Attr{Key: "class", Val: "icon icon-link"},
			Attr{Key: "aria-hidden", Val: "true"},
		)
		link := t.Element("a", []Attr{
			{Key: "href", Val: "#" + slug},
			{Key: "class", Val: "heading-anchor"},
		}, icon)
		t.Prepend(id, link)
		return SkipChildren
	})
}
