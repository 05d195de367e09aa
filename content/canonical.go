package content

import (
	"net/url"
	"regexp"
)

// canonicalURL is the absolute link to a conversation, or to one message of
// it.
func (r *Renderer) canonicalURL(course, conversation, message string) string {
	u := r.origin + "/courses/" + url.PathEscape(course) + "/conversations/" + url.PathEscape(conversation)
	if message != "" {
		u += "?message=" + url.QueryEscape(message)
	}
	return u
}

func canonicalPattern(origin string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(origin) +
		`/courses/([^/?#]+)/conversations/([0-9]+)(?:\?message=([0-9]+))?$`)
}

// canonicalizeLinks shortens pasted canonical links, whose text is the URL
// itself, to #conversation[/message] when the viewer may see the target.
// Anchors already in short form no longer match, so repeated runs are
// no-ops.
func (r *Renderer) canonicalizeLinks(st *renderState) {
	t := st.tree
	course := st.rc.Course
	if course == nil {
		return
	}
	t.Walk(t.Root(), func(id NodeID) Step {
		if !t.IsElement(id, "a") {
			return Continue
		}
		href, _ := t.Attr(id, "href")
		if href == "" || t.TextContent(id) != href {
			return SkipChildren
		}
		m := r.canonical.FindStringSubmatch(href)
		if m == nil || m[1] != url.PathEscape(course.PublicID) {
			return SkipChildren
		}
		if _, ok := r.referenceURL(st, m[2], m[3]); !ok {
			return SkipChildren
		}
		short := "#" + m[2]
		if m[3] != "" {
			short += "/" + m[3]
		}
		t.RemoveChildren(id)
		t.Append(id, t.NewText(short))
		t.SetAttr(id, "class", "reference")
		return SkipChildren
	})
}
