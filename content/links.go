package content

import (
	"net/url"
	"strings"
)

// normalizeLinks namespaces ids and fragments with the message public id,
// opens external and file links in a new tab, routes foreign media through
// the proxy and sets video playback attributes.
func (r *Renderer) normalizeLinks(st *renderState) {
	t := st.tree
	t.Walk(t.Root(), func(id NodeID) Step {
		if id == t.Root() || t.Kind(id) != ElementNode {
			return Continue
		}
		if v, ok := t.Attr(id, "id"); ok && v != "" {
			t.SetAttr(id, "id", st.prefix+"--"+v)
		}
		switch t.Tag(id) {
		case "a":
			r.normalizeAnchor(st, id)
		case "img":
			r.proxyMedia(t, id)
		case "video":
			r.proxyMedia(t, id)
			setVideoPlayback(t, id)
		}
		return Continue
	})
}

func (r *Renderer) normalizeAnchor(st *renderState, id NodeID) {
	t := st.tree
	href, ok := t.Attr(id, "href")
	if !ok {
		return
	}
	if frag, ok := strings.CutPrefix(href, "#"); ok {
		if frag != "" {
			t.SetAttr(id, "href", "#"+st.prefix+"--"+frag)
		}
		return
	}
	u, err := url.Parse(href)
	if err != nil {
		return
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return
	}
	if !r.sameOrigin(u) || strings.HasPrefix(u.Path, r.filesPath) {
		t.SetAttr(id, "target", "_blank")
		t.SetAttr(id, "rel", "noopener noreferrer")
	}
}

func (r *Renderer) sameOrigin(u *url.URL) bool {
	return r.originURL != nil &&
		strings.EqualFold(u.Scheme, r.originURL.Scheme) &&
		strings.EqualFold(u.Host, r.originURL.Host)
}

// proxyMedia rewrites a foreign src to the same-origin media proxy.
func (r *Renderer) proxyMedia(t *Tree, id NodeID) {
	src, ok := t.Attr(id, "src")
	if !ok || src == "" {
		return
	}
	u, err := url.Parse(src)
	if err != nil || r.sameOrigin(u) {
		return
	}
	t.SetAttr(id, "src", r.ProxyURL(src))
}

// ProxyURL is the same-origin media proxy address for a foreign URL.
func (r *Renderer) ProxyURL(src string) string {
	return r.origin + r.proxyPath + "?url=" + url.QueryEscape(src)
}

// setVideoPlayback treats a video that is the sole child of a link as an
// animated preview and gives every other video standard controls.
func setVideoPlayback(t *Tree, id NodeID) {
	if parent := t.Parent(id); t.IsElement(parent, "a") && soleChild(t, parent, id) {
		t.DelAttr(id, "controls")
		t.DelAttr(id, "preload")
		for _, key := range []string{"autoplay", "loop", "muted", "playsinline"} {
			t.SetAttr(id, key, "")
		}
		return
	}
	t.SetAttr(id, "controls", "")
	t.SetAttr(id, "preload", "metadata")
}

// soleChild ignores whitespace-only text siblings.
func soleChild(t *Tree, parent, id NodeID) bool {
	for _, c := range t.Children(parent) {
		if c == id {
			continue
		}
		if t.Kind(c) == TextNode && strings.TrimSpace(t.Text(c)) == "" {
			continue
		}
		return false
	}
	return true
}
