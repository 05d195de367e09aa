package content

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeID addresses a node inside a Tree arena.
type NodeID int

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

// NodeKind distinguishes element, text and comment nodes.
type NodeKind uint8

const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
)

// Attr is a single element attribute.
type Attr struct {
	Key string
	Val string
}

type node struct {
	kind     NodeKind
	tag      string
	data     string
	attrs    []Attr
	parent   NodeID
	children []NodeID
}

// Tree is an arena of nodes. Parent/child links are stored as indices so
// transforms never hold back-references into a mutable graph. Detached nodes
// stay in the arena but are unreachable from the root.
type Tree struct {
	nodes []node
	root  NodeID
}

// NewTree returns a tree holding only an empty fragment root.
func NewTree() *Tree {
	t := &Tree{}
	t.root = t.add(node{kind: ElementNode, parent: NoNode})
	return t
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Root returns the fragment root. It has no tag.
func (t *Tree) Root() NodeID { return t.root }

// NewElement creates a detached element.
func (t *Tree) NewElement(tag string, attrs ...Attr) NodeID {
	return t.add(node{kind: ElementNode, tag: tag, attrs: attrs, parent: NoNode})
}

// NewText creates a detached text node.
func (t *Tree) NewText(text string) NodeID {
	return t.add(node{kind: TextNode, data: text, parent: NoNode})
}

// Element creates a detached element with the given children appended.
func (t *Tree) Element(tag string, attrs []Attr, children ...NodeID) NodeID {
	id := t.NewElement(tag, attrs...)
	for _, c := range children {
		t.Append(id, c)
	}
	return id
}

func (t *Tree) Kind(id NodeID) NodeKind     { return t.nodes[id].kind }
func (t *Tree) Tag(id NodeID) string        { return t.nodes[id].tag }
func (t *Tree) Parent(id NodeID) NodeID     { return t.nodes[id].parent }
func (t *Tree) Text(id NodeID) string       { return t.nodes[id].data }
func (t *Tree) SetText(id NodeID, s string) { t.nodes[id].data = s }

// IsElement reports whether id is an element with the given tag.
func (t *Tree) IsElement(id NodeID, tag string) bool {
	return id != NoNode && t.nodes[id].kind == ElementNode && t.nodes[id].tag == tag
}

// Children returns the child list. Callers must not modify it.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// ElementChildren returns the element children of id.
func (t *Tree) ElementChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].children {
		if t.nodes[c].kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Append attaches child as the last child of parent, detaching it first.
func (t *Tree) Append(parent, child NodeID) {
	t.Detach(child)
	t.nodes[child].parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// Prepend attaches child as the first child of parent.
func (t *Tree) Prepend(parent, child NodeID) {
	t.Detach(child)
	t.nodes[child].parent = parent
	kids := t.nodes[parent].children
	t.nodes[parent].children = append([]NodeID{child}, kids...)
}

// Detach removes id from its parent. The subtree stays in the arena.
func (t *Tree) Detach(id NodeID) {
	p := t.nodes[id].parent
	if p == NoNode {
		return
	}
	kids := t.nodes[p].children
	for i, c := range kids {
		if c == id {
			t.nodes[p].children = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
	t.nodes[id].parent = NoNode
}

// Replace puts the given nodes where id was and detaches id.
func (t *Tree) Replace(id NodeID, with ...NodeID) {
	p := t.nodes[id].parent
	if p == NoNode {
		return
	}
	for _, w := range with {
		t.Detach(w)
	}
	kids := t.nodes[p].children
	out := make([]NodeID, 0, len(kids)+len(with))
	for _, c := range kids {
		if c != id {
			out = append(out, c)
			continue
		}
		for _, w := range with {
			t.nodes[w].parent = p
			out = append(out, w)
		}
	}
	t.nodes[p].children = out
	t.nodes[id].parent = NoNode
}

// RemoveChildren detaches every child of id.
func (t *Tree) RemoveChildren(id NodeID) {
	for _, c := range t.nodes[id].children {
		t.nodes[c].parent = NoNode
	}
	t.nodes[id].children = nil
}

// ------------------- Attributes -------------------

// Attrs returns the attributes of id. Callers must not modify the slice.
func (t *Tree) Attrs(id NodeID) []Attr { return t.nodes[id].attrs }

// Attr returns the value of key on id.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	for _, a := range t.nodes[id].attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces key on id.
func (t *Tree) SetAttr(id NodeID, key, val string) {
	attrs := t.nodes[id].attrs
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return
		}
	}
	t.nodes[id].attrs = append(attrs, Attr{Key: key, Val: val})
}

// DelAttr removes key from id.
func (t *Tree) DelAttr(id NodeID, key string) {
	attrs := t.nodes[id].attrs
	out := attrs[:0]
	for _, a := range attrs {
		if a.Key != key {
			out = append(out, a)
		}
	}
	t.nodes[id].attrs = out
}

// SetAttrs replaces the whole attribute list.
func (t *Tree) SetAttrs(id NodeID, attrs []Attr) { t.nodes[id].attrs = attrs }

// HasClass reports whether the class attribute of id contains class.
func (t *Tree) HasClass(id NodeID, class string) bool {
	v, ok := t.Attr(id, "class")
	if !ok {
		return false
	}
	for _, f := range strings.Fields(v) {
		if f == class {
			return true
		}
	}
	return false
}

// TextContent concatenates all descendant text.
func (t *Tree) TextContent(id NodeID) string {
	var b strings.Builder
	t.textContent(id, &b)
	return b.String()
}

func (t *Tree) textContent(id NodeID, b *strings.Builder) {
	n := &t.nodes[id]
	if n.kind == TextNode {
		b.WriteString(n.data)
		return
	}
	for _, c := range n.children {
		t.textContent(c, b)
	}
}

// HasAncestor reports whether any ancestor of id satisfies match.
func (t *Tree) HasAncestor(id NodeID, match func(NodeID) bool) bool {
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		if match(p) {
			return true
		}
	}
	return false
}

// ------------------- Traversal -------------------

type stepKind uint8

const (
	stepContinue stepKind = iota
	stepSkip
	stepRemove
	stepReplace
)

// Step is what a Visitor decides for the node it was handed.
type Step struct {
	kind stepKind
	with []NodeID
}

var (
	// Continue descends into the node's children.
	Continue = Step{kind: stepContinue}
	// SkipChildren keeps the node but does not visit its subtree.
	SkipChildren = Step{kind: stepSkip}
	// Remove detaches the node together with its whole subtree.
	Remove = Step{kind: stepRemove}
)

// ReplaceWith swaps the node for the given nodes. Replacements are final
// markup and are not visited.
func ReplaceWith(ids ...NodeID) Step {
	return Step{kind: stepReplace, with: ids}
}

// Visitor is called once per node in pre-order.
type Visitor func(id NodeID) Step

// Walk is the single traversal primitive shared by every transform.
func (t *Tree) Walk(id NodeID, visit Visitor) {
	step := visit(id)
	switch step.kind {
	case stepRemove:
		t.Detach(id)
		return
	case stepReplace:
		t.Replace(id, step.with...)
		return
	case stepSkip:
		return
	}
	kids := append([]NodeID(nil), t.nodes[id].children...)
	for _, c := range kids {
		// A sibling's visit may have moved or removed c.
		if t.nodes[c].parent != id {
			continue
		}
		t.Walk(c, visit)
	}
}

// ------------------- HTML bridge -------------------

// ParseHTML builds a tree from an HTML fragment.
func ParseHTML(src string) (*Tree, error) {
	t := NewTree()
	ids, err := t.ImportFragment(src, "div")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		t.Append(t.root, id)
	}
	return t, nil
}

// ImportFragment parses src as if it were the content of a contextTag
// element and returns the detached top-level nodes.
func (t *Tree) ImportFragment(src, contextTag string) ([]NodeID, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: contextTag, DataAtom: atom.Lookup([]byte(contextTag))}
	parsed, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	ids := make([]NodeID, 0, len(parsed))
	for _, n := range parsed {
		if id, ok := t.importNode(n); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *Tree) importNode(n *html.Node) (NodeID, bool) {
	var id NodeID
	switch n.Type {
	case html.TextNode:
		return t.NewText(n.Data), true
	case html.CommentNode:
		return t.add(node{kind: CommentNode, data: n.Data, parent: NoNode}), true
	case html.ElementNode:
		tag := n.Data
		if n.Namespace != "" {
			// Foreign content (svg, math) never matches a plain HTML tag.
			tag = n.Namespace + ":" + n.Data
		}
		attrs := make([]Attr, 0, len(n.Attr))
		for _, a := range n.Attr {
			if a.Namespace != "" {
				continue
			}
			attrs = append(attrs, Attr{Key: a.Key, Val: a.Val})
		}
		id = t.NewElement(tag, attrs...)
	default:
		return NoNode, false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cid, ok := t.importNode(c); ok {
			t.Append(id, cid)
		}
	}
	return id, true
}

// Render serializes the children of id.
func (t *Tree) Render(id NodeID) (string, error) {
	var buf bytes.Buffer
	for _, c := range t.nodes[id].children {
		if err := html.Render(&buf, t.exportNode(c)); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// OuterHTML serializes id itself.
func (t *Tree) OuterHTML(id NodeID) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, t.exportNode(id))
	return buf.String()
}

func (t *Tree) exportNode(id NodeID) *html.Node {
	n := &t.nodes[id]
	switch n.kind {
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.data}
	}
	out := &html.Node{Type: html.ElementNode, Data: n.tag, DataAtom: atom.Lookup([]byte(n.tag))}
	for _, a := range n.attrs {
		out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range n.children {
		out.AppendChild(t.exportNode(c))
	}
	return out
}
