package content

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ------------------- Nesting rules -------------------

// placement describes where a node sits when the sanitizer reaches it.
// Ancestors are nearest first and exclude the fragment root.
type placement struct {
	parent      string
	grandparent string
	ancestors   []string
	first       bool
	parentFirst bool
}

func (p placement) inside(tag string) bool {
	for _, a := range p.ancestors {
		if a == tag {
			return true
		}
	}
	return false
}

// nestingRule decides whether a tag may appear at a placement. A nil rule
// means the tag may appear anywhere.
type nestingRule func(placement) bool

func parentIs(tags ...string) nestingRule {
	return func(p placement) bool {
		for _, t := range tags {
			if p.parent == t {
				return true
			}
		}
		return false
	}
}

// allowedTags is the element whitelist. votes elements are absent on
// purpose: valid polls consume them before descent, and any left over are
// dropped.
var allowedTags = map[string]nestingRule{
	"a": nil, "b": nil, "blockquote": nil, "br": nil, "code": nil,
	"del": nil, "details": nil, "div": nil, "em": nil, "hr": nil,
	"h1": nil, "h2": nil, "h3": nil, "h4": nil, "h5": nil, "h6": nil,
	"i": nil, "img": nil, "kbd": nil, "mark": nil, "ol": nil, "p": nil,
	"pre": nil, "s": nil, "span": nil, "strong": nil, "sub": nil,
	"sup": nil, "table": nil, "ul": nil, "video": nil,

	"li":    parentIs("ul", "ol"),
	"thead": parentIs("table"),
	"tbody": parentIs("table"),
	"tr":    parentIs("thead", "tbody"),
	"th": func(p placement) bool {
		return p.parent == "tr" && p.grandparent == "thead"
	},
	"td": func(p placement) bool {
		return p.parent == "tr" && p.grandparent == "tbody"
	},
	"summary": func(p placement) bool {
		return p.parent == "details" && p.first
	},
	"input": func(p placement) bool {
		if p.parent == "li" && p.first {
			return true
		}
		return p.parent == "p" && p.first && p.grandparent == "li" && p.parentFirst
	},
	"poll": func(p placement) bool {
		return !p.inside("poll")
	},
}

// tagAllowed is the (tag, placement) -> allowed function the sanitizer uses.
func tagAllowed(tag string, p placement) bool {
	rule, ok := allowedTags[tag]
	if !ok {
		return false
	}
	return rule == nil || rule(p)
}

// ------------------- Attribute rules -------------------

type attrRule func(val string) (string, bool)

var (
	numericPattern   = regexp.MustCompile(`^[0-9]+$`)
	codeClassPattern = regexp.MustCompile(`^(language-[A-Za-z0-9_+#.-]+|math-(inline|display))$`)
	mathSpanPattern  = regexp.MustCompile(`^math (inline|display)$`)
	alignPattern     = regexp.MustCompile(`^(left|center|right)$`)
	footnoteLinkPat  = regexp.MustCompile(`^footnote-(ref|backref)$`)
)

func matching(re *regexp.Regexp) attrRule {
	return func(val string) (string, bool) {
		return val, re.MatchString(val)
	}
}

func anyText(val string) (string, bool) { return val, true }

func boolAttr(string) (string, bool) { return "", true }

// safeURL accepts absolute http, https and mailto URLs and bare fragments.
func safeURL(val string) (string, bool) {
	val = strings.TrimSpace(val)
	if strings.HasPrefix(val, "#") {
		return val, true
	}
	u, err := url.Parse(val)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return val, true
	}
	return "", false
}

var allowedAttrs = map[string]map[string]attrRule{
	"a":       {"href": safeURL, "class": matching(footnoteLinkPat)},
	"img":     {"src": safeURL, "alt": anyText, "title": anyText, "width": matching(numericPattern), "height": matching(numericPattern)},
	"video":   {"src": safeURL, "width": matching(numericPattern), "height": matching(numericPattern)},
	"code":    {"class": matching(codeClassPattern)},
	"span":    {"class": matching(mathSpanPattern)},
	"div":     {"class": matching(regexp.MustCompile(`^footnotes$`))},
	"td":      {"align": matching(alignPattern)},
	"th":      {"align": matching(alignPattern)},
	"ol":      {"start": matching(numericPattern)},
	"details": {"open": boolAttr},
	"input":   {"type": matching(regexp.MustCompile(`^checkbox$`)), "checked": boolAttr, "disabled": boolAttr},
}

// elementValid holds whole-element checks that attribute filtering alone
// cannot express.
var elementValid = map[string]func(*Tree, NodeID) bool{
	"input": func(t *Tree, id NodeID) bool {
		typ, _ := t.Attr(id, "type")
		return strings.EqualFold(typ, "checkbox")
	},
}

func filterAttrs(t *Tree, id NodeID) {
	rules := allowedAttrs[t.Tag(id)]
	var kept []Attr
	for _, a := range t.Attrs(id) {
		key := strings.ToLower(a.Key)
		if key == "id" {
			kept = append(kept, Attr{Key: key, Val: a.Val})
			continue
		}
		rule, ok := rules[key]
		if !ok {
			continue
		}
		if v, ok := rule(a.Val); ok {
			kept = append(kept, Attr{Key: key, Val: v})
		}
	}
	t.SetAttrs(id, kept)
}

// ------------------- Sanitizer -------------------

// pollData is a poll that passed structural validation, with the voter lists
// pulled out of its reserved votes elements.
type pollData struct {
	node    NodeID
	options []pollOptionData
}

type pollOptionData struct {
	item   NodeID
	voters []string
}

// sanitize filters tree in place and returns the validated polls in
// document order. A node that fails a check is removed with its subtree.
func sanitize(t *Tree, log logrus.FieldLogger) []*pollData {
	var polls []*pollData
	t.Walk(t.Root(), func(id NodeID) Step {
		if id == t.Root() {
			return Continue
		}
		switch t.Kind(id) {
		case TextNode:
			return Continue
		case CommentNode:
			return Remove
		}
		tag := t.Tag(id)
		if !tagAllowed(tag, placementOf(t, id)) {
			return Remove
		}
		if check, ok := elementValid[tag]; ok && !check(t, id) {
			return Remove
		}
		filterAttrs(t, id)
		if tag == "poll" {
			poll, ok := validatePoll(t, id, log)
			if !ok {
				return Remove
			}
			polls = append(polls, poll)
		}
		return Continue
	})
	return polls
}

func placementOf(t *Tree, id NodeID) placement {
	var p placement
	for a := t.Parent(id); a != NoNode && a != t.Root(); a = t.Parent(a) {
		p.ancestors = append(p.ancestors, t.Tag(a))
	}
	if len(p.ancestors) > 0 {
		p.parent = p.ancestors[0]
	}
	if len(p.ancestors) > 1 {
		p.grandparent = p.ancestors[1]
	}
	p.first = isFirstChild(t, id)
	if parent := t.Parent(id); parent != NoNode && parent != t.Root() {
		p.parentFirst = isFirstChild(t, parent)
	}
	return p
}

// isFirstChild ignores whitespace-only text before id.
func isFirstChild(t *Tree, id NodeID) bool {
	parent := t.Parent(id)
	if parent == NoNode {
		return false
	}
	for _, c := range t.Children(parent) {
		if c == id {
			return true
		}
		if t.Kind(c) == TextNode && strings.TrimSpace(t.Text(c)) == "" {
			continue
		}
		return false
	}
	return false
}

// ------------------- Poll validation -------------------

func validatePoll(t *Tree, id NodeID, log logrus.FieldLogger) (*pollData, bool) {
	list := NoNode
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case TextNode:
			if strings.TrimSpace(t.Text(c)) != "" {
				return nil, false
			}
		case ElementNode:
			if t.Tag(c) != "ul" || list != NoNode {
				return nil, false
			}
			list = c
		}
	}
	if list == NoNode || containsTag(t, list, "poll") {
		return nil, false
	}

	poll := &pollData{node: id}
	for _, item := range t.ElementChildren(list) {
		if t.Tag(item) != "li" {
			return nil, false
		}
		inputs := descendantsByTag(t, item, "input")
		if len(inputs) != 1 || !tagAllowed("input", placementOf(t, inputs[0])) {
			return nil, false
		}
		if _, checked := t.Attr(inputs[0], "checked"); checked {
			return nil, false
		}
		if typ, _ := t.Attr(inputs[0], "type"); !strings.EqualFold(typ, "checkbox") {
			return nil, false
		}
		votes := descendantsByTag(t, item, "votes")
		if len(votes) > 1 {
			return nil, false
		}
		var voters []string
		if len(votes) == 1 {
			voters = parseVoters(t.TextContent(votes[0]), log)
			t.Detach(votes[0])
		}
		poll.options = append(poll.options, pollOptionData{item: item, voters: voters})
	}
	if len(poll.options) == 0 {
		return nil, false
	}
	return poll, true
}

// parseVoters reads a JSON array of participation public ids. Anything else
// yields an empty voter list.
func parseVoters(raw string, log logrus.FieldLogger) []string {
	var values []any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &values); err != nil {
		log.WithError(err).Debug("Ignoring malformed poll votes")
		return nil
	}
	voters := make([]string, 0, len(values))
	for _, v := range values {
		switch v := v.(type) {
		case string:
			voters = append(voters, v)
		case float64:
			voters = append(voters, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return voters
}

func descendantsByTag(t *Tree, id NodeID, tag string) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.IsElement(c, tag) {
			out = append(out, c)
		}
		out = append(out, descendantsByTag(t, c, tag)...)
	}
	return out
}

func containsTag(t *Tree, id NodeID, tag string) bool {
	return len(descendantsByTag(t, id, tag)) > 0
}
