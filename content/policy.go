package content

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// outputPolicy is the last line of defence: every element and attribute the
// pipeline can emit, and nothing else. It runs on the serialized output so a
// bug in a stage cannot leak markup the sanitizer would have dropped.
func outputPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)

	p.AllowElements(
		"a", "b", "blockquote", "br", "code", "del", "details", "div", "em",
		"hr", "h1", "h2", "h3", "h4", "h5", "h6", "i", "img", "kbd", "li",
		"mark", "ol", "p", "pre", "s", "span", "strong", "sub", "summary",
		"sup", "table", "tbody", "td", "th", "thead", "tr", "ul", "video",
		"form", "label", "input", "button",
	)

	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[\p{L}\p{N}_:.-]+$`)).Globally()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w -]+$`)).Globally()
	p.AllowAttrs("aria-hidden").Matching(regexp.MustCompile(`^true$`)).Globally()
	p.AllowAttrs("aria-label").Globally()
	p.AllowDataAttributes()

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")

	numeric := regexp.MustCompile(`^[0-9]+$`)
	p.AllowAttrs("src").OnElements("img", "video")
	p.AllowAttrs("width", "height").Matching(numeric).OnElements("img", "video")
	p.AllowAttrs("alt", "title").OnElements("img")
	p.AllowAttrs("controls", "autoplay", "loop", "muted", "playsinline").Matching(regexp.MustCompile(`^$`)).OnElements("video")
	p.AllowAttrs("preload").Matching(regexp.MustCompile(`^metadata$`)).OnElements("video")

	p.AllowAttrs("align").Matching(regexp.MustCompile(`^(left|center|right)$`)).OnElements("td", "th")
	p.AllowAttrs("start").Matching(numeric).OnElements("ol")
	p.AllowAttrs("open").OnElements("details")

	p.AllowAttrs("method").Matching(regexp.MustCompile(`^post$`)).OnElements("form")
	p.AllowAttrs("action").OnElements("form")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^submit$`)).OnElements("button")
	p.AllowAttrs("name").Matching(regexp.MustCompile(`^options\[\]$`)).OnElements("input")
	p.AllowAttrs("value").Matching(numeric).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	allowKaTeX(p)
	return p
}

// katexStyle admits the em-based box metrics KaTeX writes into style
// attributes and nothing else.
var katexStyle = regexp.MustCompile(`^(\s*(height|width|min-width|top|bottom|vertical-align|margin-left|margin-right|padding-left|border-bottom-width|border-top-width|border-right-width)\s*:\s*-?[0-9]*\.?[0-9]+(em)?\s*;?)+\s*$`)

// allowKaTeX admits the HTML and MathML that server-side KaTeX emits.
func allowKaTeX(p *bluemonday.Policy) {
	p.AllowAttrs("style").Matching(katexStyle).OnElements("span")

	p.AllowElements(
		"math", "semantics", "annotation", "mrow", "mi", "mn", "mo", "ms",
		"mtext", "mspace", "msup", "msub", "msubsup", "mfrac", "msqrt",
		"mroot", "mover", "munder", "munderover", "mtable", "mtr", "mtd",
		"mstyle", "mpadded", "mphantom", "menclose",
	)
	p.AllowAttrs("xmlns").Matching(regexp.MustCompile(`^http://www\.w3\.org/(1998/Math/MathML|2000/svg)$`)).OnElements("math", "svg")
	p.AllowAttrs("display").Matching(regexp.MustCompile(`^(block|inline)$`)).OnElements("math")
	p.AllowAttrs("encoding").Matching(regexp.MustCompile(`^application/x-tex$`)).OnElements("annotation")
	p.AllowAttrs(
		"mathvariant", "stretchy", "fence", "separator", "lspace", "rspace",
		"accent", "accentunder", "linethickness", "columnalign", "rowspacing",
		"columnspacing", "width", "height", "depth", "minsize", "maxsize",
		"movablelimits", "scriptlevel", "displaystyle", "notation", "symmetric",
	).Matching(regexp.MustCompile(`^[\w .%-]+$`)).OnElements(
		"mo", "mi", "mn", "mtext", "mspace", "mfrac", "mover", "munder",
		"munderover", "mtable", "mtd", "mstyle", "mpadded", "menclose",
	)

	p.AllowElements("svg", "path", "line")
	p.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9.]+(em|%)?$`)).OnElements("svg", "line")
	p.AllowAttrs("viewbox", "viewBox").Matching(regexp.MustCompile(`^[0-9 .-]+$`)).OnElements("svg")
	p.AllowAttrs("preserveaspectratio", "preserveAspectRatio").Matching(regexp.MustCompile(`^[A-Za-z ]+$`)).OnElements("svg")
	p.AllowAttrs("d").Matching(regexp.MustCompile(`^[MmLlHhVvCcSsQqTtAaZz0-9\s,.-]+$`)).OnElements("path")
	p.AllowAttrs("x1", "x2", "y1", "y2", "stroke-width").Matching(regexp.MustCompile(`^[0-9.]+(em|%)?$`)).OnElements("line")
}
