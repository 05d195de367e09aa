package content

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sanitizeHTML(t *testing.T, src string) (string, []*pollData) {
	t.Helper()
	tree, err := ParseHTML(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	polls := sanitize(tree, quietLogger())
	out, err := tree.Render(tree.Root())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out, polls
}

func TestTagAllowed(t *testing.T) {
	cases := []struct {
		tag  string
		at   placement
		want bool
	}{
		{"p", placement{}, true},
		{"script", placement{}, false},
		{"li", placement{parent: "ul"}, true},
		{"li", placement{parent: "ol"}, true},
		{"li", placement{parent: "div"}, false},
		{"th", placement{parent: "tr", grandparent: "thead"}, true},
		{"th", placement{parent: "tr", grandparent: "tbody"}, false},
		{"td", placement{parent: "tr", grandparent: "tbody"}, true},
		{"tr", placement{parent: "table"}, false},
		{"summary", placement{parent: "details", first: true}, true},
		{"summary", placement{parent: "details"}, false},
		{"input", placement{parent: "li", first: true}, true},
		{"input", placement{parent: "li"}, false},
		{"input", placement{parent: "p", grandparent: "li", first: true, parentFirst: true}, true},
		{"input", placement{parent: "p", grandparent: "li", first: true}, false},
		{"input", placement{parent: "p", first: true, parentFirst: true}, false},
		{"poll", placement{}, true},
		{"poll", placement{parent: "div", ancestors: []string{"div", "poll"}}, false},
		{"votes", placement{parent: "li"}, false},
	}
	for _, tc := range cases {
		if got := tagAllowed(tc.tag, tc.at); got != tc.want {
			t.Fatalf("tagAllowed(%q, %+v) = %v, want %v", tc.tag, tc.at, got, tc.want)
		}
	}
}

func TestSanitizeRemovesSubtrees(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"script", `<p>a</p><script>evil()</script>`, `<p>a</p>`},
		{"wrapper not unwrapped", `<section><b>inner</b></section><p>ok</p>`, `<p>ok</p>`},
		{"stray li", `<ul><li>a</li></ul><li>b</li>`, `<ul><li>a</li></ul>`},
		{"comment", `<p>a<!-- hidden --></p>`, `<p>a</p>`},
		{"summary not first", `<details>body<summary>s</summary></details>`, `<details>body</details>`},
		{"summary first", `<details><summary>s</summary>body</details>`, `<details><summary>s</summary>body</details>`},
		{"svg", `<p>x</p><svg><circle r="1"></circle></svg>`, `<p>x</p>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := sanitizeHTML(t, tc.in)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSanitizeTables(t *testing.T) {
	got, _ := sanitizeHTML(t, `<table><thead><tr><th align="left">h</th></tr></thead><tbody><tr><td align="middle">d</td></tr></tbody></table>`)
	want := `<table><thead><tr><th align="left">h</th></tr></thead><tbody><tr><td>d</td></tr></tbody></table>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSanitizeCheckboxes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		keep bool
	}{
		{"first in li", `<ul><li><input type="checkbox" disabled> a</li></ul>`, true},
		{"first in first p", `<ul><li><p><input type="checkbox"> a</p></li></ul>`, true},
		{"not first", `<ul><li>a <input type="checkbox"></li></ul>`, false},
		{"outside list", `<p><input type="checkbox"></p>`, false},
		{"text input", `<ul><li><input type="text"> a</li></ul>`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := sanitizeHTML(t, tc.in)
			if kept := strings.Contains(got, "<input"); kept != tc.keep {
				t.Fatalf("expected input kept=%v, got %q", tc.keep, got)
			}
		})
	}
}

func TestSanitizeAttributes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"javascript href", `<a href="javascript:alert(1)" onclick="x()">l</a>`, `<a>l</a>`},
		{"mailto", `<a href="mailto:a@example.com">m</a>`, `<a href="mailto:a@example.com">m</a>`},
		{"fragment", `<a href="#top">t</a>`, `<a href="#top">t</a>`},
		{"relative", `<a href="/etc/passwd">r</a>`, `<a>r</a>`},
		{"image size", `<img src="https://x.example/a.png" width="10" height="1e3">`, `<img src="https://x.example/a.png" width="10"/>`},
		{"data image", `<img src="data:image/png;base64,AAAA">`, `<img/>`},
		{"code language", `<code class="language-go">x</code>`, `<code class="language-go">x</code>`},
		{"code other class", `<code class="evil">x</code>`, `<code>x</code>`},
		{"id kept", `<p id="x" style="color:red">p</p>`, `<p id="x">p</p>`},
		{"ordered start", `<ol start="3" type="a"><li>x</li></ol>`, `<ol start="3"><li>x</li></ol>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := sanitizeHTML(t, tc.in)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSanitizeExtractsPollVotes(t *testing.T) {
	got, polls := sanitizeHTML(t, `<poll><ul><li><input type="checkbox"> A <votes>["1", 2]</votes></li><li><input type="checkbox"> B</li></ul></poll>`)
	if len(polls) != 1 {
		t.Fatalf("expected one poll, got %d", len(polls))
	}
	if strings.Contains(got, "votes") {
		t.Fatalf("votes element leaked: %q", got)
	}
	opts := polls[0].options
	if len(opts) != 2 {
		t.Fatalf("expected two options, got %d", len(opts))
	}
	if len(opts[0].voters) != 2 || opts[0].voters[0] != "1" || opts[0].voters[1] != "2" {
		t.Fatalf("unexpected voters %v", opts[0].voters)
	}
	if len(opts[1].voters) != 0 {
		t.Fatalf("expected no voters for B, got %v", opts[1].voters)
	}
}

func TestSanitizeRejectsInvalidPolls(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"nested", `<poll><ul><li><input type="checkbox"> A<poll><ul><li><input type="checkbox"> B</li></ul></poll></li></ul></poll>`},
		{"two inputs", `<poll><ul><li><input type="checkbox"> A <input type="checkbox"></li></ul></poll>`},
		{"checked", `<poll><ul><li><input type="checkbox" checked> A</li></ul></poll>`},
		{"two votes", `<poll><ul><li><input type="checkbox"> A<votes>[]</votes><votes>[]</votes></li></ul></poll>`},
		{"ordered list", `<poll><ol><li><input type="checkbox"> A</li></ol></poll>`},
		{"empty list", `<poll><ul></ul></poll>`},
		{"stray text", `<poll>hello<ul><li><input type="checkbox"> A</li></ul></poll>`},
		{"wrapped checkbox", `<poll><ul><li><b><input type="checkbox"></b> A</li></ul></poll>`},
		{"late checkbox", `<poll><ul><li>A <input type="checkbox"></li></ul></poll>`},
		{"checkbox in later paragraph", `<poll><ul><li><p>A</p><p><input type="checkbox"> B</p></li></ul></poll>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, polls := sanitizeHTML(t, tc.in)
			if len(polls) != 0 || got != "" {
				t.Fatalf("expected poll dropped, got %q (%d polls)", got, len(polls))
			}
		})
	}
}

func TestSanitizeAcceptsParagraphCheckbox(t *testing.T) {
	_, polls := sanitizeHTML(t, `<poll><ul><li><p><input type="checkbox"> A</p></li><li><input type="checkbox"> B</li></ul></poll>`)
	if len(polls) != 1 || len(polls[0].options) != 2 {
		t.Fatalf("expected a two-option poll, got %d polls", len(polls))
	}
}

func TestParseVoters(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{`["1","2"]`, []string{"1", "2"}},
		{` [3, "4", null] `, []string{"3", "4"}},
		{`{"a":1}`, nil},
		{`not json`, nil},
		{`[]`, []string{}},
	}
	for _, tc := range cases {
		got := parseVoters(tc.raw, quietLogger())
		if len(got) != len(tc.want) {
			t.Fatalf("parseVoters(%q) = %v, want %v", tc.raw, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("parseVoters(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		}
	}
}
