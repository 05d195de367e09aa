package content

import (
	"context"
	"testing"
)

func TestCanonicalizeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	href := testOrigin + "/courses/101/conversations/5?message=3"

	tree := mustParse(t, `<p><a href="`+href+`">`+href+`</a> and <a href="`+href+`">#5/3</a></p>`)
	st := &renderState{
		ctx:      context.Background(),
		rc:       f.contextFor(f.alice),
		tree:     tree,
		prefix:   f.message.PublicID,
		slugs:    NewSlugger(),
		mentions: make(MentionSet),
		result:   &Result{},
		log:      quietLogger(),
	}

	f.renderer.canonicalizeLinks(st)
	once := mustRender(t, tree)
	f.renderer.canonicalizeLinks(st)
	twice := mustRender(t, tree)

	if once != twice {
		t.Fatalf("second pass changed output:\n%s\n%s", once, twice)
	}
	want := `<p><a href="` + href + `" class="reference">#5/3</a> and <a href="` + href + `">#5/3</a></p>`
	if once != want {
		t.Fatalf("expected %q, got %q", want, once)
	}
}

func TestCanonicalizeIgnoresOtherCourses(t *testing.T) {
	f := newFixture(t)
	href := testOrigin + "/courses/999/conversations/5"

	res := f.render(t, href, f.instructor)
	mustContain(t, res.HTML, ">"+href+"</a>")
}
