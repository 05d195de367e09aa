package content

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const testOrigin = "https://courses.example.edu"

type fixture struct {
	repo       *MemoryRepository
	renderer   *Renderer
	hook       *test.Hook
	course     *Course
	instructor *Participation
	alice      *Participation
	bob        *Participation
	carol      *Participation
	outsider   *Participation
	open       *Conversation
	restricted *Conversation
	private    *Conversation
	message    *Message
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{repo: NewMemoryRepository()}
	f.course = &Course{ID: 1, PublicID: "101", State: CourseActive}
	f.instructor = &Participation{ID: 10, PublicID: "1", CourseID: 1, UserID: 1, Role: RoleInstructor}
	f.alice = &Participation{ID: 42, PublicID: "42", CourseID: 1, UserID: 2, Role: RoleStudent}
	f.bob = &Participation{ID: 43, PublicID: "2", CourseID: 1, UserID: 3, Role: RoleStudent}
	f.carol = &Participation{ID: 44, PublicID: "3", CourseID: 1, UserID: 4, Role: RoleStudent}
	f.outsider = &Participation{ID: 50, PublicID: "50", CourseID: 2, UserID: 5, Role: RoleStudent}
	f.repo.AddParticipation(f.instructor, "Ivy Instructor")
	f.repo.AddParticipation(f.alice, "Alice")
	f.repo.AddParticipation(f.bob, "Bob")
	f.repo.AddParticipation(f.carol, "Carol")
	f.repo.AddParticipation(f.outsider, "Mallory")

	f.open = &Conversation{ID: 100, PublicID: "5", CourseID: 1, Title: "Welcome", Visibility: VisibilityEveryone}
	f.restricted = &Conversation{
		ID: 101, PublicID: "7", CourseID: 1, Title: "Grading",
		Visibility:               VisibilityInstructorsAndSelectedParticipants,
		SelectedParticipationIDs: []int64{f.bob.ID},
	}
	f.private = &Conversation{
		ID: 102, PublicID: "8", CourseID: 1, Title: "Private",
		Visibility:               VisibilitySelectedParticipantsOnly,
		SelectedParticipationIDs: []int64{f.alice.ID},
	}
	f.repo.AddConversation(f.open)
	f.repo.AddConversation(f.restricted)
	f.repo.AddConversation(f.private)
	f.repo.AddConversation(&Conversation{ID: 200, PublicID: "6", CourseID: 2, Visibility: VisibilityEveryone})

	f.repo.AddMessage(&Message{ID: 1000, PublicID: "3", ConversationID: 100, Visibility: MessageNormal})
	f.repo.AddMessage(&Message{ID: 1001, PublicID: "4", ConversationID: 100, Visibility: MessageInstructorsOnly})

	authorID := f.instructor.ID
	f.message = &Message{ID: 2000, PublicID: "9", ConversationID: 100, Visibility: MessageNormal, AuthorID: &authorID}

	log := logrus.New()
	log.SetOutput(io.Discard)
	f.hook = test.NewLocal(log)

	opts = append([]Option{WithOrigin(testOrigin), WithLogger(log)}, opts...)
	r, err := NewRenderer(f.repo, opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	f.renderer = r
	return f
}

// contextFor renders the fixture message for viewer.
func (f *fixture) contextFor(viewer *Participation) Context {
	return Context{Course: f.course, Participation: viewer, Conversation: f.open, Message: f.message}
}

func (f *fixture) render(t *testing.T, source string, viewer *Participation) *Result {
	t.Helper()
	res, err := f.renderer.Render(context.Background(), source, f.contextFor(viewer))
	if err != nil {
		t.Fatalf("render %q: %v", source, err)
	}
	return res
}

func mustContain(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(html, p) {
			t.Fatalf("expected output to contain %q, got:\n%s", p, html)
		}
	}
}

func mustNotContain(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if strings.Contains(html, p) {
			t.Fatalf("expected output not to contain %q, got:\n%s", p, html)
		}
	}
}
