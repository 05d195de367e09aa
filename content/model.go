package content

import (
	"sort"
	"strings"
)

// ------------------- Data Models -------------------

// CourseState is the lifecycle state of a course.
type CourseState string

const (
	CourseActive   CourseState = "active"
	CourseArchived CourseState = "archived"
)

// Role is a participant's role within one course.
type Role string

const (
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// ConversationVisibility governs who may see a conversation.
type ConversationVisibility string

const (
	VisibilityEveryone                          ConversationVisibility = "everyone"
	VisibilityInstructorsAndSelectedParticipants ConversationVisibility = "instructors-and-selected-participants"
	VisibilitySelectedParticipantsOnly          ConversationVisibility = "selected-participants-only"
)

// MessageVisibility governs who may see a single message.
type MessageVisibility string

const (
	MessageNormal          MessageVisibility = "normal"
	MessageInstructorsOnly MessageVisibility = "instructors-only"
)

// Course represents a course.
type Course struct {
	ID       int64       `json:"id"`
	PublicID string      `json:"public_id"`
	State    CourseState `json:"state"`
}

// Archived reports whether the course no longer accepts activity.
func (c *Course) Archived() bool {
	return c != nil && c.State == CourseArchived
}

// Participation represents a user's enrollment in one course.
type Participation struct {
	ID       int64  `json:"id"`
	PublicID string `json:"public_id"`
	CourseID int64  `json:"course_id"`
	UserID   int64  `json:"user_id"`
	Role     Role   `json:"role"`
}

// IsInstructor reports whether the participation has the instructor role.
func (p *Participation) IsInstructor() bool {
	return p != nil && p.Role == RoleInstructor
}

// Conversation represents a discussion thread within a course.
type Conversation struct {
	ID                       int64                  `json:"id"`
	PublicID                 string                 `json:"public_id"`
	CourseID                 int64                  `json:"course_id"`
	Title                    string                 `json:"title"`
	Visibility               ConversationVisibility `json:"visibility"`
	SelectedParticipationIDs []int64                `json:"selected_participation_ids,omitempty"`
}

// Message represents a single message within a conversation.
type Message struct {
	ID             int64             `json:"id"`
	PublicID       string            `json:"public_id"`
	ConversationID int64             `json:"conversation_id"`
	Content        string            `json:"content"`
	Visibility     MessageVisibility `json:"visibility"`
	AuthorID       *int64            `json:"author_id,omitempty"`
}

// Poll is materialized from message content; it is never stored on its own.
type Poll struct {
	Options []PollOption
}

// PollOption is one choice of a poll together with the public ids of the
// participations that voted for it.
type PollOption struct {
	Text   string
	Voters []string
}

// ------------------- Mentions -------------------

// MentionKind identifies what a mention targets.
type MentionKind string

const (
	MentionEveryone      MentionKind = "everyone"
	MentionInstructors   MentionKind = "instructors"
	MentionStudents      MentionKind = "students"
	MentionAnonymous     MentionKind = "anonymous"
	MentionParticipation MentionKind = "participation"
)

// MentionTarget is one entry of the mention side channel.
type MentionTarget struct {
	Kind                  MentionKind `json:"kind"`
	ParticipationPublicID string      `json:"participation_public_id,omitempty"`
}

// String returns the target in its keyword or public id form.
func (t MentionTarget) String() string {
	if t.Kind == MentionParticipation {
		return t.ParticipationPublicID
	}
	return string(t.Kind)
}

// MentionSet is the set of targets mentioned by one rendered message.
type MentionSet map[MentionTarget]struct{}

// Add records a target.
func (s MentionSet) Add(t MentionTarget) {
	s[t] = struct{}{}
}

// Has reports whether the target was mentioned.
func (s MentionSet) Has(t MentionTarget) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the targets in a stable order.
func (s MentionSet) Sorted() []MentionTarget {
	out := make([]MentionTarget, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return strings.Compare(out[i].ParticipationPublicID, out[j].ParticipationPublicID) < 0
	})
	return out
}
