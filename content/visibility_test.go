package content

import "testing"

func TestConversationVisibleTo(t *testing.T) {
	instructor := &Participation{ID: 1, CourseID: 1, Role: RoleInstructor}
	selected := &Participation{ID: 2, CourseID: 1, Role: RoleStudent}
	other := &Participation{ID: 3, CourseID: 1, Role: RoleStudent}
	foreign := &Participation{ID: 4, CourseID: 2, Role: RoleInstructor}

	conv := func(v ConversationVisibility) *Conversation {
		return &Conversation{ID: 10, CourseID: 1, Visibility: v, SelectedParticipationIDs: []int64{2}}
	}

	cases := []struct {
		name   string
		conv   *Conversation
		viewer *Participation
		want   bool
	}{
		{"everyone student", conv(VisibilityEveryone), other, true},
		{"everyone anonymous viewer", conv(VisibilityEveryone), nil, true},
		{"everyone other course", conv(VisibilityEveryone), foreign, false},
		{"restricted instructor", conv(VisibilityInstructorsAndSelectedParticipants), instructor, true},
		{"restricted selected", conv(VisibilityInstructorsAndSelectedParticipants), selected, true},
		{"restricted other", conv(VisibilityInstructorsAndSelectedParticipants), other, false},
		{"restricted nobody", conv(VisibilityInstructorsAndSelectedParticipants), nil, false},
		{"selected only instructor", conv(VisibilitySelectedParticipantsOnly), instructor, false},
		{"selected only selected", conv(VisibilitySelectedParticipantsOnly), selected, true},
		{"unknown visibility", conv("secret"), instructor, false},
		{"nil conversation", nil, instructor, false},
	}
	for _, tc := range cases {
		if got := ConversationVisibleTo(tc.conv, tc.viewer); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestMessageVisibleTo(t *testing.T) {
	instructor := &Participation{ID: 1, Role: RoleInstructor}
	student := &Participation{ID: 2, Role: RoleStudent}
	normal := &Message{Visibility: MessageNormal}
	staffOnly := &Message{Visibility: MessageInstructorsOnly}

	if !MessageVisibleTo(normal, student) || !MessageVisibleTo(staffOnly, instructor) {
		t.Fatalf("expected message to be visible")
	}
	if MessageVisibleTo(staffOnly, student) || MessageVisibleTo(staffOnly, nil) || MessageVisibleTo(nil, instructor) {
		t.Fatalf("expected message to be hidden")
	}
}
