package content

// ConversationVisibleTo reports whether viewer may see conversation.
func ConversationVisibleTo(conversation *Conversation, viewer *Participation) bool {
	if conversation == nil {
		return false
	}
	if viewer != nil && viewer.CourseID != conversation.CourseID {
		return false
	}
	switch conversation.Visibility {
	case VisibilityEveryone:
		return true
	case VisibilityInstructorsAndSelectedParticipants:
		return viewer.IsInstructor() || isSelected(conversation, viewer)
	case VisibilitySelectedParticipantsOnly:
		return isSelected(conversation, viewer)
	default:
		return false
	}
}

// MessageVisibleTo reports whether viewer may see message. Conversation
// visibility is checked separately.
func MessageVisibleTo(message *Message, viewer *Participation) bool {
	if message == nil {
		return false
	}
	if message.Visibility == MessageInstructorsOnly {
		return viewer.IsInstructor()
	}
	return true
}

func isSelected(conversation *Conversation, viewer *Participation) bool {
	if viewer == nil {
		return false
	}
	for _, id := range conversation.SelectedParticipationIDs {
		if id == viewer.ID {
			return true
		}
	}
	return false
}
