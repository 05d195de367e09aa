package content

import (
	"regexp"
)

// referencePattern matches #<conversation> and #<conversation>/<message>.
var referencePattern = regexp.MustCompile(`#([0-9]+)(?:/([0-9]+))?`)

// resolveReferences links conversation and message references the viewer
// may see. Anything else stays literal text.
func (r *Renderer) resolveReferences(st *renderState) {
	scanText(st.tree, referencePattern, func(text string, m []int) (NodeID, bool) {
		href, ok := r.referenceURL(st, group(text, m, 1), group(text, m, 2))
		if !ok {
			return NoNode, false
		}
		return st.tree.Element("a", []Attr{
			{Key: "href", Val: href},
			{Key: "class", Val: "reference"},
		}, st.tree.NewText(text[m[0]:m[1]])), true
	})
}

// referenceURL resolves a reference for the viewer and returns its canonical
// URL. Misses and hidden targets look the same to the caller.
func (r *Renderer) referenceURL(st *renderState, conversationID, messageID string) (string, bool) {
	course := st.rc.Course
	if course == nil || conversationID == "" {
		return "", false
	}
	conversation, err := r.repo.Conversation(st.ctx, course.ID, conversationID)
	if err != nil || conversation == nil || conversation.CourseID != course.ID {
		return "", false
	}
	if !ConversationVisibleTo(conversation, st.rc.Participation) {
		return "", false
	}
	if messageID == "" {
		return r.canonicalURL(course.PublicID, conversation.PublicID, ""), true
	}
	message, err := r.repo.Message(st.ctx, conversation.ID, messageID)
	if err != nil || message == nil || message.ConversationID != conversation.ID {
		return "", false
	}
	if !MessageVisibleTo(message, st.rc.Participation) {
		return "", false
	}
	return r.canonicalURL(course.PublicID, conversation.PublicID, message.PublicID), true
}
