package content

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// mentionPattern matches @keyword and @<slug>--<participation public id>.
// The participation form comes first so @staff--3 is not read as @staff.
var mentionPattern = regexp.MustCompile(`(?i)@([0-9a-z-]+--[0-9]+|everyone|staff|students|anonymous)`)

// mentionKeywords maps a lower-case keyword to the target it records.
var mentionKeywords = map[string]MentionKind{
	"everyone":  MentionEveryone,
	"staff":     MentionInstructors,
	"students":  MentionStudents,
	"anonymous": MentionAnonymous,
}

// resolveMentions replaces mentions with markup and records their targets.
func (r *Renderer) resolveMentions(st *renderState) {
	title := cases.Title(language.English)
	scanText(st.tree, mentionPattern, func(text string, m []int) (NodeID, bool) {
		word := group(text, m, 1)
		if kind, ok := mentionKeywords[strings.ToLower(word)]; ok {
			st.mentions.Add(MentionTarget{Kind: kind})
			return st.tree.Element("strong", []Attr{
				{Key: "class", Val: "mention mention-" + string(kind)},
			}, st.tree.NewText("@"+title.String(strings.ToLower(word)))), true
		}
		return r.participationMention(st, word)
	})
}

func (r *Renderer) participationMention(st *renderState, word string) (NodeID, bool) {
	course := st.rc.Course
	if course == nil {
		return NoNode, false
	}
	publicID := word[strings.LastIndex(word, "--")+2:]
	p, err := r.repo.CourseParticipation(st.ctx, course.ID, publicID)
	if err != nil || p == nil || p.CourseID != course.ID {
		return NoNode, false
	}
	display, err := r.repo.UserDisplay(st.ctx, p.ID)
	if err != nil {
		st.log.WithError(err).WithField("participation", p.PublicID).Debug("Mention without display data")
		return NoNode, false
	}

	t := st.tree
	class := "mention"
	if st.rc.Participation != nil && st.rc.Participation.ID == p.ID {
		class += " mention-self"
	}
	span := t.Element("span", []Attr{
		{Key: "class", Val: class},
		{Key: "data-participation", Val: p.PublicID},
	},
		t.NewText("@"),
		t.Element("strong", nil, t.NewText(display.Name)),
	)
	if p.IsInstructor() {
		t.Append(span, t.NewText(" "))
		t.Append(span, t.Element("span", []Attr{{Key: "class", Val: "mention-role"}}, t.NewText("(instructor)")))
	}
	st.mentions.Add(MentionTarget{Kind: MentionParticipation, ParticipationPublicID: p.PublicID})
	return span, true
}
