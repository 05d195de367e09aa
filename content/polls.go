package content

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// PreviewMessageID is the placeholder public id of content not yet stored.
const PreviewMessageID = "preview"

const deletedParticipant = "Deleted course participant"

// OptionTally is the computed result of one poll option.
type OptionTally struct {
	Votes   int `json:"votes"`
	Percent int `json:"percent"`
}

// PollTally is the computed result of a whole poll.
type PollTally struct {
	Options []OptionTally `json:"options"`
	Total   int           `json:"total"`
}

// Tally counts votes per option. Percentages are rounded to the nearest
// integer and are 0 while nobody has voted.
func Tally(p Poll) PollTally {
	out := PollTally{Options: make([]OptionTally, len(p.Options))}
	for i, o := range p.Options {
		out.Options[i].Votes = len(o.Voters)
		out.Total += len(o.Voters)
	}
	if out.Total == 0 {
		return out
	}
	for i := range out.Options {
		out.Options[i].Percent = int(math.Round(float64(out.Options[i].Votes) / float64(out.Total) * 100))
	}
	return out
}

// HasVoted reports whether participationPublicID voted for any option.
func (p Poll) HasVoted(participationPublicID string) bool {
	for _, o := range p.Options {
		if o.Voted(participationPublicID) {
			return true
		}
	}
	return false
}

// Voted reports whether participationPublicID voted for this option.
func (o PollOption) Voted(participationPublicID string) bool {
	if participationPublicID == "" {
		return false
	}
	for _, v := range o.Voters {
		if v == participationPublicID {
			return true
		}
	}
	return false
}

// ------------------- Pipeline stage -------------------

// materializePolls replaces every validated poll with its voting or tally
// view for the current viewer.
func (r *Renderer) materializePolls(st *renderState) {
	names := make(map[string]string)
	for n, data := range st.polls {
		if st.tree.Parent(data.node) == NoNode {
			continue
		}
		poll, labels := pollFromData(st.tree, data)
		st.result.Polls = append(st.result.Polls, poll)
		view := r.pollView(st, n, poll, labels, names)
		st.tree.Replace(data.node, view)
	}
}

// pollFromData pulls option text and label content out of the validated
// structure. The checkbox input itself is dropped; the view builds its own.
func pollFromData(t *Tree, data *pollData) (Poll, [][]NodeID) {
	var poll Poll
	labels := make([][]NodeID, 0, len(data.options))
	for _, opt := range data.options {
		var content []NodeID
		for _, c := range append([]NodeID(nil), t.Children(opt.item)...) {
			switch {
			case t.IsElement(c, "input"):
			case t.IsElement(c, "p") && len(descendantsByTag(t, c, "input")) > 0:
				for _, gc := range append([]NodeID(nil), t.Children(c)...) {
					if !t.IsElement(gc, "input") {
						content = append(content, gc)
					}
				}
			default:
				content = append(content, c)
			}
		}
		var text strings.Builder
		for _, c := range content {
			text.WriteString(t.TextContent(c))
		}
		poll.Options = append(poll.Options, PollOption{
			Text:   strings.TrimSpace(text.String()),
			Voters: opt.voters,
		})
		labels = append(labels, content)
	}
	return poll, labels
}

func (r *Renderer) pollView(st *renderState, n int, poll Poll, labels [][]NodeID, names map[string]string) NodeID {
	t := st.tree
	rc := st.rc
	viewer := ""
	if rc.Participation != nil {
		viewer = rc.Participation.PublicID
	}
	readOnly := rc.Course == nil || rc.Course.Archived() || rc.Conversation == nil || rc.Message == nil ||
		rc.Message.PublicID == PreviewMessageID || rc.Participation == nil
	showTallies := rc.Participation.IsInstructor() || isAuthor(rc) || poll.HasVoted(viewer) || rc.Course.Archived()

	var view NodeID
	if readOnly {
		view = t.NewElement("div", Attr{Key: "class", Val: "poll"})
	} else {
		view = t.NewElement("form",
			Attr{Key: "class", Val: "poll"},
			Attr{Key: "method", Val: "post"},
			Attr{Key: "action", Val: voteAction(rc, n)},
		)
	}

	tally := Tally(poll)
	for i, opt := range poll.Options {
		input := t.NewElement("input",
			Attr{Key: "type", Val: "checkbox"},
			Attr{Key: "name", Val: "options[]"},
			Attr{Key: "value", Val: strconv.Itoa(i)},
		)
		if opt.Voted(viewer) {
			t.SetAttr(input, "checked", "")
		}
		if readOnly {
			t.SetAttr(input, "disabled", "")
		}
		label := t.Element("label", []Attr{{Key: "class", Val: "poll-choice"}}, input)
		for _, c := range labels[i] {
			t.Append(label, c)
		}
		option := t.Element("div", []Attr{{Key: "class", Val: "poll-option"}}, label)

		if showTallies {
			t.Append(option, t.Element("span", []Attr{{Key: "class", Val: "poll-count"}},
				t.NewText(pluralVotes(tally.Options[i].Votes))))
			pct := strconv.Itoa(tally.Options[i].Percent)
			t.Append(option, t.Element("span", []Attr{
				{Key: "class", Val: "poll-percent"},
				{Key: "data-percent", Val: pct},
			}, t.NewText(pct+"%")))
			if len(opt.Voters) > 0 {
				voters := t.NewElement("ul", Attr{Key: "class", Val: "poll-voters"})
				for _, v := range opt.Voters {
					t.Append(voters, t.Element("li", []Attr{{Key: "class", Val: "poll-voter"}},
						t.NewText(r.voterName(st, v, names))))
				}
				t.Append(option, voters)
			}
		}
		t.Append(view, option)
	}

	if showTallies {
		t.Append(view, t.Element("p", []Attr{{Key: "class", Val: "poll-total"}},
			t.NewText(pluralVotes(tally.Total))))
	}
	if !readOnly {
		t.Append(view, t.Element("button", []Attr{
			{Key: "type", Val: "submit"},
			{Key: "class", Val: "poll-submit"},
		}, t.NewText("Vote")))
	}
	return view
}

func isAuthor(rc Context) bool {
	return rc.Participation != nil && rc.Message != nil && rc.Message.AuthorID != nil &&
		*rc.Message.AuthorID == rc.Participation.ID
}

func voteAction(rc Context, n int) string {
	return "/courses/" + url.PathEscape(rc.Course.PublicID) +
		"/conversations/" + url.PathEscape(rc.Conversation.PublicID) +
		"/messages/" + url.PathEscape(rc.Message.PublicID) +
		"/polls/" + strconv.Itoa(n) + "/votes"
}

// voterName resolves a voter through the repository. Voters that no longer
// resolve are shown as deleted rather than failing the render.
func (r *Renderer) voterName(st *renderState, publicID string, names map[string]string) string {
	if name, ok := names[publicID]; ok {
		return name
	}
	name := deletedParticipant
	if st.rc.Course != nil {
		if p, err := r.repo.CourseParticipation(st.ctx, st.rc.Course.ID, publicID); err == nil && p != nil {
			if d, err := r.repo.UserDisplay(st.ctx, p.ID); err == nil {
				name = d.Name
			}
		}
	}
	names[publicID] = name
	return name
}

func pluralVotes(n int) string {
	if n == 1 {
		return "1 vote"
	}
	return strconv.Itoa(n) + " votes"
}
