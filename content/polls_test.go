package content

import (
	"context"
	"testing"
)

const pollSource = "Which day?\n\n<poll>\n\n- [ ] Monday <votes>[\"1\",\"2\"]</votes>\n- [ ] Friday <votes>[\"3\"]</votes>\n\n</poll>\n"

func TestTally(t *testing.T) {
	cases := []struct {
		name    string
		voters  [][]string
		votes   []int
		percent []int
		total   int
	}{
		{"two to one", [][]string{{"1", "2"}, {"3"}}, []int{2, 1}, []int{67, 33}, 3},
		{"no votes", [][]string{nil, nil}, []int{0, 0}, []int{0, 0}, 0},
		{"three way", [][]string{{"1"}, {"2"}, {"3"}}, []int{1, 1, 1}, []int{33, 33, 33}, 3},
		{"unanimous", [][]string{{"1", "2", "3", "4"}, nil}, []int{4, 0}, []int{100, 0}, 4},
		{"half", [][]string{{"1"}, {"2"}, nil}, []int{1, 1, 0}, []int{50, 50, 0}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var poll Poll
			for _, v := range tc.voters {
				poll.Options = append(poll.Options, PollOption{Voters: v})
			}
			got := Tally(poll)
			if got.Total != tc.total {
				t.Fatalf("expected total %d, got %d", tc.total, got.Total)
			}
			for i, o := range got.Options {
				if o.Votes != tc.votes[i] || o.Percent != tc.percent[i] {
					t.Fatalf("option %d: expected %d votes / %d%%, got %d / %d%%", i, tc.votes[i], tc.percent[i], o.Votes, o.Percent)
				}
			}
		})
	}
}

func TestPollShowsTalliesToInstructor(t *testing.T) {
	f := newFixture(t)
	res := f.render(t, pollSource, f.instructor)

	mustContain(t, res.HTML,
		`<form class="poll"`,
		`action="/courses/101/conversations/5/messages/9/polls/0/votes"`,
		"2 votes", "1 vote", "67%", "33%", "3 votes",
		"Ivy Instructor", "Bob", "Carol",
		"poll-submit",
	)
	mustNotContain(t, res.HTML, "<poll", "<votes", `[&#34;1&#34;`)

	if len(res.Polls) != 1 {
		t.Fatalf("expected one poll, got %d", len(res.Polls))
	}
	opts := res.Polls[0].Options
	if len(opts) != 2 || opts[0].Text != "Monday" || opts[1].Text != "Friday" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts[0].Voters) != 2 || opts[1].Voters[0] != "3" {
		t.Fatalf("unexpected voters: %+v", opts)
	}
}

func TestPollHidesTalliesUntilVote(t *testing.T) {
	f := newFixture(t)

	res := f.render(t, pollSource, f.alice)
	mustContain(t, res.HTML, "Monday", "Friday", "poll-submit", `type="checkbox"`)
	mustNotContain(t, res.HTML, "67%", "poll-count", "poll-voters", "checked")

	res = f.render(t, pollSource, f.bob)
	mustContain(t, res.HTML, "67%", "poll-voters", "checked")
}

func TestPollShowsTalliesToAuthor(t *testing.T) {
	f := newFixture(t)
	authorID := f.alice.ID
	f.message.AuthorID = &authorID

	res := f.render(t, pollSource, f.alice)
	mustContain(t, res.HTML, "67%")
}

func TestPollReadOnlyWhenArchived(t *testing.T) {
	f := newFixture(t)
	f.course.State = CourseArchived

	res := f.render(t, pollSource, f.alice)
	mustContain(t, res.HTML, `<div class="poll">`, "disabled", "67%")
	mustNotContain(t, res.HTML, "<form", "poll-submit")
}

func TestPollDeletedVoter(t *testing.T) {
	f := newFixture(t)
	source := "<poll>\n\n- [ ] Yes <votes>[\"999\"]</votes>\n- [ ] No\n\n</poll>\n"

	res := f.render(t, source, f.instructor)
	mustContain(t, res.HTML, "Deleted course participant", "100%")
}

func TestPollMalformedVotesCountAsNone(t *testing.T) {
	f := newFixture(t)
	source := "<poll>\n\n- [ ] Yes <votes>{\"not\": \"an array\"}</votes>\n- [ ] No <votes>[\"1\"]</votes>\n\n</poll>\n"

	res := f.render(t, source, f.instructor)
	if len(res.Polls) != 1 {
		t.Fatalf("expected poll to survive malformed votes, got %d polls", len(res.Polls))
	}
	if got := len(res.Polls[0].Options[0].Voters); got != 0 {
		t.Fatalf("expected no voters for malformed payload, got %d", got)
	}
	mustContain(t, res.HTML, "0 votes", "100%")
}

func TestInvalidPollsAreDropped(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		source string
	}{
		{"checked option", "<poll>\n\n- [x] Secret\n\n</poll>\n"},
		{"no list", "<poll>\nSecret\n</poll>\n"},
		{"plain list item", "<poll>\n\n- Secret\n\n</poll>\n"},
		{"two lists", "<poll>\n\n- [ ] Secret\n\n<ul><li><input type=\"checkbox\"> Other</li></ul>\n\n</poll>\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.renderer.Render(context.Background(), "Intro\n\n"+tc.source, f.contextFor(f.instructor))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			mustContain(t, res.HTML, "Intro")
			mustNotContain(t, res.HTML, "Secret", "poll")
			if len(res.Polls) != 0 {
				t.Fatalf("expected no polls, got %d", len(res.Polls))
			}
		})
	}
}

func TestPreviewPollIsReadOnly(t *testing.T) {
	f := newFixture(t)
	rc := f.contextFor(f.alice)
	rc.Message = nil

	res, err := f.renderer.Preview(context.Background(), pollSource, rc)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	mustContain(t, res.HTML, `<div class="poll">`, "disabled")
	mustNotContain(t, res.HTML, "<form")
}
