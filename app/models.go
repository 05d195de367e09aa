package app

import (
	"time"

	"courseboard/content"
)

// ------------------- Data Models -------------------

// User is an account. Participations tie a user to courses.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Created      time.Time `json:"created"`
}

// viewer is the authenticated participation behind a request, together with
// its course.
type viewer struct {
	Course        *content.Course
	Participation *content.Participation
}

// ------------------- API Payloads -------------------

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Course   string `json:"course"`
}

type previewRequest struct {
	Content      string `json:"content"`
	Conversation string `json:"conversation,omitempty"`
}

// renderResponse is the JSON form of a content.Result.
type renderResponse struct {
	HTML     string                  `json:"html"`
	Mentions []content.MentionTarget `json:"mentions"`
	Polls    []pollSummary           `json:"polls,omitempty"`
}

type pollSummary struct {
	Options []pollOptionSummary `json:"options"`
	Total   int                 `json:"total"`
}

type pollOptionSummary struct {
	Text    string `json:"text"`
	Votes   int    `json:"votes"`
	Percent int    `json:"percent"`
}

func newRenderResponse(res *content.Result) renderResponse {
	resp := renderResponse{
		HTML:     res.HTML,
		Mentions: res.MentionList(),
	}
	for _, poll := range res.Polls {
		tally := content.Tally(poll)
		summary := pollSummary{Total: tally.Total}
		for i, option := range poll.Options {
			summary.Options = append(summary.Options, pollOptionSummary{
				Text:    option.Text,
				Votes:   tally.Options[i].Votes,
				Percent: tally.Options[i].Percent,
			})
		}
		resp.Polls = append(resp.Polls, summary)
	}
	return resp
}
