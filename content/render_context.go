package content

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Context is the immutable viewer and location a message is rendered for.
// Conversation may be nil for content outside a conversation; Message may be
// nil for previews.
type Context struct {
	Course        *Course
	Participation *Participation
	Conversation  *Conversation
	Message       *Message
}

// Result is the output of one render.
type Result struct {
	HTML     string     `json:"html"`
	Mentions MentionSet `json:"-"`
	Polls    []Poll     `json:"polls,omitempty"`
}

// MentionList returns the mentioned targets in a stable order.
func (r *Result) MentionList() []MentionTarget {
	return r.Mentions.Sorted()
}

func (r *Result) clone() *Result {
	out := &Result{HTML: r.HTML, Mentions: make(MentionSet, len(r.Mentions))}
	for t := range r.Mentions {
		out.Mentions.Add(t)
	}
	for _, p := range r.Polls {
		opts := make([]PollOption, len(p.Options))
		for i, o := range p.Options {
			opts[i] = PollOption{Text: o.Text, Voters: append([]string(nil), o.Voters...)}
		}
		out.Polls = append(out.Polls, Poll{Options: opts})
	}
	return out
}

// renderState is the per-call state threaded through every stage. Nothing
// in it outlives the call.
type renderState struct {
	ctx      context.Context
	rc       Context
	tree     *Tree
	prefix   string
	slugs    *Slugger
	polls    []*pollData
	mentions MentionSet
	result   *Result
	log      logrus.FieldLogger
}
