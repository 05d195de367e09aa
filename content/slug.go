package content

import (
	"strconv"

	"github.com/shurcooL/sanitized_anchor_name"
)

// Slugger produces unique heading slugs for one render call. It is never
// shared between renders.
type Slugger struct {
	seen map[string]int
}

// NewSlugger returns an empty slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns a slug for text, suffixing -1, -2, … on repeats.
func (s *Slugger) Slug(text string) string {
	base := sanitized_anchor_name.Create(text)
	if base == "" {
		base = "heading"
	}
	slug := base
	if _, taken := s.seen[slug]; taken {
		for {
			s.seen[base]++
			slug = base + "-" + strconv.Itoa(s.seen[base])
			if _, taken := s.seen[slug]; !taken {
				break
			}
		}
	}
	s.seen[slug] = 0
	return slug
}
