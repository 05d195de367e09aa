package content

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Repository when a lookup has no match.
var ErrNotFound = errors.New("entity not found")

// Display is what the pipeline shows for a participant.
type Display struct {
	Name string `json:"name"`
}

// Repository is the read-only data access the pipeline needs to resolve
// mentions, references and poll voters. Implementations must be safe for
// concurrent reads; the pipeline never writes.
type Repository interface {
	// CourseParticipation looks up a participation by public id within one
	// course.
	CourseParticipation(ctx context.Context, courseID int64, publicID string) (*Participation, error)
	// Conversation looks up a conversation by public id within one course.
	// Visibility is applied by the caller.
	Conversation(ctx context.Context, courseID int64, publicID string) (*Conversation, error)
	// Message looks up a message by public id within one conversation.
	Message(ctx context.Context, conversationID int64, publicID string) (*Message, error)
	// UserDisplay returns the display data of the user behind a
	// participation.
	UserDisplay(ctx context.Context, participationID int64) (Display, error)
}

// MemoryRepository is an in-memory Repository. Writes are only expected
// while seeding; reads may happen from many goroutines.
type MemoryRepository struct {
	mu             sync.RWMutex
	participations map[int64]*Participation
	conversations  map[int64]*Conversation
	messages       map[int64]*Message
	displays       map[int64]Display
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		participations: make(map[int64]*Participation),
		conversations:  make(map[int64]*Conversation),
		messages:       make(map[int64]*Message),
		displays:       make(map[int64]Display),
	}
}

// AddParticipation stores p and the display name of its user.
func (r *MemoryRepository) AddParticipation(p *Participation, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participations[p.ID] = p
	r.displays[p.ID] = Display{Name: name}
}

// AddConversation stores c.
func (r *MemoryRepository) AddConversation(c *Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[c.ID] = c
}

// AddMessage stores m.
func (r *MemoryRepository) AddMessage(m *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID] = m
}

func (r *MemoryRepository) CourseParticipation(_ context.Context, courseID int64, publicID string) (*Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participations {
		if p.CourseID == courseID && p.PublicID == publicID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Conversation(_ context.Context, courseID int64, publicID string) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conversations {
		if c.CourseID == courseID && c.PublicID == publicID {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Message(_ context.Context, conversationID int64, publicID string) (*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.PublicID == publicID {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) UserDisplay(_ context.Context, participationID int64) (Display, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[participationID]
	if !ok {
		return Display{}, ErrNotFound
	}
	return d, nil
}
