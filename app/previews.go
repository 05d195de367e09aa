package app

import (
	"container/list"
	"sync"

	"courseboard/content"
)

// previewRegistry keeps one content.PreviewChannel per editor so that a
// newer preview from the same editor supersedes the older one. The least
// recently used channels are dropped once limit is reached.
type previewRegistry struct {
	renderer *content.Renderer
	limit    int

	mu       sync.Mutex
	order    *list.List
	channels map[string]*list.Element
}

type previewSlot struct {
	key     string
	channel *content.PreviewChannel
}

func newPreviewRegistry(renderer *content.Renderer, limit int) *previewRegistry {
	if limit <= 0 {
		limit = defaultPreviewLimit
	}
	return &previewRegistry{
		renderer: renderer,
		limit:    limit,
		order:    list.New(),
		channels: make(map[string]*list.Element),
	}
}

// channel returns the channel for key, creating it on first use.
func (p *previewRegistry) channel(key string) *content.PreviewChannel {
	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.channels[key]; ok {
		p.order.MoveToFront(el)
		return el.Value.(*previewSlot).channel
	}
	slot := &previewSlot{key: key, channel: content.NewPreviewChannel(p.renderer)}
	p.channels[key] = p.order.PushFront(slot)
	for p.order.Len() > p.limit {
		oldest := p.order.Back()
		p.order.Remove(oldest)
		delete(p.channels, oldest.Value.(*previewSlot).key)
	}
	return slot.channel
}

func (p *previewRegistry) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}

// previewKey scopes an editor to its participation. The optional editor id
// separates several open editors of the same participation.
func previewKey(v *viewer, editor string) string {
	return v.Course.PublicID + "/" + v.Participation.PublicID + "/" + editor
}
