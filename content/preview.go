package content

import (
	"context"
	"sync"
)

// PreviewChannel serializes the previews of one editor. A newer submission
// cancels the render in flight; only the latest result is ever returned as
// current.
type PreviewChannel struct {
	renderer *Renderer

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	latest *Result
}

// NewPreviewChannel returns an idle channel.
func NewPreviewChannel(renderer *Renderer) *PreviewChannel {
	return &PreviewChannel{renderer: renderer}
}

// Submit previews source. It returns ErrSuperseded when another Submit
// started after this one, whatever the outcome of this render.
func (p *PreviewChannel) Submit(ctx context.Context, source string, rc Context) (*Result, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	res, err := p.renderer.Preview(ctx, source, rc)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return nil, ErrSuperseded
	}
	p.cancel = nil
	if err != nil {
		return nil, err
	}
	p.latest = res
	return res, nil
}

// Latest returns the most recent successful preview, or nil.
func (p *PreviewChannel) Latest() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}
