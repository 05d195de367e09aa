package content

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

// Defaults for the link and media normalizer.
const (
	DefaultOrigin         = "http://localhost:8080"
	DefaultMediaProxyPath = "/_proxy"
	DefaultFilesPath      = "/files/"
)

// Renderer runs the message content pipeline. It holds only immutable
// configuration and is safe for concurrent use.
type Renderer struct {
	repo        Repository
	parser      Parser
	math        MathRenderer
	highlighter Highlighter
	log         logrus.FieldLogger
	metrics     *Metrics

	origin    string
	originURL *url.URL
	proxyPath string
	filesPath string
	canonical *regexp.Regexp
	policy    *bluemonday.Policy
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithParser replaces the goldmark parser.
func WithParser(p Parser) Option { return func(r *Renderer) { r.parser = p } }

// WithMathRenderer replaces the TeX renderer.
func WithMathRenderer(m MathRenderer) Option { return func(r *Renderer) { r.math = m } }

// WithHighlighter replaces the chroma highlighter.
func WithHighlighter(h Highlighter) Option { return func(r *Renderer) { r.highlighter = h } }

// WithOrigin sets the platform origin, e.g. https://courses.example.edu.
func WithOrigin(origin string) Option { return func(r *Renderer) { r.origin = origin } }

// WithLogger sets the logger used for enrichment failures.
func WithLogger(log logrus.FieldLogger) Option { return func(r *Renderer) { r.log = log } }

// WithMetrics records renders, failures and cache activity.
func WithMetrics(m *Metrics) Option { return func(r *Renderer) { r.metrics = m } }

// WithMediaProxyPath sets the same-origin path of the media proxy.
func WithMediaProxyPath(path string) Option { return func(r *Renderer) { r.proxyPath = path } }

// WithFilesPath sets the path prefix of platform file storage.
func WithFilesPath(path string) Option { return func(r *Renderer) { r.filesPath = path } }

// NewRenderer builds a renderer over repo. Process-wide data such as theme
// CSS and the output policy is prepared here, once.
func NewRenderer(repo Repository, opts ...Option) (*Renderer, error) {
	if repo == nil {
		return nil, fmt.Errorf("renderer needs a repository")
	}
	r := &Renderer{
		repo:      repo,
		origin:    DefaultOrigin,
		proxyPath: DefaultMediaProxyPath,
		filesPath: DefaultFilesPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.parser == nil {
		r.parser = NewMarkdownParser()
	}
	if r.math == nil {
		r.math = NewKaTeXRenderer()
	}
	if r.highlighter == nil {
		h, err := NewChromaHighlighter(DefaultLightTheme, DefaultDarkTheme)
		if err != nil {
			return nil, err
		}
		r.highlighter = h
	}

	r.origin = strings.TrimRight(r.origin, "/")
	u, err := url.Parse(r.origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid origin %q", r.origin)
	}
	r.originURL = u
	r.canonical = canonicalPattern(r.origin)
	r.policy = outputPolicy()
	return r, nil
}

// Render turns raw message content into HTML for the viewer in rc and
// collects the mentioned targets.
func (r *Renderer) Render(ctx context.Context, source string, rc Context) (res *Result, err error) {
	start := time.Now()
	defer func() { r.metrics.observeRender("message", start, err) }()
	return r.render(ctx, source, rc)
}

// Preview renders content that has not been stored yet. Without a message,
// ids are namespaced with a placeholder.
func (r *Renderer) Preview(ctx context.Context, source string, rc Context) (res *Result, err error) {
	start := time.Now()
	defer func() { r.metrics.observeRender("preview", start, err) }()
	if rc.Message == nil || rc.Message.PublicID == "" {
		m := &Message{PublicID: PreviewMessageID}
		if rc.Message != nil {
			copied := *rc.Message
			copied.PublicID = PreviewMessageID
			m = &copied
		}
		rc.Message = m
	}
	return r.render(ctx, source, rc)
}

type stage struct {
	name string
	run  func(*renderState)
}

func (r *Renderer) render(ctx context.Context, source string, rc Context) (*Result, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyContent
	}
	tree, err := parseTree(ctx, r.parser, source)
	if err != nil {
		return nil, err
	}

	prefix := PreviewMessageID
	if rc.Message != nil && rc.Message.PublicID != "" {
		prefix = rc.Message.PublicID
	}
	st := &renderState{
		ctx:      ctx,
		rc:       rc,
		tree:     tree,
		prefix:   prefix,
		slugs:    NewSlugger(),
		mentions: make(MentionSet),
		result:   &Result{},
		log:      r.log.WithField("message", prefix),
	}

	stages := []stage{
		{"sanitize", func(st *renderState) { st.polls = sanitize(st.tree, st.log) }},
		{"math", r.renderMath},
		{"code", r.highlightCode},
		{"footnotes", r.restructureFootnotes},
		{"headings", r.anchorHeadings},
		{"mentions", r.resolveMentions},
		{"references", r.resolveReferences},
		{"canonicalize", r.canonicalizeLinks},
		{"polls", r.materializePolls},
		{"links", r.normalizeLinks},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("before %s: %w", s.name, err)
		}
		s.run(st)
	}

	out, err := tree.Render(tree.Root())
	if err != nil {
		return nil, fmt.Errorf("serialize message: %w", err)
	}
	st.result.HTML = r.policy.Sanitize(out)
	st.result.Mentions = st.mentions
	return st.result, nil
}
