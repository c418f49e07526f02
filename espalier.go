package espalier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/internal/merge"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/nlu"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/resolver"
)

// Pipeline is the high-level entry point for the Espalier library.
// It wires phrase classification, intent resolution, and tree merging
// into a single build flow and provides a simplified API for consumers.
type Pipeline struct {
	classifier  ports.Classifier
	store       ports.IntentStore
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	endpoint    string
	token       string
	httpTimeout time.Duration
	attempts    int
	concurrency int
}

// Option defines a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithClassifier injects a custom Classifier, bypassing the default HTTP client.
func WithClassifier(c ports.Classifier) Option {
	return func(p *Pipeline) {
		p.classifier = c
	}
}

// WithStore attaches an intent store: the resolver is seeded from it
// before the run and its cache is written back after. Store failures
// degrade to warnings, never abort a build.
func WithStore(s ports.IntentStore) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithEndpoint sets the classification service URL for the default HTTP client.
func WithEndpoint(url string) Option {
	return func(p *Pipeline) {
		p.endpoint = url
	}
}

// WithToken sets the bearer token sent by the default HTTP client.
func WithToken(token string) Option {
	return func(p *Pipeline) {
		p.token = token
	}
}

// WithHTTPTimeout sets the per-request timeout of the default HTTP client.
func WithHTTPTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.httpTimeout = d
	}
}

// WithAttempts sets the per-phrase classification attempt ceiling.
func WithAttempts(n int) Option {
	return func(p *Pipeline) {
		p.attempts = n
	}
}

// WithConcurrency bounds concurrent classification requests. Zero means
// unlimited.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

// New initializes a new Espalier Pipeline.
// By default, phrases are classified against the HTTP service named by
// WithEndpoint. If the WithClassifier option is provided, no endpoint is
// needed.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{attempts: resolver.DefaultAttempts}

	// Apply options first to check if a classifier is provided
	for _, opt := range opts {
		opt(p)
	}

	// If no classifier was injected, initialize the default NLU client
	if p.classifier == nil {
		if p.endpoint == "" {
			return nil, fmt.Errorf("an endpoint is required when no custom classifier is provided")
		}
		var nluOpts []nlu.Option
		if p.token != "" {
			nluOpts = append(nluOpts, nlu.WithToken(p.token))
		}
		if p.httpTimeout > 0 {
			nluOpts = append(nluOpts, nlu.WithTimeout(p.httpTimeout))
		}
		p.classifier = nlu.New(p.endpoint, nluOpts...)
	}

	// Ensure logger is initialized (so we don't pass nil to the resolver,
	// which would overwrite its default)
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return p, nil
}

// Build ingests every transcript the source lists and merges them, in
// order, into one shared dialog tree. A transcript whose phrases cannot
// all be resolved is skipped and reported; the rest still merge. A tree
// consistency violation aborts the whole build.
//
// Each call runs with a fresh resolution cache, warmed from the store
// when one is configured.
func (p *Pipeline) Build(ctx context.Context, src ports.TranscriptSource) (*domain.Node, *Report, error) {
	start := time.Now()

	res := resolver.New(p.classifier,
		resolver.WithAttempts(p.attempts),
		resolver.WithConcurrency(p.concurrency),
		resolver.WithHooks(p.hooks),
		resolver.WithLogger(p.logger),
	)

	if p.store != nil {
		seed, err := p.store.Load(ctx)
		if err != nil {
			p.logger.Warn("intent store unavailable, starting cold", "error", err)
		} else if len(seed) > 0 {
			res.Seed(seed)
			p.logger.Debug("seeded resolver from intent store", "entries", len(seed))
		}
	}

	ids, err := src.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	root := domain.NewTree()
	report := &Report{Transcripts: len(ids)}

	for _, id := range ids {
		transcript, err := src.Load(ctx, id)
		if err != nil {
			p.skip(ctx, report, id, 0, fmt.Errorf("load failed: %w", err))
			continue
		}

		if err := res.Resolve(ctx, transcript.HumanPhrases()); err != nil {
			// A canceled context fails every remaining transcript the
			// same way; stop instead of reporting them all as skipped.
			if ctx.Err() != nil {
				return nil, report, ctx.Err()
			}
			p.skip(ctx, report, id, len(transcript), err)
			continue
		}

		if err := merge.Transcript(root, transcript, res.Lookup); err != nil {
			return nil, report, fmt.Errorf("merging transcript %s: %w", id, err)
		}

		report.Merged++
		p.emitTranscript(ctx, domain.EventTranscriptMerged, id, len(transcript), "")
	}

	if p.store != nil {
		if err := p.store.Save(ctx, res.Snapshot()); err != nil {
			p.logger.Warn("failed to persist resolved intents", "error", err)
		}
	}

	report.ResolvedPhrases = res.CacheSize()
	report.Tree = root.Stats()
	report.Duration = time.Since(start)

	p.logger.Info("dialog tree built",
		"transcripts", report.Transcripts,
		"merged", report.Merged,
		"skipped", len(report.Skipped),
		"nodes", report.Tree.Nodes,
	)

	return root, report, nil
}

// BuildDir builds the tree from a directory of JSON transcript files,
// one conversation per file.
func (p *Pipeline) BuildDir(ctx context.Context, dir string) (*domain.Node, *Report, error) {
	return p.Build(ctx, file.NewSource(dir))
}

func (p *Pipeline) skip(ctx context.Context, report *Report, id string, turns int, err error) {
	p.logger.Warn("skipping transcript", "transcript", id, "error", err)
	report.Skipped = append(report.Skipped, Skip{Transcript: id, Reason: err.Error()})
	p.emitTranscript(ctx, domain.EventTranscriptSkipped, id, turns, err.Error())
}

func (p *Pipeline) emitTranscript(ctx context.Context, kind domain.EventType, id string, turns int, reason string) {
	var hook func(context.Context, *domain.TranscriptEvent)
	switch kind {
	case domain.EventTranscriptMerged:
		hook = p.hooks.OnTranscriptMerged
	case domain.EventTranscriptSkipped:
		hook = p.hooks.OnTranscriptSkipped
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.TranscriptEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: kind},
		Transcript: id,
		Turns:      turns,
		Reason:     reason,
	})
}
