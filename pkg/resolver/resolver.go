// Package resolver turns batches of human phrases into cached intent
// labels. Distinct phrases are classified concurrently; rate-limited
// phrases are retried with jittered backoff up to an attempt ceiling.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultAttempts is the per-phrase classification attempt ceiling.
const DefaultAttempts = 5

// Resolver resolves phrases to intent labels through a Classifier and
// owns the run's IntentCache. Resolve mutates the cache; Lookup, Seed and
// Snapshot give the pipeline access to it. Resolve must not be called
// concurrently with itself or with the cache readers.
type Resolver struct {
	classifier  ports.Classifier
	cache       *domain.IntentCache
	attempts    int
	concurrency int
	backoff     func(attempt int) time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

type Option func(*Resolver)

// WithAttempts sets the per-phrase attempt ceiling. Values below 1 are
// clamped to 1.
func WithAttempts(n int) Option {
	return func(r *Resolver) {
		if n < 1 {
			n = 1
		}
		r.attempts = n
	}
}

// WithConcurrency bounds the number of classification requests in flight
// at once. Zero means unlimited.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		r.concurrency = n
	}
}

// WithHooks installs lifecycle callbacks for resolution progress.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Resolver) {
		r.hooks = hooks
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithBackoff overrides the wait computed between rate-limited attempts.
// The default grows with the attempt number and adds up to a second of
// jitter; tests use this to avoid real sleeps.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(r *Resolver) {
		r.backoff = fn
	}
}

// New creates a resolver with an empty cache.
func New(classifier ports.Classifier, opts ...Option) *Resolver {
	r := &Resolver{
		classifier: classifier,
		cache:      domain.NewIntentCache(),
		attempts:   DefaultAttempts,
		backoff:    defaultBackoff,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// defaultBackoff waits half a second longer per attempt, plus up to one
// second of jitter so concurrent phrases do not retry in lockstep.
func defaultBackoff(attempt int) time.Duration {
	seconds := float64(attempt)/2 + rand.Float64()
	return time.Duration(seconds * float64(time.Second))
}

// Resolve classifies every phrase not already cached. Phrases are
// normalized first; blanks, in-batch duplicates, and cache hits are never
// requested. The remaining phrases fan out concurrently and the batch
// commits to the cache only if every phrase succeeds: one hard failure or
// exhausted retry discards the whole batch's results. Phrases cached by
// earlier calls are unaffected.
func (r *Resolver) Resolve(ctx context.Context, phrases []string) error {
	pending := r.filter(ctx, phrases)
	if len(pending) == 0 {
		return nil
	}

	intents := make([]string, len(pending))
	g, gCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, phrase := range pending {
		g.Go(func() error {
			intent, err := r.classify(gCtx, phrase)
			if err != nil {
				return err
			}
			intents[i] = intent
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Insert on the joining side so the cache never holds a partial batch.
	for i, phrase := range pending {
		r.cache.Put(phrase, intents[i])
	}

	return nil
}

// Lookup returns the intent resolved for a phrase. It is pure: the phrase
// is normalized and read from the cache, never from the network. Blank
// and never-resolved phrases return ok = false.
func (r *Resolver) Lookup(phrase string) (string, bool) {
	return r.cache.Get(phrase)
}

// Seed pre-populates the cache, typically from a warm store.
func (r *Resolver) Seed(entries map[string]string) {
	r.cache.Seed(entries)
}

// Snapshot copies the cache out, typically to persist at run end.
func (r *Resolver) Snapshot() map[string]string {
	return r.cache.Snapshot()
}

// CacheSize returns the number of phrases resolved so far.
func (r *Resolver) CacheSize() int {
	return r.cache.Len()
}

// filter normalizes the batch down to the distinct phrases that actually
// need a network exchange.
func (r *Resolver) filter(ctx context.Context, phrases []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	var pending []string
	for _, raw := range phrases {
		phrase := domain.NormalizePhrase(raw)
		if phrase == "" {
			continue
		}
		if _, ok := seen[phrase]; ok {
			continue
		}
		seen[phrase] = struct{}{}
		if intent, ok := r.cache.Get(phrase); ok {
			r.emitPhrase(ctx, domain.EventCacheHit, phrase, intent, 0, 0)
			continue
		}
		pending = append(pending, phrase)
	}
	return pending
}

// classify runs one phrase's attempt loop. Only a rate-limited answer is
// retried; sleeping is context-aware so a failing sibling in the same
// batch cancels the wait.
func (r *Resolver) classify(ctx context.Context, phrase string) (string, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		intent, err := r.classifier.Classify(ctx, phrase)
		if err == nil {
			r.emitPhrase(ctx, domain.EventPhraseClassified, phrase, intent, attempt, time.Since(start))
			return intent, nil
		}

		if !errors.Is(err, domain.ErrRateLimited) {
			r.emitPhrase(ctx, domain.EventResolveFailed, phrase, "", attempt, 0)
			return "", fmt.Errorf("classify %q: %w", phrase, err)
		}

		if attempt == r.attempts {
			break
		}

		wait := r.backoff(attempt)
		r.emitPhrase(ctx, domain.EventClassifyRetry, phrase, "", attempt, wait)
		r.logger.Debug("rate limited, backing off",
			"phrase", phrase,
			"attempt", attempt,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	r.emitPhrase(ctx, domain.EventResolveFailed, phrase, "", r.attempts, 0)
	return "", &domain.TimeoutError{Phrase: phrase, Attempts: r.attempts}
}

func (r *Resolver) emitPhrase(ctx context.Context, kind domain.EventType, phrase, intent string, attempt int, d time.Duration) {
	var hook func(context.Context, *domain.PhraseEvent)
	switch kind {
	case domain.EventCacheHit:
		hook = r.hooks.OnCacheHit
	case domain.EventPhraseClassified:
		hook = r.hooks.OnPhraseClassified
	case domain.EventClassifyRetry:
		hook = r.hooks.OnClassifyRetry
	case domain.EventResolveFailed:
		hook = r.hooks.OnResolveFailed
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.PhraseEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: kind},
		Phrase:    phrase,
		Intent:    intent,
		Attempt:   attempt,
		Duration:  d,
	})
}
