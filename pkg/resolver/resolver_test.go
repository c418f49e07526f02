package resolver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingClassifier maps phrases to fixed intents and records how often
// each phrase is requested. Safe for concurrent use.
type countingClassifier struct {
	mu      sync.Mutex
	intents map[string]string
	calls   map[string]int
}

func newCountingClassifier(intents map[string]string) *countingClassifier {
	return &countingClassifier{
		intents: intents,
		calls:   make(map[string]int),
	}
}

func (c *countingClassifier) Classify(ctx context.Context, phrase string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[phrase]++
	intent, ok := c.intents[phrase]
	if !ok {
		return "", &domain.ClassificationError{StatusCode: 500}
	}
	return intent, nil
}

func (c *countingClassifier) callCount(phrase string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[phrase]
}

func noBackoff(int) time.Duration { return 0 }

func TestResolve_IdempotentCaching(t *testing.T) {
	classifier := newCountingClassifier(map[string]string{
		"hi":    "greet",
		"bye":   "farewell",
		"maybe": "hedge",
	})
	r := resolver.New(classifier)

	require.NoError(t, r.Resolve(context.Background(), []string{"hi", " hi ", "bye"}))
	assert.Equal(t, 1, classifier.callCount("hi"), "in-batch duplicates collapse into one request")
	assert.Equal(t, 1, classifier.callCount("bye"))

	// Overlapping second batch only requests the new phrase.
	require.NoError(t, r.Resolve(context.Background(), []string{"hi", "maybe"}))
	assert.Equal(t, 1, classifier.callCount("hi"))
	assert.Equal(t, 1, classifier.callCount("maybe"))

	intent, ok := r.Lookup("hi")
	require.True(t, ok)
	assert.Equal(t, "greet", intent)

	again, ok := r.Lookup("  hi  ")
	require.True(t, ok)
	assert.Equal(t, intent, again, "Lookup is stable across calls")
}

func TestResolve_BlankPhrases(t *testing.T) {
	classifier := newCountingClassifier(nil)
	r := resolver.New(classifier)

	require.NoError(t, r.Resolve(context.Background(), []string{"", "   ", "\t\n"}))

	assert.Equal(t, 0, r.CacheSize())
	if _, ok := r.Lookup("   "); ok {
		t.Error("Lookup(blank) = ok, want miss")
	}
	assert.Equal(t, 0, classifier.callCount(""), "blank phrases never reach the network")
}

func TestResolve_RetryBound(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	alwaysLimited := ports.ClassifierFunc(func(ctx context.Context, phrase string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "", domain.ErrRateLimited
	})

	r := resolver.New(alwaysLimited, resolver.WithBackoff(noBackoff))
	err := r.Resolve(context.Background(), []string{"stubborn"})

	var timeoutErr *domain.TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "want *domain.TimeoutError, got %v", err)
	assert.Equal(t, "stubborn", timeoutErr.Phrase)
	assert.Equal(t, resolver.DefaultAttempts, timeoutErr.Attempts)
	assert.Equal(t, resolver.DefaultAttempts, calls, "attempt ceiling is exact")
	assert.Equal(t, 0, r.CacheSize())
}

func TestResolve_RetryRecovers(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	flaky := ports.ClassifierFunc(func(ctx context.Context, phrase string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return "", domain.ErrRateLimited
		}
		return "greet", nil
	})

	var retries []int
	hooks := domain.LifecycleHooks{
		OnClassifyRetry: func(_ context.Context, e *domain.PhraseEvent) {
			retries = append(retries, e.Attempt)
		},
	}

	r := resolver.New(flaky, resolver.WithBackoff(noBackoff), resolver.WithHooks(hooks))
	require.NoError(t, r.Resolve(context.Background(), []string{"hello"}))

	intent, ok := r.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, "greet", intent)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestResolve_HardFailureAbortsBatch(t *testing.T) {
	classifier := newCountingClassifier(map[string]string{"good": "ok"})

	r := resolver.New(classifier, resolver.WithBackoff(noBackoff))
	err := r.Resolve(context.Background(), []string{"good", "bad"})

	var classErr *domain.ClassificationError
	require.True(t, errors.As(err, &classErr), "want *domain.ClassificationError, got %v", err)
	assert.Equal(t, 500, classErr.StatusCode)
	assert.Equal(t, 1, classifier.callCount("bad"), "hard failures are not retried")

	// No partial commit: the sibling success is discarded with the batch.
	if _, ok := r.Lookup("good"); ok {
		t.Error("Lookup(good) = ok after failed batch, want miss")
	}
	assert.Equal(t, 0, r.CacheSize())
}

func TestResolve_PriorBatchesSurviveFailure(t *testing.T) {
	classifier := newCountingClassifier(map[string]string{"hi": "greet"})

	r := resolver.New(classifier, resolver.WithBackoff(noBackoff))
	require.NoError(t, r.Resolve(context.Background(), []string{"hi"}))
	require.Error(t, r.Resolve(context.Background(), []string{"unknown"}))

	intent, ok := r.Lookup("hi")
	require.True(t, ok, "phrases resolved in prior calls stay cached")
	assert.Equal(t, "greet", intent)
}

func TestResolve_ConcurrencyLimit(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	slow := ports.ClassifierFunc(func(ctx context.Context, phrase string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return "intent", nil
	})

	r := resolver.New(slow, resolver.WithConcurrency(2))
	phrases := []string{"a", "b", "c", "d", "e", "f"}
	require.NoError(t, r.Resolve(context.Background(), phrases))

	assert.LessOrEqual(t, peak, 2, "in-flight requests stay within the limit")
	assert.Equal(t, len(phrases), r.CacheSize())
}

func TestResolve_CancelDuringBackoff(t *testing.T) {
	alwaysLimited := ports.ClassifierFunc(func(ctx context.Context, phrase string) (string, error) {
		return "", domain.ErrRateLimited
	})

	// A long backoff that cancellation must interrupt.
	r := resolver.New(alwaysLimited, resolver.WithBackoff(func(int) time.Duration {
		return time.Minute
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Resolve(ctx, []string{"waiting"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation interrupts the backoff sleep")
}

func TestResolve_CacheHitHook(t *testing.T) {
	classifier := newCountingClassifier(map[string]string{"hi": "greet"})

	var hits []string
	hooks := domain.LifecycleHooks{
		OnCacheHit: func(_ context.Context, e *domain.PhraseEvent) {
			hits = append(hits, e.Phrase)
		},
	}

	r := resolver.New(classifier, resolver.WithHooks(hooks))
	require.NoError(t, r.Resolve(context.Background(), []string{"hi"}))
	require.NoError(t, r.Resolve(context.Background(), []string{"hi"}))

	assert.Equal(t, []string{"hi"}, hits)
}

func TestSeedAndSnapshot(t *testing.T) {
	classifier := newCountingClassifier(nil)
	r := resolver.New(classifier)

	r.Seed(map[string]string{"hello": "greet"})

	// Seeded phrases behave like resolved ones: no network traffic.
	require.NoError(t, r.Resolve(context.Background(), []string{"hello"}))
	assert.Equal(t, 0, classifier.callCount("hello"))

	snap := r.Snapshot()
	assert.Equal(t, map[string]string{"hello": "greet"}, snap)

	snap["hello"] = "mutated"
	intent, _ := r.Lookup("hello")
	assert.Equal(t, "greet", intent, "snapshot mutation cannot reach the cache")
}
