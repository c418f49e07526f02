package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCacheHit          EventType = "cache_hit"
	EventPhraseClassified  EventType = "phrase_classified"
	EventClassifyRetry     EventType = "classify_retry"
	EventResolveFailed     EventType = "resolve_failed"
	EventTranscriptMerged  EventType = "transcript_merged"
	EventTranscriptSkipped EventType = "transcript_skipped"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// PhraseEvent describes progress on a single phrase's resolution.
type PhraseEvent struct {
	EventBase
	Phrase   string        `json:"phrase"`
	Intent   string        `json:"intent,omitempty"`
	Attempt  int           `json:"attempt,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// TranscriptEvent describes the outcome of one transcript's merge.
type TranscriptEvent struct {
	EventBase
	Transcript string `json:"transcript"`
	Turns      int    `json:"turns,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// LifecycleHooks defines callbacks for pipeline observability. All fields
// are optional; nil hooks are skipped. Phrase hooks may be invoked from
// concurrent classification goroutines and must be safe for that.
type LifecycleHooks struct {
	OnCacheHit          func(context.Context, *PhraseEvent)
	OnPhraseClassified  func(context.Context, *PhraseEvent)
	OnClassifyRetry     func(context.Context, *PhraseEvent)
	OnResolveFailed     func(context.Context, *PhraseEvent)
	OnTranscriptMerged  func(context.Context, *TranscriptEvent)
	OnTranscriptSkipped func(context.Context, *TranscriptEvent)
}

// ChainHooks combines several hook sets into one that invokes them in
// order, so logging and metrics can observe the same run independently.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var chained LifecycleHooks
	chained.OnCacheHit = chainPhrase(hooks, func(h LifecycleHooks) func(context.Context, *PhraseEvent) { return h.OnCacheHit })
	chained.OnPhraseClassified = chainPhrase(hooks, func(h LifecycleHooks) func(context.Context, *PhraseEvent) { return h.OnPhraseClassified })
	chained.OnClassifyRetry = chainPhrase(hooks, func(h LifecycleHooks) func(context.Context, *PhraseEvent) { return h.OnClassifyRetry })
	chained.OnResolveFailed = chainPhrase(hooks, func(h LifecycleHooks) func(context.Context, *PhraseEvent) { return h.OnResolveFailed })
	chained.OnTranscriptMerged = chainTranscript(hooks, func(h LifecycleHooks) func(context.Context, *TranscriptEvent) { return h.OnTranscriptMerged })
	chained.OnTranscriptSkipped = chainTranscript(hooks, func(h LifecycleHooks) func(context.Context, *TranscriptEvent) { return h.OnTranscriptSkipped })
	return chained
}

func chainPhrase(hooks []LifecycleHooks, pick func(LifecycleHooks) func(context.Context, *PhraseEvent)) func(context.Context, *PhraseEvent) {
	var fns []func(context.Context, *PhraseEvent)
	for _, h := range hooks {
		if fn := pick(h); fn != nil {
			fns = append(fns, fn)
		}
	}
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, e *PhraseEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

func chainTranscript(hooks []LifecycleHooks, pick func(LifecycleHooks) func(context.Context, *TranscriptEvent)) func(context.Context, *TranscriptEvent) {
	var fns []func(context.Context, *TranscriptEvent)
	for _, h := range hooks {
		if fn := pick(h); fn != nil {
			fns = append(fns, fn)
		}
	}
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, e *TranscriptEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}
