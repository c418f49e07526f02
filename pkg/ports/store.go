package ports

import "context"

// IntentStore defines the interface for persisting resolved intents.
// It acts only at run boundaries: the pipeline seeds its in-memory cache
// from Load at startup and writes the cache back with Save at the end.
// Lookups during a run never touch the store.
type IntentStore interface {
	// Load retrieves all persisted phrase-to-intent entries.
	// A cold store returns an empty map, not an error.
	Load(ctx context.Context) (map[string]string, error)

	// Save upserts the given entries: existing phrases are overwritten,
	// phrases not named are retained, so later runs start warm.
	Save(ctx context.Context, entries map[string]string) error
}
