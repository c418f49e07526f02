package domain

// IntentCache maps normalized phrases to resolved intent labels. It is
// scoped to one run and owned by whoever constructs it; it only grows and
// is never invalidated. The cache itself is not synchronized: the resolver
// inserts batch results from the joining side, after all concurrent
// classifications have completed.
type IntentCache struct {
	entries map[string]string
}

// NewIntentCache returns an empty cache.
func NewIntentCache() *IntentCache {
	return &IntentCache{entries: make(map[string]string)}
}

// Get returns the intent cached for a phrase. The phrase is normalized
// first; blank phrases are never cached and always miss.
func (c *IntentCache) Get(phrase string) (string, bool) {
	normalized := NormalizePhrase(phrase)
	if normalized == "" {
		return "", false
	}
	intent, ok := c.entries[normalized]
	return intent, ok
}

// Put records the intent for a phrase. Blank phrases are ignored.
func (c *IntentCache) Put(phrase, intent string) {
	normalized := NormalizePhrase(phrase)
	if normalized == "" {
		return
	}
	c.entries[normalized] = intent
}

// Len returns the number of cached phrases.
func (c *IntentCache) Len() int {
	return len(c.entries)
}

// Seed bulk-loads entries, typically from a warm store at run start.
// Blank phrases are ignored.
func (c *IntentCache) Seed(entries map[string]string) {
	for phrase, intent := range entries {
		c.Put(phrase, intent)
	}
}

// Snapshot copies the cache out, typically to persist at run end.
func (c *IntentCache) Snapshot() map[string]string {
	out := make(map[string]string, len(c.entries))
	for phrase, intent := range c.entries {
		out[phrase] = intent
	}
	return out
}
