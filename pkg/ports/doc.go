/*
Package ports defines the driven ports (interfaces) for the Espalier pipeline.

These interfaces decouple the core logic from external implementations, allowing
the pipeline to work with various classification services, cache backends, and
transcript sources.

# Key Interfaces

  - Classifier: Resolves a single phrase to an intent label (e.g., the HTTP NLU adapter).
  - IntentStore: Persists resolved intents across runs for warm cache starts.
  - TranscriptSource: Enumerates and loads conversation transcripts (e.g., a directory of JSON files).
*/
package ports
