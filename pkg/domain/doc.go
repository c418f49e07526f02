/*
Package domain contains the core domain models for the Espalier dialog tree.

It defines the fundamental entities of transcript ingestion and tree
construction. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Turn: A single utterance in a transcript, attributed to the bot or the human.
  - Node: A position in the merged dialog tree holding phrase variants and
    intent-keyed replies.
  - IntentCache: The run-scoped mapping from normalized phrases to resolved
    intent labels.
  - LifecycleHooks: Callbacks for observing resolution and merge progress.
*/
package domain
