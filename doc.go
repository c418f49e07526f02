/*
Package espalier grows a dialog tree out of recorded conversations. It ingests two-party transcripts (one human, one automated agent), classifies every human phrase into an intent through an external NLU service, and merges all conversations into a single tree whose branches are keyed by intent.

# Concept

Espalier treats each conversation as one path through a shared dialog graph. Agent turns at the same position collapse into one node that accumulates every observed wording; human turns branch the tree by their classified intent. The result is a compact map of everything the agent says and every way humans answer, built deterministically from the transcript files on disk.

# Key Features

  - Deterministic Merging: The same transcripts in the same order always produce a byte-identical tree.
  - Cached Classification: A phrase is classified at most once per run; a pluggable store carries resolved intents across runs.
  - Resilient Ingestion: Rate-limited classifications retry with jittered backoff, and a transcript that cannot be resolved is skipped without poisoning the tree.
  - Hexagonal Architecture: Core logic is decoupled from adapters (NLU client, storage, transcript sources, HTTP and MCP surfaces).

# Usage

Initialize the pipeline with the classification endpoint (or inject your own Classifier) and point it at a directory of transcript JSON files.

	package main

	import (
		"context"
		"encoding/json"
		"log"
		"os"

		"github.com/aretw0/espalier"
	)

	func main() {
		pipe, err := espalier.New(
			espalier.WithEndpoint("https://nlu.example.com/message"),
		)
		if err != nil {
			log.Fatal(err)
		}

		tree, report, err := pipe.BuildDir(context.Background(), "./transcripts")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("merged %d of %d transcripts", report.Merged, report.Transcripts)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(tree)
	}
*/
package espalier
