package espalier_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// ExampleNew demonstrates how to use the pipeline purely as a Go library,
// with an in-memory transcript source and a custom classifier instead of
// the HTTP service. This is useful for testing, embedded scenarios, or
// when you don't want to rely on the file system.
func ExampleNew() {
	// 1. Define the corpus using pure Go structs.
	source := memory.NewSource(map[string]domain.Transcript{
		"pizza": {
			{Text: "Hello! What can I get you?", IsBot: true},
			{Text: "a large pepperoni please", IsBot: false},
			{Text: "Coming right up.", IsBot: true},
		},
		"drink": {
			{Text: "Hello! What can I get you?", IsBot: true},
			{Text: "just a soda", IsBot: false},
			{Text: "Coming right up.", IsBot: true},
		},
	})

	// 2. Any function can act as the classifier.
	classify := ports.ClassifierFunc(func(ctx context.Context, phrase string) (string, error) {
		if strings.Contains(phrase, "pepperoni") {
			return "order_pizza", nil
		}
		return "order_drink", nil
	})

	// 3. Initialize the pipeline with the custom classifier.
	// Note: no endpoint is needed because we are providing a Classifier.
	pipe, err := espalier.New(espalier.WithClassifier(classify))
	if err != nil {
		log.Fatal(err)
	}

	// 4. Build the tree.
	tree, report, err := pipe.Build(context.Background(), source)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("merged %d of %d transcripts\n", report.Merged, report.Transcripts)
	for _, intent := range tree.Intents() {
		fmt.Println(intent)
	}
	// Output:
	// merged 2 of 2 transcripts
	// order_drink
	// order_pizza
}

// ExampleRunner demonstrates replaying a built tree as a conversation.
// In headless mode the walk follows the dialog while it is unambiguous.
func ExampleRunner() {
	root := domain.NewTree()
	root.AddPhrase("Welcome to support!")

	ask, err := root.EnsureReply("ask_hours", false)
	if err != nil {
		log.Fatal(err)
	}
	ask.AddPhrase("what are your hours?")

	answer, err := ask.EnsureReply("", true)
	if err != nil {
		log.Fatal(err)
	}
	answer.AddPhrase("We are open 9 to 5.")

	r := espalier.NewRunner()
	r.Output = os.Stdout
	r.Headless = true
	if err := r.Run(root); err != nil {
		log.Fatal(err)
	}
	// Output:
	// Welcome to support!
	// > ask_hours "what are your hours?"
	// We are open 9 to 5.
}
