package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
)

func main() {
	targetDir := "examples/quickstart/transcripts"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating demo transcripts in: %s\n", targetDir)

	corpus := map[string]domain.Transcript{
		// 1. The happy path: greet, order, confirm.
		"order-pizza": {
			{Text: "Hello! What can I get you today?", IsBot: true},
			{Text: "i want a large pizza", IsBot: false},
			{Text: "Which topping would you like?", IsBot: true},
			{Text: "pepperoni please", IsBot: false},
			{Text: "On the way!", IsBot: true},
		},
		// 2. Same opening with different wording, so the greeting node
		// accumulates both phrasings when the trees merge.
		"order-pizza-alt": {
			{Text: "Hi there! What can I get you today?", IsBot: true},
			{Text: "can i get a pizza", IsBot: false},
			{Text: "Which topping would you like?", IsBot: true},
			{Text: "mushrooms", IsBot: false},
			{Text: "On the way!", IsBot: true},
		},
		// 3. A different branch off the shared greeting.
		"opening-hours": {
			{Text: "Hello! What can I get you today?", IsBot: true},
			{Text: "what time do you close", IsBot: false},
			{Text: "We close at 9pm.", IsBot: true},
		},
		// 4. Human speaks first. The merge drops the leading human turn,
		// so this still lands on the shared greeting.
		"eager-customer": {
			{Text: "hello? anyone there?", IsBot: false},
			{Text: "Hello! What can I get you today?", IsBot: true},
			{Text: "what time do you close", IsBot: false},
			{Text: "We close at 9pm.", IsBot: true},
		},
		// 5. Consecutive agent turns chain without a human in between.
		"handoff": {
			{Text: "Hello! What can I get you today?", IsBot: true},
			{Text: "i need to talk to a person", IsBot: false},
			{Text: "One second.", IsBot: true},
			{Text: "Connecting you to a colleague now.", IsBot: true},
		},
	}

	ids := make([]string, 0, len(corpus))
	for id := range corpus {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		transcript := corpus[id]
		data, err := json.MarshalIndent(transcript, "", "  ")
		check(err)
		check(os.WriteFile(filepath.Join(targetDir, id+".json"), append(data, '\n'), 0644))
		fmt.Printf("  %s.json (%d turns)\n", id, len(transcript))
	}

	fmt.Println("Done. Verify contents in", targetDir)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
