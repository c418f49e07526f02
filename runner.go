package espalier

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Runner steps through a built dialog tree using the provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms agent phrases before outputting them.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. Callers provide IO explicitly; outside
// of tests that is os.Stdin and os.Stdout.
func NewRunner() *Runner {
	return &Runner{}
}

// Run walks the tree from its root until a leaf is reached, input ends, or
// the user quits. Agent turns chain without input; at each decision point
// the human replies are offered as numbered choices. In headless mode the
// walk follows the conversation while it is unambiguous and stops at the
// first real branch.
func (r *Runner) Run(root *domain.Node) error {
	writer := r.Output
	if writer == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.Input == nil && !r.Headless {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}

	var lineReader *bufio.Reader
	if r.Input != nil {
		lineReader = bufio.NewReader(r.Input)
	}

	if !r.Headless {
		fmt.Fprintln(writer, "--- Dialog Walker ---")
	}

	node := root
	for {
		// 1. Display Phase
		// Human nodes stay silent: their wording was already offered as a choice.
		if node.IsBot() && !node.Empty() {
			output := node.Phrases()[0]
			if r.Renderer != nil {
				if rendered, err := r.Renderer(output); err == nil {
					output = rendered
				}
			}
			fmt.Fprintln(writer, strings.TrimSpace(output))
		}

		// 2. Choice Phase
		var agentNext *domain.Node
		var choices []*domain.Node
		for _, child := range node.Replies() {
			if child.IsBot() {
				agentNext = child
			} else {
				choices = append(choices, child)
			}
		}

		// Leaf: the conversation has nowhere left to go.
		if agentNext == nil && len(choices) == 0 {
			break
		}

		// Agent turns chain without input.
		if len(choices) == 0 {
			node = agentNext
			continue
		}

		if r.Headless {
			if len(choices) == 1 && agentNext == nil {
				// A single reply is not a decision, follow it.
				choice := choices[0]
				if !choice.Empty() {
					fmt.Fprintf(writer, "> %s %q\n", choice.Intent(), choice.Phrases()[0])
				}
				node = choice
				continue
			}
			printChoices(writer, choices, nil)
			break
		}

		printChoices(writer, choices, agentNext)

		// 3. Input Phase
		next, err := r.readChoice(lineReader, writer, choices, agentNext)
		if err != nil {
			if err == io.EOF {
				// Graceful exit on EOF
				break
			}
			return err
		}
		if next == nil {
			break
		}
		node = next
	}
	return nil
}

// readChoice prompts until the input names a listed reply. A nil node with
// a nil error means the user asked to leave.
func (r *Runner) readChoice(lineReader *bufio.Reader, writer io.Writer, choices []*domain.Node, agentNext *domain.Node) (*domain.Node, error) {
	for {
		fmt.Fprint(writer, "> ")
		text, err := lineReader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		if input == "exit" || input == "quit" {
			fmt.Fprintln(writer, "Bye!")
			return nil, nil
		}

		if input == "" {
			if agentNext != nil {
				return agentNext, nil
			}
			continue
		}

		if idx, err := strconv.Atoi(input); err == nil && idx >= 1 && idx <= len(choices) {
			return choices[idx-1], nil
		}
		for _, choice := range choices {
			if strings.EqualFold(choice.Intent(), input) {
				return choice, nil
			}
		}

		fmt.Fprintf(writer, "Unknown choice %q, pick a number or an intent name.\n", input)
	}
}

func printChoices(writer io.Writer, choices []*domain.Node, agentNext *domain.Node) {
	for i, choice := range choices {
		if choice.Empty() {
			fmt.Fprintf(writer, "%d. %s\n", i+1, choice.Intent())
			continue
		}
		fmt.Fprintf(writer, "%d. %s %q\n", i+1, choice.Intent(), choice.Phrases()[0])
	}
	if agentNext != nil {
		fmt.Fprintln(writer, "(press Enter to let the agent continue)")
	}
}
