package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
)

// WalkOptions contains all the configuration for the Walk command.
type WalkOptions struct {
	TreePath string
	Headless bool
}

// Walk loads a built tree artifact and steps through it as a dialog.
func Walk(opts WalkOptions) error {
	root, err := LoadTree(opts.TreePath)
	if err != nil {
		return err
	}

	if !opts.Headless {
		tui.PrintBanner(espalier.Version)
	}

	// Setup signal handling
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	r := espalier.NewRunner()
	r.Input = NewInterruptibleReader(os.Stdin, sigCtx.Done())
	r.Output = os.Stdout
	r.Headless = opts.Headless
	if !opts.Headless && term.IsTerminal(int(os.Stdout.Fd())) {
		r.Renderer = tui.NewRenderer()
	}

	runErr := r.Run(root)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	if runErr != nil && isInterrupted(runErr) && sigCtx.Signal() == os.Interrupt {
		fmt.Printf("[CTRL+C]\n")
	}

	return handleExecutionError(runErr)
}
