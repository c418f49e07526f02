package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// PrintBanner outputs the espalier ASCII banner with the version.
// It stays quiet when stdout is not a terminal, so piped artifact output
// is never polluted by decoration.
func PrintBanner(version string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}

	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (grown greens)
	s1 := termenv.String("                              _   _").Foreground(p.Color("#86efac"))
	s2 := termenv.String("  ___   ___   _ __     __ _  | | (_)   ___   _ __").Foreground(p.Color("#4ade80"))
	s3 := termenv.String(" / _ \\ / __| | '_ \\   / _` | | | | |  / _ \\ | '__|").Foreground(p.Color("#34d399"))
	s4 := termenv.String("|  __/ \\__ \\ | |_) | | (_| | | | | | |  __/ | |").Foreground(p.Color("#10b981"))
	s5 := termenv.String(" \\___| |___/ | .__/   \\__,_| |_| |_|  \\___| |_|").Foreground(p.Color("#14b8a6"))
	s6 := termenv.String("             |_|").Foreground(p.Color("#0d9488"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	if v := strings.TrimSpace(version); v != "" {
		fmt.Println(termenv.String("             v" + v).Faint())
	}
	fmt.Println()
}
