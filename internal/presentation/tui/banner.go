package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arbor ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Green gradient, trunk to canopy.
	lines := []struct{ text, color string }{
		{"    __ _ _ __| |__   ___  _ __ ", "#14532d"},
		{"   / _` | '__| '_ \\ / _ \\| '__|", "#166534"},
		{"  | (_| | |  | |_) | (_) | |   ", "#15803d"},
		{"   \\__,_|_|  |_.__/ \\___/|_|   ", "#22c55e"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("   record tree engine v"+version).Faint())
	fmt.Fprintln(w)
}
