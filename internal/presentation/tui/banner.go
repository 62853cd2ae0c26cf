package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Tabi banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).Profile
	// Sunrise gradient (amber to rose)
	lines := []struct{ text, color string }{
		{"  _        _     _ ", "#fbbf24"},
		{" | |_ __ _| |__ (_)", "#fb923c"},
		{" | __/ _` | '_ \\| |", "#f87171"},
		{" | || (_| | |_) | |", "#f472b6"},
		{"  \\__\\__,_|_.__/|_|", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
