package tui

import (
	"fmt"
	"io"
)

var bannerLines = []string{
	"                             _                 _",
	"  __ _  __ _ _ __ ___   ___| |__   ___   ___ | | __",
	" / _` |/ _` | '_ ` _ \\ / _ \\ '_ \\ / _ \\ / _ \\| |/ /",
	"| (_| | (_| | | | | | |  __/ |_) | (_) | (_) |   <",
	" \\__, |\\__,_|_| |_| |_|\\___|_.__/ \\___/ \\___/|_|\\_\\",
	" |___/",
}

// Amber to rose, one shade per line.
var bannerColors = []string{"#fbbf24", "#f59e0b", "#f97316", "#ef4444", "#e11d48", "#be123c"}

// PrintBanner writes the gamebook ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
