package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the twsgraph ASCII banner and a subtitle to w.
func PrintBanner(w io.Writer, subtitle string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _                                    _     ", "#818cf8"},
		{" | |___      _____  __ _ _ __ __ _ _ __ | |__  ", "#a78bfa"},
		{" | __\\ \\ /\\ / / __|/ _` | '__/ _` | '_ \\| '_ \\ ", "#c084fc"},
		{" | |_ \\ V  V /\\__ \\ (_| | | | (_| | |_) | | | |", "#e879f9"},
		{"  \\__| \\_/\\_/ |___/\\__, |_|  \\__,_| .__/|_| |_|", "#f472b6"},
		{"                   |___/          |_|          ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, termenv.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
