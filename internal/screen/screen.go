// Package screen has small rendering helpers on top of device.Display.
package screen

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
)

// Line is text placed at a fixed cursor position.
type Line struct {
	Row, Col int
	Text     string
}

// At builds a Line.
func At(row, col int, text string) Line {
	return Line{Row: row, Col: col, Text: text}
}

// Show clears the display and prints every line.
func Show(d device.Display, lines ...Line) {
	d.Clear()
	for _, l := range lines {
		PrintAt(d, l.Row, l.Col, l.Text)
	}
}

// PrintAt moves the cursor and prints text clipped to the row width.
func PrintAt(d device.Display, row, col int, text string) {
	d.SetCursor(row, col)
	d.Print(Clip(text, device.DisplayCols-col))
}

// Clip truncates text to at most n bytes.
func Clip(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) > n {
		return text[:n]
	}
	return text
}

// Blink shows text at (row, col) times times, blanking it in between.
func Blink(d device.Display, clk clock.Clock, row, col int, text string, times int, interval time.Duration) {
	blank := strings.Repeat(" ", len(text))
	for i := 0; i < times; i++ {
		PrintAt(d, row, col, text)
		clk.Sleep(interval)
		PrintAt(d, row, col, blank)
		clk.Sleep(interval)
	}
	PrintAt(d, row, col, text)
}

// ProgressBar renders a bracketed bar of width cells for pct (0..100).
func ProgressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s]%3d%%", strings.Repeat("#", filled), strings.Repeat(" ", width-filled), pct)
}
