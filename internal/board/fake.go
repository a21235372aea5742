package board

import (
	"strings"
	"sync"

	"github.com/sweeney/brewer/internal/device"
)

// FakeSensors is a test double returning configured readings.
type FakeSensors struct {
	mu sync.Mutex

	Intensity   int
	DesiredTemp float64
	Volume      int
	Ambient     device.Ambient
	AmbientErr  error
	Clock       device.DateTime

	// ClockFunc, if set, overrides Clock. Tests tie it to a fake clock.
	ClockFunc func() device.DateTime

	AmbientReads int
	ClockReads   int
}

// NewFakeSensors returns sensors at mid-range settings and a valid ambient reading.
func NewFakeSensors() *FakeSensors {
	return &FakeSensors{
		Intensity:   50,
		DesiredTemp: 90,
		Volume:      100,
		Ambient:     device.Ambient{TempC: 22.5, HumidityPct: 45},
		Clock:       device.DateTime{Year: 2026, Month: 6, Day: 10, Hour: 8},
	}
}

func (f *FakeSensors) ReadIntensity() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Intensity
}

func (f *FakeSensors) ReadDesiredTemperature() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DesiredTemp
}

func (f *FakeSensors) ReadWaterVolume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Volume
}

func (f *FakeSensors) ReadAmbient() (device.Ambient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AmbientReads++
	if f.AmbientErr != nil {
		return device.Ambient{}, f.AmbientErr
	}
	return f.Ambient, nil
}

func (f *FakeSensors) ReadClock() device.DateTime {
	f.mu.Lock()
	fn := f.ClockFunc
	f.ClockReads++
	dt := f.Clock
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return dt
}

// SetClock sets the clock reading.
func (f *FakeSensors) SetClock(dt device.DateTime) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clock = dt
}

// FakeDisplay is an in-memory character display of device.DisplayRows x
// device.DisplayCols. Text past the row end is dropped.
type FakeDisplay struct {
	mu       sync.Mutex
	grid     [device.DisplayRows][device.DisplayCols]byte
	row, col int

	// Printed records every Print call in order.
	Printed []string
	Clears  int
}

// NewFakeDisplay creates a blank FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	d := &FakeDisplay{}
	d.blank()
	return d
}

func (d *FakeDisplay) blank() {
	for r := range d.grid {
		for c := range d.grid[r] {
			d.grid[r][c] = ' '
		}
	}
	d.row, d.col = 0, 0
}

func (d *FakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blank()
	d.Clears++
}

func (d *FakeDisplay) SetCursor(row, col int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.row, d.col = row, col
}

func (d *FakeDisplay) Print(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Printed = append(d.Printed, text)
	if d.row < 0 || d.row >= device.DisplayRows {
		return
	}
	for i := 0; i < len(text); i++ {
		if d.col >= 0 && d.col < device.DisplayCols {
			d.grid[d.row][d.col] = text[i]
		}
		d.col++
	}
}

// Row returns the visible text of row r without trailing spaces.
func (d *FakeDisplay) Row(r int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimRight(string(d.grid[r][:]), " ")
}

// Screen returns all rows joined by newlines.
func (d *FakeDisplay) Screen() string {
	rows := make([]string, device.DisplayRows)
	for r := range rows {
		rows[r] = d.Row(r)
	}
	return strings.Join(rows, "\n")
}

// Saw reports whether any Print call contained substr.
func (d *FakeDisplay) Saw(substr string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.Printed {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

// CountPrinted returns how many Print calls contained substr.
func (d *FakeDisplay) CountPrinted(substr string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, p := range d.Printed {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

// Reset forgets recorded prints and blanks the screen.
func (d *FakeDisplay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blank()
	d.Printed = nil
	d.Clears = 0
}
