package telemetry

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// FakeWriter records points for test assertions.
type FakeWriter struct {
	mu      sync.Mutex
	Points  []*write.Point
	Flushes int
}

// WritePoint records the point.
func (f *FakeWriter) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Points = append(f.Points, p)
}

// Flush counts flushes.
func (f *FakeWriter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Flushes++
}

// Lines returns the recorded points in line protocol.
func (f *FakeWriter) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Points))
	for i, p := range f.Points {
		lines[i] = write.PointToLineProtocol(p, time.Second)
	}
	return lines
}
