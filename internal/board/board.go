package board

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/logging"
)

// KeySink accepts decoded remote keys.
type KeySink interface {
	Put(k device.Key)
}

const ambientKey = "ambient"

type ambientEntry struct {
	reading device.Ambient
	err     error
}

type handler func(b *Board, payload string) error

var handlers = map[byte]handler{
	FlagKey: func(b *Board, payload string) error {
		k, ok := device.ParseKey(strings.TrimSpace(payload))
		if !ok {
			return fmt.Errorf("%w: unknown key %q", ErrBadFrame, payload)
		}
		b.keys.Put(k)
		return nil
	},
	FlagIR: func(b *Board, payload string) error {
		k, err := parseIR(payload)
		if err != nil {
			return err
		}
		b.keys.Put(k)
		return nil
	},
	FlagADC: func(b *Board, payload string) error {
		raw, err := parseADC(payload)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.adc = raw
		b.mu.Unlock()
		return nil
	},
	FlagDHT: func(b *Board, payload string) error {
		raw, err := decodeHex(payload, 5)
		if err != nil {
			return err
		}
		a, err := DecodeDHT22([5]byte(raw))
		b.ambient.SetDefault(ambientKey, ambientEntry{reading: a, err: err})
		return nil
	},
	FlagRTC: func(b *Board, payload string) error {
		raw, err := decodeHex(payload, 7)
		if err != nil {
			return err
		}
		dt := device.DecodeRTC([7]byte(raw))
		b.mu.Lock()
		b.clock = dt
		b.mu.Unlock()
		return nil
	},
}

// Board is the Sensor and Display gateway backed by the companion board.
// Frames update the latest readings; reads never block on the link.
type Board struct {
	mu    sync.Mutex
	adc   [3]int
	clock device.DateTime

	// ambient holds the last DHT22 result until it is too old to trust.
	ambient *cache.Cache
	ttl     time.Duration

	keys KeySink

	outMu sync.Mutex
	out   io.Writer

	log *logging.Logger

	frames  int
	dropped int
}

// New creates a Board that writes display commands to out and delivers keys
// to keys. Ambient readings older than ambientTTL are treated as missing.
func New(out io.Writer, keys KeySink, ambientTTL time.Duration, log *logging.Logger) *Board {
	return &Board{
		ambient: cache.New(ambientTTL, 2*ambientTTL),
		ttl:     ambientTTL,
		keys:    keys,
		out:     out,
		log:     log.With("component", "board"),
	}
}

// HandleLine applies one frame from the board.
func (b *Board) HandleLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return ErrNoFrame
	}
	h, ok := handlers[line[0]]
	if !ok {
		return fmt.Errorf("%w: unknown flag %q", ErrBadFrame, line[0])
	}
	return h(b, line[1:])
}

// Run reads frames from r until EOF, a read error or ctx is done. Malformed
// frames are logged and skipped.
func (b *Board) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.HandleLine(sc.Text())
		b.mu.Lock()
		b.frames++
		if err != nil {
			b.dropped++
		}
		b.mu.Unlock()
		if err != nil && !errors.Is(err, ErrNoFrame) {
			b.log.Warn("frame dropped", "line", sc.Text(), "error", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("board: read: %w", err)
	}
	return nil
}

// Stats returns the number of lines read and how many were dropped.
func (b *Board) Stats() (frames, dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames, b.dropped
}

func (b *Board) raw(i int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adc[i]
}

func (b *Board) ReadIntensity() int {
	return IntensityFromADC(b.raw(0))
}

func (b *Board) ReadDesiredTemperature() float64 {
	return TemperatureFromADC(b.raw(1))
}

func (b *Board) ReadWaterVolume() int {
	return VolumeFromADC(b.raw(2))
}

// ReadAmbient returns the latest DHT22 reading. A reading older than the
// ambient TTL counts as a sensor fault.
func (b *Board) ReadAmbient() (device.Ambient, error) {
	v, found := b.ambient.Get(ambientKey)
	if !found {
		return device.Ambient{}, fmt.Errorf("%w: %w within %s", device.ErrSensorFault, ErrNoFrame, b.ttl)
	}
	e := v.(ambientEntry)
	return e.reading, e.err
}

func (b *Board) ReadClock() device.DateTime {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

func (b *Board) send(cmd string) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	if _, err := io.WriteString(b.out, cmd+"\n"); err != nil {
		b.log.Error("display write failed", "error", err)
	}
}

func (b *Board) Clear() {
	b.send("C")
}

func (b *Board) SetCursor(row, col int) {
	b.send(fmt.Sprintf("S%d,%d", row, col))
}

// Print sends text for the current cursor position. Line breaks are not
// part of the display character set and are replaced with spaces.
func (b *Board) Print(text string) {
	b.send("P" + strings.NewReplacer("\r", " ", "\n", " ").Replace(text))
}
