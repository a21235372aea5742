// Package board talks to the companion sensor board over a serial link and
// exposes it as the appliance's Sensor and Display gateways.
//
// The board sends one frame per line, a flag byte followed by a payload:
//
//	K<label>        decoded remote key, e.g. "KPLAY"
//	I<hh>           raw NEC command byte in hex, e.g. "I43"
//	A<i>,<t>,<v>    12-bit ADC readings of the three selector knobs
//	D<hhx5>         DHT22 frame: humidity hi/lo, temp hi/lo, checksum
//	R<hhx7>         DS1307 register block, BCD
//
// The host drives the 20x4 display with "C" (clear), "S<row>,<col>" and
// "P<text>" lines.
package board

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/brewer/internal/device"
)

var (
	// ErrNoFrame means the board has not sent a usable frame of the needed kind.
	ErrNoFrame = errors.New("board: no frame")
	// ErrBadFrame is wrapped by every frame parse failure.
	ErrBadFrame = errors.New("board: malformed frame")
)

// Frame flags.
const (
	FlagKey = 'K'
	FlagIR  = 'I'
	FlagADC = 'A'
	FlagDHT = 'D'
	FlagRTC = 'R'
)

const adcMax = 4095

func clampADC(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > adcMax {
		return adcMax
	}
	return raw
}

// IntensityFromADC maps a raw knob reading to 0..100 %.
func IntensityFromADC(raw int) int {
	return clampADC(raw) * 100 / adcMax
}

// TemperatureFromADC maps a raw knob reading to 85.0..95.0 °C.
func TemperatureFromADC(raw int) float64 {
	pct := float64(clampADC(raw)) * 100 / adcMax
	return 85 + pct*10/100
}

// VolumeFromADC maps a raw knob reading to 50..200 ml.
func VolumeFromADC(raw int) int {
	return 50 + clampADC(raw)*150/adcMax
}

// DecodeDHT22 decodes a 5-byte DHT22 frame. It returns device.ErrSensorFault
// on a checksum mismatch or a reading outside the sensor's range.
func DecodeDHT22(data [5]byte) (device.Ambient, error) {
	sum := byte(int(data[0]) + int(data[1]) + int(data[2]) + int(data[3]))
	if data[4] != sum {
		return device.Ambient{}, fmt.Errorf("%w: dht22 checksum %#02x, want %#02x", device.ErrSensorFault, data[4], sum)
	}

	humidity := float64(int(data[0])<<8|int(data[1])) / 10
	if humidity > 100 {
		humidity = float64(data[0])
	}
	temp := float64(int(data[2]&0x7F)<<8|int(data[3])) / 10
	if temp > 125 {
		temp = float64(data[2])
	}
	if data[2]&0x80 != 0 {
		temp = -temp
	}

	if humidity <= 0 || temp <= -40 || temp >= 125 {
		return device.Ambient{}, fmt.Errorf("%w: dht22 out of range (%.1fC, %.1f%%)", device.ErrSensorFault, temp, humidity)
	}
	return device.Ambient{TempC: temp, HumidityPct: humidity}, nil
}

func decodeHex(payload string, n int) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrBadFrame, len(b), n)
	}
	return b, nil
}

// parseADC parses "i,t,v" into three raw readings.
func parseADC(payload string) ([3]int, error) {
	var raw [3]int
	parts := strings.Split(strings.TrimSpace(payload), ",")
	if len(parts) != len(raw) {
		return raw, fmt.Errorf("%w: adc wants 3 values, got %d", ErrBadFrame, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return raw, fmt.Errorf("%w: adc value %q", ErrBadFrame, p)
		}
		raw[i] = clampADC(v)
	}
	return raw, nil
}

// parseIR parses a hex NEC command byte and maps it to a key.
func parseIR(payload string) (device.Key, error) {
	b, err := decodeHex(payload, 1)
	if err != nil {
		return "", err
	}
	k, ok := device.KeyForNEC(b[0])
	if !ok {
		return "", fmt.Errorf("%w: unknown NEC command %#02x", ErrBadFrame, b[0])
	}
	return k, nil
}
