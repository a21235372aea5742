package device

import "time"

// ToneKind names a buzzer pattern.
type ToneKind int

const (
	ToneSuccess ToneKind = iota
	ToneBrewStart
	ToneAlert
	ToneError
	ToneReady
)

func (k ToneKind) String() string {
	switch k {
	case ToneSuccess:
		return "success"
	case ToneBrewStart:
		return "brew-start"
	case ToneAlert:
		return "alert"
	case ToneError:
		return "error"
	case ToneReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Note is one buzzer tone followed by a silent pause.
type Note struct {
	FreqHz   int
	Duration time.Duration
	Pause    time.Duration
}

// Pattern returns the notes played for a tone kind.
func (k ToneKind) Pattern() []Note {
	ms := time.Millisecond
	switch k {
	case ToneSuccess:
		return []Note{{1000, 500 * ms, 100 * ms}, {2000, 500 * ms, 0}}
	case ToneBrewStart:
		return []Note{{500, 600 * ms, 0}}
	case ToneAlert:
		n := Note{400, 400 * ms, 300 * ms}
		return []Note{n, n, n, n}
	case ToneError:
		n := Note{3000, 200 * ms, 200 * ms}
		return []Note{n, n, n}
	case ToneReady:
		return []Note{
			{262, 200 * ms, 100 * ms},
			{294, 200 * ms, 100 * ms},
			{330, 200 * ms, 100 * ms},
			{349, 200 * ms, 100 * ms},
			{392, 400 * ms, 100 * ms},
		}
	default:
		return nil
	}
}
