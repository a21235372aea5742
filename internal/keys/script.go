package keys

import "github.com/sweeney/brewer/internal/device"

// Script is a test double that returns scripted keys, one per Take call.
// An empty label means "no key on this poll". Once exhausted, Take reports
// no key.
type Script struct {
	Keys []device.Key

	// Taken counts Take calls, including empty ones.
	Taken int
}

// NewScript creates a Script with the given keys.
func NewScript(keys ...device.Key) *Script {
	return &Script{Keys: keys}
}

// Take returns the next scripted key.
func (s *Script) Take() (device.Key, bool) {
	s.Taken++
	if len(s.Keys) == 0 {
		return "", false
	}
	k := s.Keys[0]
	s.Keys = s.Keys[1:]
	if k == "" {
		return "", false
	}
	return k, true
}

// Push appends keys to the script.
func (s *Script) Push(keys ...device.Key) {
	s.Keys = append(s.Keys, keys...)
}

// Remaining reports how many scripted entries are left.
func (s *Script) Remaining() int {
	return len(s.Keys)
}
