package device

// Key is a decoded remote-control key label.
type Key string

// Labels printed on the appliance remote.
const (
	Key0       Key = "0"
	Key1       Key = "1"
	Key2       Key = "2"
	Key3       Key = "3"
	Key4       Key = "4"
	Key5       Key = "5"
	Key6       Key = "6"
	Key7       Key = "7"
	Key8       Key = "8"
	Key9       Key = "9"
	KeyPlay    Key = "PLAY"
	KeyPlus    Key = "+"
	KeyMinus   Key = "-"
	KeyChMinus Key = "CH-"
	KeyCh      Key = "CH"
	KeyChPlus  Key = "CH+"
	KeyPrev    Key = "PREV"
	KeyNext    Key = "NEXT"
	KeyEQ      Key = "EQ"
	Key100Plus Key = "100+"
	Key200Plus Key = "200+"
)

// necCommands maps NEC command bytes of the remote to key labels.
var necCommands = map[byte]Key{
	0x45: KeyChMinus,
	0x46: KeyCh,
	0x47: KeyChPlus,
	0x44: KeyPrev,
	0x40: KeyNext,
	0x43: KeyPlay,
	0x07: KeyMinus,
	0x15: KeyPlus,
	0x09: KeyEQ,
	0x16: Key0,
	0x19: Key100Plus,
	0x0D: Key200Plus,
	0x0C: Key1,
	0x18: Key2,
	0x5E: Key3,
	0x08: Key4,
	0x1C: Key5,
	0x5A: Key6,
	0x42: Key7,
	0x52: Key8,
	0x4A: Key9,
}

var knownKeys = func() map[Key]bool {
	m := make(map[Key]bool, len(necCommands))
	for _, k := range necCommands {
		m[k] = true
	}
	return m
}()

// KeyForNEC returns the label for an NEC command byte.
func KeyForNEC(cmd byte) (Key, bool) {
	k, ok := necCommands[cmd]
	return k, ok
}

// ParseKey validates a textual key label.
func ParseKey(s string) (Key, bool) {
	k := Key(s)
	return k, knownKeys[k]
}

// Digit returns the decimal value of a digit key.
func (k Key) Digit() (int, bool) {
	if len(k) != 1 || k[0] < '0' || k[0] > '9' {
		return 0, false
	}
	return int(k[0] - '0'), true
}
