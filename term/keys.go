package term

// Key identifies one decoded key event.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPgUp
	KeyPgDn
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyAlt // Alt-<letter>; Event.Rune carries which one
	KeyRune
)

// Event is one decoded input event. For KeyAlt and KeyRune, Rune
// carries the letter; for all named keys it is zero.
type Event struct {
	Key  Key
	Rune rune
}

// Decoder turns a raw input byte stream into key events, recognizing
// the CSI sequences of §6: ESC[A/B/C/D (arrows), ESC[H/F (Home/End),
// ESC[2~/3~/5~/6~ (Insert/Delete/PgUp/PgDn), ESC O P/Q/R/S (F1-F4),
// and ESC <letter> (Alt-letter).
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Feed appends raw bytes and returns every event that can be decoded
// from the buffer so far, retaining an incomplete trailing escape
// sequence for the next Feed call.
func (d *Decoder) Feed(data []byte) []Event {
	d.buf = append(d.buf, data...)
	var events []Event

scan:
	for len(d.buf) > 0 {
		if d.buf[0] != 0x1b {
			events = append(events, Event{Key: KeyRune, Rune: rune(d.buf[0])})
			d.buf = d.buf[1:]
			continue
		}

		// Lone ESC at end of buffer: wait for more.
		if len(d.buf) == 1 {
			break
		}

		switch d.buf[1] {
		case '[':
			ev, n, ok := decodeCSI(d.buf)
			if !ok {
				if n == 0 {
					break scan // incomplete; wait for more bytes
				}
				d.buf = d.buf[n:]
				continue
			}
			events = append(events, ev)
			d.buf = d.buf[n:]
		case 'O':
			if len(d.buf) < 3 {
				return events // incomplete
			}
			if k, ok := fkeyMap[d.buf[2]]; ok {
				events = append(events, Event{Key: k})
			}
			d.buf = d.buf[3:]
		default:
			// ESC <letter>: Alt-letter.
			events = append(events, Event{Key: KeyAlt, Rune: rune(d.buf[1])})
			d.buf = d.buf[2:]
		}
	}
	return events
}

var fkeyMap = map[byte]Key{
	'P': KeyF1, 'Q': KeyF2, 'R': KeyF3, 'S': KeyF4,
}

var arrowMap = map[byte]Key{
	'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
	'H': KeyHome, 'F': KeyEnd,
}

var tildeMap = map[byte]Key{
	'2': KeyInsert, '3': KeyDelete, '5': KeyPgUp, '6': KeyPgDn,
}

// decodeCSI decodes one ESC[... sequence starting at buf[0]=='\x1b',
// buf[1]=='['. Returns the event, the number of bytes consumed, and
// whether a recognized event was produced (n==0 means incomplete;
// n>0 with ok==false means consumed-but-unrecognized).
func decodeCSI(buf []byte) (Event, int, bool) {
	if len(buf) < 3 {
		return Event{}, 0, false
	}
	b2 := buf[2]
	if k, ok := arrowMap[b2]; ok {
		return Event{Key: k}, 3, true
	}
	if b2 >= '0' && b2 <= '9' {
		if len(buf) < 4 {
			return Event{}, 0, false
		}
		if buf[3] == '~' {
			if k, ok := tildeMap[b2]; ok {
				return Event{Key: k}, 4, true
			}
			return Event{}, 4, false
		}
		return Event{}, 0, false
	}
	return Event{}, 3, false
}
