package midi

import "sort"

// TimedMessage is a raw MIDI message scheduled at an absolute frame
// position in a rendered stream.
type TimedMessage struct {
	Frame int
	Msg   [3]byte
}

// Sequence is a frame-ordered schedule of MIDI messages, used for
// offline rendering where events must land on exact frames rather than
// whenever a device delivers them. Messages may be added in any order;
// reads sort lazily. A Sequence is not safe for concurrent use.
type Sequence struct {
	messages []TimedMessage
	sorted   bool
}

// NewSequence returns an empty schedule.
func NewSequence() *Sequence {
	return &Sequence{sorted: true}
}

// Add schedules a raw MIDI message at the given frame. Messages shorter
// than three bytes are padded with zeros; longer ones are truncated.
func (s *Sequence) Add(frame int, msg []byte) {
	var tm TimedMessage
	tm.Frame = frame
	copy(tm.Msg[:], msg)
	s.messages = append(s.messages, tm)
	s.sorted = false
}

// AddNote schedules a complete note: note-on at frame, note-off after
// durFrames.
func (s *Sequence) AddNote(frame, durFrames int, note, velocity uint8) {
	s.Add(frame, []byte{0x90, note, velocity})
	s.Add(frame+durFrames, []byte{0x80, note, 0})
}

// Len returns the number of scheduled messages.
func (s *Sequence) Len() int {
	return len(s.messages)
}

// End returns the frame just past the last scheduled message, or 0 for
// an empty sequence.
func (s *Sequence) End() int {
	s.sort()
	if len(s.messages) == 0 {
		return 0
	}
	return s.messages[len(s.messages)-1].Frame + 1
}

// ForRange returns the messages scheduled in [start, end), in frame
// order. The returned slice aliases internal storage and is valid until
// the next Add.
func (s *Sequence) ForRange(start, end int) []TimedMessage {
	s.sort()
	lo := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].Frame >= start
	})
	hi := lo
	for hi < len(s.messages) && s.messages[hi].Frame < end {
		hi++
	}
	return s.messages[lo:hi]
}

func (s *Sequence) sort() {
	if s.sorted {
		return
	}
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].Frame < s.messages[j].Frame
	})
	s.sorted = true
}
