// Package midi provides typed MIDI events and raw message parsing for
// the engine's host boundary.
package midi

import "fmt"

// EventType identifies the kind of MIDI event.
type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
	EventTypePitchBend
)

// Event is a decoded MIDI message.
type Event interface {
	Type() EventType
	Channel() uint8
	String() string
}

// BaseEvent carries the channel shared by all event types.
type BaseEvent struct {
	EventChannel uint8
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d}", e.EventChannel, e.NoteNumber, e.Velocity)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d}", e.EventChannel, e.NoteNumber, e.Velocity)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d}", e.EventChannel, e.Controller, e.Value)
}

// Controller numbers the engine responds to.
const (
	CCModWheel    uint8 = 1
	CCVolume      uint8 = 7
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCAllNotesOff uint8 = 123
)

type PitchBendEvent struct {
	BaseEvent
	Value int16 // -8192 to 8191, 0 is center
}

func (e PitchBendEvent) Type() EventType {
	return EventTypePitchBend
}

func (e PitchBendEvent) String() string {
	return fmt.Sprintf("PitchBend{ch:%d, val:%d}", e.EventChannel, e.Value)
}

// NormalizedValue returns the bend in [-1, 1).
func (e PitchBendEvent) NormalizedValue() float64 {
	return float64(e.Value) / 8192.0
}

// Parse decodes a raw MIDI message. It returns false for messages the
// engine does not handle (system messages, aftertouch, short reads).
// A note-on with velocity zero is reported as a NoteOffEvent.
func Parse(msg []byte) (Event, bool) {
	if len(msg) < 2 {
		return nil, false
	}
	status := msg[0] & 0xF0
	channel := msg[0] & 0x0F
	data1 := msg[1] & 0x7F
	var data2 uint8
	if len(msg) > 2 {
		data2 = msg[2] & 0x7F
	}

	base := BaseEvent{EventChannel: channel}
	switch status {
	case 0x90:
		if data2 == 0 {
			return NoteOffEvent{BaseEvent: base, NoteNumber: data1}, true
		}
		return NoteOnEvent{BaseEvent: base, NoteNumber: data1, Velocity: data2}, true
	case 0x80:
		return NoteOffEvent{BaseEvent: base, NoteNumber: data1, Velocity: data2}, true
	case 0xB0:
		return ControlChangeEvent{BaseEvent: base, Controller: data1, Value: data2}, true
	case 0xE0:
		value := int16(uint16(data2)<<7|uint16(data1)) - 8192
		return PitchBendEvent{BaseEvent: base, Value: value}, true
	}
	return nil, false
}
