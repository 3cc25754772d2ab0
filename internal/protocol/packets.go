// Package protocol defines the observer wire packets.
//
// Packets are little-endian with a uint16 id at offset 0 and a fixed
// layout after it. Decoding malformed input returns an error, never
// panics.
package protocol

import (
	"errors"
	"fmt"
	"math"
)

// Version is the current protocol version carried in Hello.
const Version uint16 = 1

// Packet IDs, daemon -> observer.
const (
	PO_HELLO       uint16 = 0x0001 // Session parameters, sent on subscribe
	PO_CHAR_STATE  uint16 = 0x0002 // Full character state snapshot
	PO_TURN_OFFSET uint16 = 0x0003 // Per-tick turn offset delta
	PO_TICK_MARK   uint16 = 0x0004 // End of tick marker
)

// Character state flags.
const (
	FlagMoving    uint8 = 1 << 0
	FlagTurning   uint8 = 1 << 1
	FlagTurnRight uint8 = 1 << 2
	FlagStrafe    uint8 = 1 << 3
)

// Packet sizes in bytes.
const (
	HelloSize          = 8
	CharacterStateSize = 21
	TurnOffsetSize     = 6
	TickMarkSize       = 6
)

var (
	// ErrShortPacket reports a buffer smaller than the packet layout.
	ErrShortPacket = errors.New("short packet")
	// ErrUnknownPacket reports an unrecognized packet id.
	ErrUnknownPacket = errors.New("unknown packet id")
)

// Packet is the common interface of all wire packets.
type Packet interface {
	Size() int
	Encode() []byte
}

// PeekID reads the packet id without decoding the body.
func PeekID(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("packet id: %w: have %d bytes", ErrShortPacket, len(data))
	}
	return u16(data), nil
}

// Decode decodes any known packet by its id.
func Decode(data []byte) (Packet, error) {
	id, err := PeekID(data)
	if err != nil {
		return nil, err
	}
	switch id {
	case PO_HELLO:
		return DecodeHello(data)
	case PO_CHAR_STATE:
		return DecodeCharacterState(data)
	case PO_TURN_OFFSET:
		return DecodeTurnOffset(data)
	case PO_TICK_MARK:
		return DecodeTickMark(data)
	default:
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownPacket, id)
	}
}

// Hello (PO_HELLO 0x0001) announces session parameters to a new observer.
type Hello struct {
	Version    uint16
	TickRate   uint16
	Characters uint16
}

// Size returns packet size.
func (p *Hello) Size() int {
	return HelloSize
}

// Encode encodes the packet to bytes.
func (p *Hello) Encode() []byte {
	buf := make([]byte, p.Size())
	putU16(buf[0:], PO_HELLO)
	putU16(buf[2:], p.Version)
	putU16(buf[4:], p.TickRate)
	putU16(buf[6:], p.Characters)
	return buf
}

// DecodeHello decodes a Hello packet.
func DecodeHello(data []byte) (*Hello, error) {
	if err := check(data, PO_HELLO, HelloSize, "hello"); err != nil {
		return nil, err
	}
	return &Hello{
		Version:    u16(data[2:]),
		TickRate:   u16(data[4:]),
		Characters: u16(data[6:]),
	}, nil
}

// CharacterState (PO_CHAR_STATE 0x0002) is a full per-character snapshot.
// Yaw is compressed to 16 bits; Anim is the pseudo state machine state.
type CharacterState struct {
	ID      uint16
	X, Y, Z float32
	Yaw     uint16
	Flags   uint8
	Anim    uint8
	Step    uint8
}

// Size returns packet size.
func (p *CharacterState) Size() int {
	return CharacterStateSize
}

// Encode encodes the packet to bytes.
func (p *CharacterState) Encode() []byte {
	buf := make([]byte, p.Size())
	putU16(buf[0:], PO_CHAR_STATE)
	putU16(buf[2:], p.ID)
	putU32(buf[4:], math.Float32bits(p.X))
	putU32(buf[8:], math.Float32bits(p.Y))
	putU32(buf[12:], math.Float32bits(p.Z))
	putU16(buf[16:], p.Yaw)
	buf[18] = p.Flags
	buf[19] = p.Anim
	buf[20] = p.Step
	return buf
}

// DecodeCharacterState decodes a CharacterState packet.
func DecodeCharacterState(data []byte) (*CharacterState, error) {
	if err := check(data, PO_CHAR_STATE, CharacterStateSize, "character state"); err != nil {
		return nil, err
	}
	return &CharacterState{
		ID:    u16(data[2:]),
		X:     math.Float32frombits(u32(data[4:])),
		Y:     math.Float32frombits(u32(data[8:])),
		Z:     math.Float32frombits(u32(data[12:])),
		Yaw:   u16(data[16:]),
		Flags: data[18],
		Anim:  data[19],
		Step:  data[20],
	}, nil
}

// TurnOffset (PO_TURN_OFFSET 0x0003) carries one character's compressed
// turn offset for the current tick.
type TurnOffset struct {
	ID     uint16
	Offset uint16
}

// Size returns packet size.
func (p *TurnOffset) Size() int {
	return TurnOffsetSize
}

// Encode encodes the packet to bytes.
func (p *TurnOffset) Encode() []byte {
	buf := make([]byte, p.Size())
	putU16(buf[0:], PO_TURN_OFFSET)
	putU16(buf[2:], p.ID)
	putU16(buf[4:], p.Offset)
	return buf
}

// DecodeTurnOffset decodes a TurnOffset packet.
func DecodeTurnOffset(data []byte) (*TurnOffset, error) {
	if err := check(data, PO_TURN_OFFSET, TurnOffsetSize, "turn offset"); err != nil {
		return nil, err
	}
	return &TurnOffset{
		ID:     u16(data[2:]),
		Offset: u16(data[4:]),
	}, nil
}

// TickMark (PO_TICK_MARK 0x0004) closes a tick on the wire and in journals.
type TickMark struct {
	Tick uint32
}

// Size returns packet size.
func (p *TickMark) Size() int {
	return TickMarkSize
}

// Encode encodes the packet to bytes.
func (p *TickMark) Encode() []byte {
	buf := make([]byte, p.Size())
	putU16(buf[0:], PO_TICK_MARK)
	putU32(buf[2:], p.Tick)
	return buf
}

// DecodeTickMark decodes a TickMark packet.
func DecodeTickMark(data []byte) (*TickMark, error) {
	if err := check(data, PO_TICK_MARK, TickMarkSize, "tick mark"); err != nil {
		return nil, err
	}
	return &TickMark{Tick: u32(data[2:])}, nil
}

// check validates the id and minimum length of a packet buffer.
func check(data []byte, id uint16, size int, name string) error {
	if len(data) < size {
		return fmt.Errorf("%s: %w: need %d bytes, have %d", name, ErrShortPacket, size, len(data))
	}
	if got := u16(data); got != id {
		return fmt.Errorf("%s: %w: 0x%04X", name, ErrUnknownPacket, got)
	}
	return nil
}

func u16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func u32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
