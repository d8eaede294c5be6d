// Package packet decodes the F1 24 UDP telemetry format.
//
// Every datagram starts with a 29 byte Header followed by a body whose
// layout depends on Header.PacketID. All values are little endian and the
// per car arrays always have MaxCars slots, indexed by vehicle index.
package packet

import (
	"errors"
	"fmt"
)

const (
	SupportedFormat = 2024
	HeaderSize      = 29
	MaxCars         = 22
)

type PacketID uint8

const (
	MotionID PacketID = iota
	SessionID
	LapDataID
	EventID
	ParticipantsID
	CarSetupsID
	CarTelemetryID
	CarStatusID
	FinalClassificationID
	LobbyInfoID
	CarDamageID
	SessionHistoryID
	TyreSetsID
	MotionExID
	TimeTrialID
)

var packetNames = map[PacketID]string{
	MotionID:              "motion",
	SessionID:             "session",
	LapDataID:             "lapData",
	EventID:               "event",
	ParticipantsID:        "participants",
	CarSetupsID:           "carSetups",
	CarTelemetryID:        "carTelemetry",
	CarStatusID:           "carStatus",
	FinalClassificationID: "finalClassification",
	LobbyInfoID:           "lobbyInfo",
	CarDamageID:           "carDamage",
	SessionHistoryID:      "sessionHistory",
	TyreSetsID:            "tyreSets",
	MotionExID:            "motionEx",
	TimeTrialID:           "timeTrial",
}

func (p PacketID) String() string {
	if s, ok := packetNames[p]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

var (
	ErrInvalidHeader     = errors.New("invalid header")
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported packet format", ErrInvalidHeader)
	ErrShortPacket       = errors.New("short packet")
	ErrIgnored           = errors.New("packet type ignored")
	ErrPlayerIndex       = errors.New("player car index out of range")
)

// Packet is implemented by all decoded body types.
// Consumers use a type switch to pick the concrete kind.
type Packet interface {
	GetHeader() Header
	ID() PacketID
}

type Header struct {
	PacketFormat            uint16
	GameYear                uint8
	GameMajorVersion        uint8
	GameMinorVersion        uint8
	PacketVersion           uint8
	PacketID                PacketID
	SessionUID              uint64
	SessionTime             float32
	FrameIdentifier         uint32
	OverallFrameIdentifier  uint32
	PlayerCarIndex          uint8
	SecondaryPlayerCarIndex uint8
}

func (h Header) GetHeader() Header { return h }
func (h Header) ID() PacketID      { return h.PacketID }

// PlayerIndexValid reports whether PlayerCarIndex can index a per car array.
func (h Header) PlayerIndexValid() bool {
	return int(h.PlayerCarIndex) < MaxCars
}

// DecodeHeader parses the common prefix of a datagram.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(b))
	}
	r := newReader(b)
	h := readHeader(r)
	if h.PacketFormat != SupportedFormat {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedFormat, h.PacketFormat)
	}
	return h, nil
}

func readHeader(r *reader) Header {
	return Header{
		PacketFormat:            r.u16(),
		GameYear:                r.u8(),
		GameMajorVersion:        r.u8(),
		GameMinorVersion:        r.u8(),
		PacketVersion:           r.u8(),
		PacketID:                PacketID(r.u8()),
		SessionUID:              r.u64(),
		SessionTime:             r.f32(),
		FrameIdentifier:         r.u32(),
		OverallFrameIdentifier:  r.u32(),
		PlayerCarIndex:          r.u8(),
		SecondaryPlayerCarIndex: r.u8(),
	}
}

func (h Header) write(w *writer) {
	w.u16(h.PacketFormat)
	w.u8(h.GameYear)
	w.u8(h.GameMajorVersion)
	w.u8(h.GameMinorVersion)
	w.u8(h.PacketVersion)
	w.u8(uint8(h.PacketID))
	w.u64(h.SessionUID)
	w.f32(h.SessionTime)
	w.u32(h.FrameIdentifier)
	w.u32(h.OverallFrameIdentifier)
	w.u8(h.PlayerCarIndex)
	w.u8(h.SecondaryPlayerCarIndex)
}

// AppendTo appends the wire representation of h to b.
func (h Header) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	h.write(w)
	return w.buf
}

// Encoder is implemented by all body types that can be written back to
// the wire format.
type Encoder interface {
	Packet
	AppendTo(b []byte) []byte
}

// Encode returns the complete datagram for p.
// The header's PacketID is forced to match the body type.
func Encode(p Encoder) []byte {
	return p.AppendTo(make([]byte, 0, 1500))
}

// withID returns a copy of h carrying id.
func (h Header) withID(id PacketID) Header {
	h.PacketID = id
	if h.PacketFormat == 0 {
		h.PacketFormat = SupportedFormat
	}
	return h
}
