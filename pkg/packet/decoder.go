package packet

import "fmt"

type bodyDecoder func(h Header, r *reader) (Packet, error)

// Decoder turns datagrams into typed packets.
// It holds no mutable state and may be shared between goroutines.
type Decoder struct {
	carStatusLayout CarStatusLayout
	bodies          map[PacketID]bodyDecoder
}

type DecoderOption func(*Decoder)

func WithCarStatusLayout(layout CarStatusLayout) DecoderOption {
	return func(d *Decoder) {
		d.carStatusLayout = layout
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{carStatusLayout: Layout55}
	for _, opt := range opts {
		opt(d)
	}
	d.bodies = map[PacketID]bodyDecoder{
		MotionID:              decodeMotion,
		SessionID:             decodeSession,
		LapDataID:             decodeLapData,
		ParticipantsID:        decodeParticipants,
		CarTelemetryID:        decodeCarTelemetry,
		CarStatusID:           carStatusDecoder(d.carStatusLayout),
		FinalClassificationID: decodeFinalClassification,
		CarDamageID:           decodeCarDamage,
		MotionExID:            decodeMotionEx,
	}
	return d
}

func (d *Decoder) CarStatusLayout() CarStatusLayout {
	return d.carStatusLayout
}

// Handles reports whether packets of type id are decoded.
func (d *Decoder) Handles(id PacketID) bool {
	_, ok := d.bodies[id]
	return ok
}

// Decode decodes a complete datagram.
// Packet types without a body decoder yield ErrIgnored. A body shorter
// than its layout yields ErrShortPacket and no packet.
func (d *Decoder) Decode(b []byte) (Packet, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	body, ok := d.bodies[h.PacketID]
	if !ok {
		return nil, ErrIgnored
	}
	p, err := body(h, newReader(b[HeaderSize:]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.PacketID, err)
	}
	return p, nil
}
