package packet

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	participantSize = 60
	nameSize        = 48
)

type Participant struct {
	AIControlled    uint8
	DriverID        uint8
	NetworkID       uint8
	TeamID          uint8
	MyTeam          uint8
	RaceNumber      uint8
	Nationality     uint8
	Name            string
	YourTelemetry   uint8
	ShowOnlineNames uint8
	TechLevel       uint16
	Platform        uint8
}

type ParticipantsPacket struct {
	Header
	NumActiveCars uint8
	Cars          [MaxCars]Participant
}

func (p *Participant) IsAI() bool {
	return p.AIControlled == 1
}

// decodeName converts the NUL padded name buffer.
// Invalid text yields an empty string instead of an error.
func decodeName(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		b = b[:idx]
	}
	if !utf8.Valid(b) {
		return ""
	}
	return strings.TrimFunc(string(b), func(r rune) bool {
		return r == 0 || unicode.IsControl(r)
	})
}

func (p *Participant) read(r *reader) {
	p.AIControlled = r.u8()
	p.DriverID = r.u8()
	p.NetworkID = r.u8()
	p.TeamID = r.u8()
	p.MyTeam = r.u8()
	p.RaceNumber = r.u8()
	p.Nationality = r.u8()
	p.Name = decodeName(r.bytes(nameSize))
	p.YourTelemetry = r.u8()
	p.ShowOnlineNames = r.u8()
	p.TechLevel = r.u16()
	p.Platform = r.u8()
}

func (p *Participant) write(w *writer) {
	w.u8(p.AIControlled)
	w.u8(p.DriverID)
	w.u8(p.NetworkID)
	w.u8(p.TeamID)
	w.u8(p.MyTeam)
	w.u8(p.RaceNumber)
	w.u8(p.Nationality)
	w.fixed([]byte(p.Name), nameSize)
	w.u8(p.YourTelemetry)
	w.u8(p.ShowOnlineNames)
	w.u16(p.TechLevel)
	w.u8(p.Platform)
}

func decodeParticipants(h Header, r *reader) (Packet, error) {
	p := &ParticipantsPacket{Header: h}
	p.NumActiveCars = r.u8()
	for i := range p.Cars {
		p.Cars[i].read(r)
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (p *ParticipantsPacket) AppendTo(b []byte) []byte {
	w := &writer{buf: b}
	p.Header.withID(ParticipantsID).write(w)
	w.u8(p.NumActiveCars)
	for i := range p.Cars {
		p.Cars[i].write(w)
	}
	return w.buf
}
