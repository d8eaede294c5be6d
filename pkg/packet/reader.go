package packet

import (
	"encoding/binary"
	"math"
)

// reader is a little endian cursor over a datagram.
// Every read checks the remaining length first. The first failing read
// sets err to ErrShortPacket; all following reads return zero values.
type reader struct {
	buf []byte
	pos int
	err error
}

func newReader(b []byte) *reader {
	return &reader{buf: b}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = ErrShortPacket
		return false
	}
	return true
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	ret := r.buf[r.pos : r.pos+n]
	r.pos += n
	return ret
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	ret := r.buf[r.pos]
	r.pos++
	return ret
}

func (r *reader) i8() int8 {
	return int8(r.u8())
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	ret := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return ret
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	ret := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return ret
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	ret := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return ret
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) f64() float64 {
	return math.Float64frombits(r.u64())
}

func (r *reader) f32x4() (ret [4]float32) {
	for i := range ret {
		ret[i] = r.f32()
	}
	return ret
}

func (r *reader) u8x4() (ret [4]uint8) {
	for i := range ret {
		ret[i] = r.u8()
	}
	return ret
}

func (r *reader) u16x4() (ret [4]uint16) {
	for i := range ret {
		ret[i] = r.u16()
	}
	return ret
}
