package packet

import (
	"encoding/binary"
	"math"
)

// writer appends little endian values. It is the inverse of reader and is
// used to produce datagrams for replay, simulation and tests.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) i8(v int8)    { w.buf = append(w.buf, uint8(v)) }
func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) i16(v int16)  { w.u16(uint16(v)) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *writer) f64(v float64) {
	w.u64(math.Float64bits(v))
}

func (w *writer) zero(n int) {
	for range n {
		w.buf = append(w.buf, 0)
	}
}

// fixed writes b into a zero padded field of size n.
func (w *writer) fixed(b []byte, n int) {
	if len(b) > n {
		b = b[:n]
	}
	w.buf = append(w.buf, b...)
	w.zero(n - len(b))
}

func (w *writer) f32x4(v [4]float32) {
	for _, x := range v {
		w.f32(x)
	}
}

func (w *writer) u8x4(v [4]uint8) {
	w.buf = append(w.buf, v[:]...)
}

func (w *writer) u16x4(v [4]uint16) {
	for _, x := range v {
		w.u16(x)
	}
}
