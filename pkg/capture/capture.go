// Package capture reads and writes raw datagram recordings.
//
// A capture starts with the line "FTSCAP <version>\n" followed by frames.
// Each frame is the receive time as unix nanos (uint64), the datagram length
// (uint32) and the datagram bytes, integers in little endian.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"
)

const (
	magic = "FTSCAP"
	// FormatVersion is written into new captures.
	FormatVersion  = "v1.0.0"
	frameHeaderLen = 12
	// MaxFrameSize bounds a single datagram. Larger frames are rejected.
	MaxFrameSize = 64 * 1024
)

var (
	ErrNoCapture         = errors.New("not a capture file")
	ErrIncompatible      = errors.New("incompatible capture version")
	ErrFrameTooLarge     = errors.New("frame too large")
	ErrTruncatedCapture  = errors.New("truncated capture")
	errHeaderLineTooLong = fmt.Errorf("%w: header line too long", ErrNoCapture)
)

type Frame struct {
	Received time.Time
	Data     []byte
}

// Writer appends frames to an underlying writer. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	hdr [frameHeaderLen]byte
}

func NewWriter(w io.Writer) (*Writer, error) {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s %s\n", magic, FormatVersion); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

func (w *Writer) Write(ts time.Time, datagram []byte) error {
	if len(datagram) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	binary.LittleEndian.PutUint64(w.hdr[0:8], uint64(ts.UnixNano()))
	binary.LittleEndian.PutUint32(w.hdr[8:12], uint32(len(datagram)))
	if _, err := w.w.Write(w.hdr[:]); err != nil {
		return err
	}
	_, err := w.w.Write(datagram)
	return err
}

// Flush writes buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}

type Reader struct {
	r       *bufio.Reader
	version string
}

// NewReader checks the capture header. Captures with a different major
// version are rejected with ErrIncompatible.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	line, err := readHeaderLine(br)
	if err != nil {
		return nil, err
	}
	name, version, ok := strings.Cut(line, " ")
	if !ok || name != magic || !semver.IsValid(version) {
		return nil, ErrNoCapture
	}
	if semver.Major(version) != semver.Major(FormatVersion) {
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, version)
	}
	return &Reader{r: br, version: version}, nil
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for sb.Len() < 64 {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrNoCapture
			}
			return "", err
		}
		if c == '\n' {
			return sb.String(), nil
		}
		sb.WriteByte(c)
	}
	return "", errHeaderLineTooLong
}

func (r *Reader) Version() string {
	return r.version
}

// Next returns the next frame or io.EOF at the end of the capture.
func (r *Reader) Next() (Frame, error) {
	var hdr [frameHeaderLen]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrTruncatedCapture
		}
		return Frame{}, err
	}
	n := binary.LittleEndian.Uint32(hdr[8:12])
	if n > MaxFrameSize {
		return Frame{}, ErrFrameTooLarge
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrTruncatedCapture
		}
		return Frame{}, err
	}
	ts := int64(binary.LittleEndian.Uint64(hdr[0:8]))
	return Frame{Received: time.Unix(0, ts), Data: data}, nil
}
