package proto

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessageSize is the largest payload a single frame may carry: the
// length prefix is an unsigned 16-bit big-endian integer (spec.md §4.1).
const MaxMessageSize = 65535

const lengthPrefixSize = 2

// FramingError marks a fatal, session-closing framing violation, as
// distinct from a recoverable codec violation.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string { return "proto: framing error: " + e.Reason }

// Reader reads length-prefixed frames off a stream. Zero-length frames
// are skipped; anything else is handed to the caller as a raw payload for
// codec decoding.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for framed reads.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadFrame reads the next non-empty frame's payload bytes. It returns
// io.EOF when the peer closed the connection cleanly between frames
// (spec.md §4.1: "short reads at EOF mean peer closed, clean"). Any other
// read failure, or a length that cannot be satisfied, is a *FramingError.
func (fr *Reader) ReadFrame() ([]byte, error) {
	for {
		var lenBuf [lengthPrefixSize]byte
		if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &FramingError{Reason: fmt.Sprintf("reading length prefix: %v", err)}
		}
		length := binary.BigEndian.Uint16(lenBuf[:])
		if length == 0 {
			continue
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(fr.r, payload); err != nil {
			return nil, &FramingError{Reason: fmt.Sprintf("reading %d-byte payload: %v", length, err)}
		}
		return payload, nil
	}
}

// Writer writes length-prefixed frames to a stream, serializing each
// write-and-flush as a single queued operation.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w for framed writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame writes payload prefixed with its big-endian u16 length and
// flushes. payload longer than MaxMessageSize is a programmer error.
func (fw *Writer) WriteFrame(payload []byte) error {
	if len(payload) > MaxMessageSize {
		return &FramingError{Reason: fmt.Sprintf("payload of %d bytes exceeds max %d", len(payload), MaxMessageSize)}
	}
	var lenBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	if _, err := fw.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("proto: write length prefix: %w", err)
	}
	if _, err := fw.w.Write(payload); err != nil {
		return fmt.Errorf("proto: write payload: %w", err)
	}
	return fw.w.Flush()
}

// WriteEnvelope encodes e and writes it as a single frame.
func (fw *Writer) WriteEnvelope(e Envelope) error {
	raw, err := Encode(e)
	if err != nil {
		return err
	}
	return fw.WriteFrame(raw)
}
