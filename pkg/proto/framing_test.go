package proto

import (
	"bytes"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteFrame([]byte("hello")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.WriteFrame([]byte("world!")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r := NewReader(&buf)
	first, err := r.ReadFrame()
	if err != nil || string(first) != "hello" {
		t.Fatalf("first frame = %q, %v", first, err)
	}
	second, err := r.ReadFrame()
	if err != nil || string(second) != "world!" {
		t.Fatalf("second frame = %q, %v", second, err)
	}
	if _, err := r.ReadFrame(); err != io.EOF {
		t.Fatalf("expected EOF at stream end, got %v", err)
	}
}

func TestReaderSkipsZeroLengthFrames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteFrame(nil)
	w.WriteFrame([]byte("payload"))

	r := NewReader(&buf)
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want payload (zero-length frame should be skipped)", got)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	huge := make([]byte, MaxMessageSize+1)
	if err := w.WriteFrame(huge); err == nil {
		t.Fatalf("expected error writing oversized payload")
	}
}

func TestReaderSurfacesFramingErrorOnTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x05}) // announces 5 bytes
	buf.Write([]byte("ab"))       // only provides 2
	r := NewReader(&buf)
	_, err := r.ReadFrame()
	if err == nil {
		t.Fatalf("expected framing error for truncated payload")
	}
	if _, ok := err.(*FramingError); !ok {
		t.Fatalf("expected *FramingError, got %T", err)
	}
}

func TestArbitraryChunking(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteFrame([]byte("chunked-payload"))

	full := buf.Bytes()
	pr, pw := io.Pipe()
	go func() {
		for _, b := range full {
			pw.Write([]byte{b})
		}
		pw.Close()
	}()
	r := NewReader(pr)
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame under byte-at-a-time chunking: %v", err)
	}
	if string(got) != "chunked-payload" {
		t.Fatalf("got %q", got)
	}
}
