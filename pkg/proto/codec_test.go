package proto

import (
	"testing"

	"github.com/vdc-project/vdchost/pkg/proptree"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := proptree.Map(map[string]proptree.Value{
		"uid":     proptree.String("ABCDEF"),
		"channel": proptree.Int(1),
		"value":   proptree.Double(50.5),
		"flag":    proptree.Bool(true),
	})
	e := NewRequest(TagSetProperty, 7, payload)

	raw, err := Encode(e)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != TagSetProperty {
		t.Fatalf("Type = %v, want TagSetProperty", decoded.Type)
	}
	if !decoded.HasID || decoded.MessageID != 7 {
		t.Fatalf("MessageID = %v (HasID=%v), want 7", decoded.MessageID, decoded.HasID)
	}
	uid, _ := decoded.Payload.Get("uid")
	if s, _ := uid.String(); s != "ABCDEF" {
		t.Fatalf("uid = %q, want ABCDEF", s)
	}
	ch, _ := decoded.Payload.Get("channel")
	if i, ok := ch.Int(); !ok || i != 1 {
		t.Fatalf("channel = %v, want int 1", i)
	}
}

func TestNotificationOmitsMessageID(t *testing.T) {
	e := NewNotification(TagPing, proptree.Null())
	raw, err := Encode(e)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.HasID {
		t.Fatalf("notification should not carry a messageId after round trip")
	}
}

func TestZeroMessageIDIsTreatedAsUnset(t *testing.T) {
	e := NewRequest(TagHelloRequest, 0, proptree.Null())
	raw, err := Encode(e)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.HasID {
		t.Fatalf("messageId == 0 should be cleared before transmission, per spec.md's sentinel rule")
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"not-a-real-tag"}`))
	if err == nil {
		t.Fatalf("expected error decoding unknown message type")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	if err == nil {
		t.Fatalf("expected error decoding malformed envelope")
	}
}

func TestHexDumpFormatsBytes(t *testing.T) {
	got := HexDump([]byte{0xde, 0xad, 0xbe, 0xef})
	want := "de ad be ef"
	if got != want {
		t.Fatalf("HexDump = %q, want %q", got, want)
	}
}

func TestWithMessageIDCopiesCorrelation(t *testing.T) {
	resp := NewNotification(TagGenericResponse, proptree.Null())
	resp = resp.WithMessageID(42)
	if !resp.HasID || resp.MessageID != 42 {
		t.Fatalf("WithMessageID did not set correlation id")
	}
}
