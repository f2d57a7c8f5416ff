package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireEnvelope is the JSON-serializable mirror of Envelope. proptree.Value
// does not implement json.Marshaler directly (it is a closed tagged union
// with unexported fields), so the codec flattens it through wireValue.
type wireEnvelope struct {
	Type      string          `json:"type"`
	MessageID *uint32         `json:"messageId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

var tagNames = map[Tag]string{}
var namesToTags = map[string]Tag{}

func init() {
	for _, t := range []Tag{
		TagHelloRequest, TagGetProperty, TagSetProperty, TagGenericRequest, TagRemove,
		TagHelloResponse, TagGetPropertyResponse, TagGenericResponse, TagRemoveResult,
		TagPing, TagPong, TagBye, TagCallScene, TagSaveScene, TagUndoScene, TagCallMinScene,
		TagSetLocalPriority, TagSetOutputChannelValue, TagDimChannel, TagSetControlValue,
		TagIdentify, TagVanish, TagAnnounceConnector, TagAnnounceDevice, TagPushProperty,
	} {
		tagNames[t] = t.String()
		namesToTags[t.String()] = t
	}
}

// Encode serializes an envelope to its wire representation: a JSON object
// for {type, messageId?, payload}, with messageId cleared per spec.md
// §4.2 when unset or zero.
func Encode(e Envelope) ([]byte, error) {
	name, ok := tagNames[e.Type]
	if !ok {
		return nil, fmt.Errorf("proto: cannot encode unknown tag %d", e.Type)
	}
	raw, err := marshalValue(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("proto: encode payload: %w", err)
	}
	w := wireEnvelope{Type: name, Payload: raw}
	if id, ok := e.normalizeID(); ok {
		w.MessageID = &id
	}
	return json.Marshal(w)
}

// Decode parses a wire-format payload into an Envelope. Decoding errors
// are recoverable per spec.md §4.2: the caller logs and continues reading
// rather than closing the session.
func Decode(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, fmt.Errorf("proto: malformed envelope: %w", err)
	}
	tag, ok := namesToTags[w.Type]
	if !ok {
		return Envelope{}, fmt.Errorf("proto: unknown message type %q", w.Type)
	}
	payload, err := unmarshalValue(w.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("proto: malformed payload: %w", err)
	}
	e := Envelope{Type: tag, Payload: payload}
	if w.MessageID != nil {
		e.MessageID = *w.MessageID
		e.HasID = true
	}
	return e, nil
}

// HexDump renders raw bytes for the log line accompanying a codec
// violation (spec.md §4.2, §7).
func HexDump(raw []byte) string {
	var buf bytes.Buffer
	for i, b := range raw {
		if i > 0 && i%16 == 0 {
			buf.WriteByte('\n')
		} else if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%02x", b)
	}
	return buf.String()
}
