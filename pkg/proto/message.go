// Package proto implements the vDC API wire protocol: the tagged-union
// message envelope, the per-tag payload catalog, and the length-prefixed
// stream framing (spec.md §4.1, §4.2, §6).
package proto

import "github.com/vdc-project/vdchost/pkg/proptree"

// Tag identifies a message's semantic type. Tag values are local to this
// implementation; they are not taken from any external wire spec.
type Tag int

const (
	TagUnknown Tag = iota

	// Requests (controller -> host), expect a correlated response.
	TagHelloRequest
	TagGetProperty
	TagSetProperty
	TagGenericRequest
	TagRemove

	// Responses (host -> controller), echo the request's messageId.
	TagHelloResponse
	TagGetPropertyResponse
	TagGenericResponse
	TagRemoveResult

	// Notifications, no messageId either direction.
	TagPing
	TagPong
	TagBye
	TagCallScene
	TagSaveScene
	TagUndoScene
	TagCallMinScene
	TagSetLocalPriority
	TagSetOutputChannelValue
	TagDimChannel
	TagSetControlValue
	TagIdentify

	// Outbound-only notifications.
	TagVanish
	TagAnnounceConnector
	TagAnnounceDevice
	TagPushProperty
)

func (t Tag) String() string {
	switch t {
	case TagHelloRequest:
		return "hello-request"
	case TagGetProperty:
		return "get-property"
	case TagSetProperty:
		return "set-property"
	case TagGenericRequest:
		return "generic-request"
	case TagRemove:
		return "remove"
	case TagHelloResponse:
		return "hello-response"
	case TagGetPropertyResponse:
		return "get-property-response"
	case TagGenericResponse:
		return "generic-response"
	case TagRemoveResult:
		return "remove-result"
	case TagPing:
		return "ping"
	case TagPong:
		return "pong"
	case TagBye:
		return "bye"
	case TagCallScene:
		return "call-scene"
	case TagSaveScene:
		return "save-scene"
	case TagUndoScene:
		return "undo-scene"
	case TagCallMinScene:
		return "call-min-scene"
	case TagSetLocalPriority:
		return "set-local-priority"
	case TagSetOutputChannelValue:
		return "set-output-channel-value"
	case TagDimChannel:
		return "dim-channel"
	case TagSetControlValue:
		return "set-control-value"
	case TagIdentify:
		return "identify"
	case TagVanish:
		return "vanish"
	case TagAnnounceConnector:
		return "announce-connector"
	case TagAnnounceDevice:
		return "announce-device"
	case TagPushProperty:
		return "push-property"
	default:
		return "unknown"
	}
}

// IsRequest reports whether messages of this tag carry a messageId and
// expect a correlated response, per the dispatcher's request/notification
// split (spec.md §4.4).
func (t Tag) IsRequest() bool {
	switch t {
	case TagHelloRequest, TagGetProperty, TagSetProperty, TagGenericRequest, TagRemove:
		return true
	default:
		return false
	}
}

// zeroMessageID is the sentinel value treated as "unset" on outgoing
// messages (spec.md §4.2).
const zeroMessageID = 0

// Envelope is the outer wire structure: a tag, an optional correlation
// id, and a tag-specific payload tree.
type Envelope struct {
	Type      Tag
	MessageID uint32
	HasID     bool
	Payload   proptree.Value
}

// NewRequest builds a request envelope with a correlation id.
func NewRequest(tag Tag, id uint32, payload proptree.Value) Envelope {
	return Envelope{Type: tag, MessageID: id, HasID: true, Payload: payload}
}

// NewResponse builds a response envelope correlated to id.
func NewResponse(tag Tag, id uint32, payload proptree.Value) Envelope {
	return Envelope{Type: tag, MessageID: id, HasID: true, Payload: payload}
}

// NewNotification builds a notification envelope; notifications never
// carry a messageId on the wire.
func NewNotification(tag Tag, payload proptree.Value) Envelope {
	return Envelope{Type: tag, Payload: payload}
}

// normalizeID clears a zero or unset messageId before serialization, per
// spec.md §4.2's "clear messageId if unset or equal to the sentinel zero"
// rule.
func (e Envelope) normalizeID() (uint32, bool) {
	if !e.HasID || e.MessageID == zeroMessageID {
		return 0, false
	}
	return e.MessageID, true
}

// WithMessageID returns a copy of e carrying id as its correlation id,
// used by the dispatcher to copy a request's messageId onto its response.
func (e Envelope) WithMessageID(id uint32) Envelope {
	e.MessageID = id
	e.HasID = id != zeroMessageID
	return e
}
