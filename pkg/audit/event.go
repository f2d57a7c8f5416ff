// Package audit provides an event shape and a rotating JSON-lines logger
// for controller-initiated mutations (set-property,
// set-output-channel-value, scene save/call/undo, set-control-value), so
// an operator can reconstruct who changed what and when. The vdchost
// command installs a FileLogger as the default logger, but its dispatch
// handlers do not record any events. Adapted from
// teacher pkg/audit/event.go's configuration-change event shape: Device
// becomes EntityUID (any Host/Connector/Device UID), Service/Interface
// (SONiC-specific) are dropped, and network.Change becomes PropertyChange
// keyed by property path instead of a routing-table row.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType categorizes one property mutation within an event.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
)

// PropertyChange is a single property-tree leaf mutation.
type PropertyChange struct {
	Path     string     `json:"path"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"old_value,omitempty"`
	NewValue string     `json:"new_value,omitempty"`
}

// Event represents one auditable controller-initiated mutation.
type Event struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	SessionID string           `json:"session_id,omitempty"`
	EntityUID string           `json:"entity_uid"`
	Operation string           `json:"operation"`
	Changes   []PropertyChange `json:"changes,omitempty"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Duration  time.Duration    `json:"duration"`
}

// EventType categorizes events at the session-lifecycle level, separate
// from the per-mutation Operation string recorded on each Event.
type EventType string

const (
	EventTypeConnect     EventType = "connect"
	EventTypeDisconnect  EventType = "disconnect"
	EventTypeSetProperty EventType = "set-property"
	EventTypeSceneCall   EventType = "call-scene"
	EventTypeSceneSave   EventType = "save-scene"
	EventTypeSceneUndo   EventType = "undo-scene"
)

// Severity indicates the importance of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Filter defines criteria for querying audit events.
type Filter struct {
	EntityUID   string
	SessionID   string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event for a mutation against entityUID.
func NewEvent(sessionID, entityUID, operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		SessionID: sessionID,
		EntityUID: entityUID,
		Operation: operation,
	}
}

// WithChanges attaches the resolved property-level changes.
func (e *Event) WithChanges(changes []PropertyChange) *Event {
	e.Changes = changes
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}
