package entity

import (
	"sync"

	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/uid"
	"github.com/vdc-project/vdchost/pkg/verrors"
)

// SessionHandle is the narrow view of the active session the entity tree
// needs: enough to know one exists and to address pushes at it. The
// concrete *session.Session lives in pkg/session; entity does not import
// it; pkg/push provides the adapter (avoids an entity<->session import
// cycle, since session never needs to know about entities).
type SessionHandle interface {
	Write(subtree proptree.Value) error
}

// Host is the process-wide root of the entity tree (spec.md §3).
type Host struct {
	UID         uid.UID
	Name        string
	Vendor      string
	ModelTag    string
	ModelUID    string
	ModelVersion string
	ListenPort  int
	APIVersion  string

	mu         sync.RWMutex
	connectors map[string]*Connector
	order      []string
	session    SessionHandle
	pushFunc   func(uid string, subtree proptree.Value)
}

// NewHost constructs an empty host.
func NewHost(id uid.UID, name, vendor, apiVersion string, listenPort int) *Host {
	return &Host{
		UID:        id,
		Name:       name,
		Vendor:     vendor,
		APIVersion: apiVersion,
		ListenPort: listenPort,
		connectors: make(map[string]*Connector),
	}
}

// SetPushFunc wires the host (and every connector/device it already owns)
// into the outbound notification pipeline.
func (h *Host) SetPushFunc(fn func(uid string, subtree proptree.Value)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushFunc = fn
	for _, c := range h.connectors {
		c.SetPushFunc(fn)
	}
}

// AddConnector attaches a connector to the host.
func (h *Host) AddConnector(c *Connector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := uid.Normalize(c.UID.String())
	if _, exists := h.connectors[key]; !exists {
		h.order = append(h.order, key)
	}
	c.Host = h
	h.connectors[key] = c
	if h.pushFunc != nil {
		c.SetPushFunc(h.pushFunc)
	}
}

// RemoveConnector detaches a connector by UID, cascading to its devices
// at the in-memory level only; the persisted connector and device records
// in pkg/store are not removed.
func (h *Host) RemoveConnector(connectorUID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := uid.Normalize(connectorUID)
	if _, ok := h.connectors[key]; !ok {
		return false
	}
	delete(h.connectors, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

// Connector looks up a connector by UID.
func (h *Host) Connector(connectorUID string) (*Connector, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.connectors[uid.Normalize(connectorUID)]
	if !ok {
		return nil, verrors.NewNotFoundError("connector", connectorUID)
	}
	return c, nil
}

// Connectors returns the host's connectors in the order they were added.
func (h *Host) Connectors() []*Connector {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Connector, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, h.connectors[k])
	}
	return out
}

// FindDevice looks up a device anywhere in the tree by UID, for the
// property mediator and scene/output/control dispatch handlers that
// address operations directly at a device UID.
func (h *Host) FindDevice(deviceUID string) (*Device, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connectors {
		if d, err := c.Device(deviceUID); err == nil {
			return d, nil
		}
	}
	return nil, verrors.NewNotFoundError("device", deviceUID)
}

// SetSession installs the active session handle.
func (h *Host) SetSession(s SessionHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = s
}

// ClearSession removes the active session handle, e.g. on disconnect.
func (h *Host) ClearSession() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = nil
}

// Session returns the active session handle, or nil if none.
func (h *Host) Session() SessionHandle {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session
}
