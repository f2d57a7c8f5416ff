package entity

import (
	"sync"

	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/uid"
	"github.com/vdc-project/vdchost/pkg/verrors"
)

// ConnectorCapabilities advertises what a connector's upstream technology
// supports (spec.md §3).
type ConnectorCapabilities struct {
	Metering           bool
	Identification     bool
	DynamicDefinitions bool
}

// Connector groups a collection of related devices under one upstream
// technology or gateway (spec.md §3).
type Connector struct {
	UID          uid.UID
	Name         string
	ModelID      string
	Capabilities ConnectorCapabilities
	Zone         *string

	// Host is a lookup-only back-reference.
	Host *Host

	mu      sync.RWMutex
	devices map[string]*Device
	order   []string

	pushFunc func(uid string, subtree proptree.Value)
}

// NewConnector constructs an empty connector.
func NewConnector(id uid.UID, name, modelID string, caps ConnectorCapabilities) *Connector {
	return &Connector{
		UID:          id,
		Name:         name,
		ModelID:      modelID,
		Capabilities: caps,
		devices:      make(map[string]*Device),
	}
}

// SetPushFunc wires the connector (and, transitively, every device it
// already owns) into the outbound notification pipeline.
func (c *Connector) SetPushFunc(fn func(uid string, subtree proptree.Value)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushFunc = fn
	for _, d := range c.devices {
		d.SetPushFunc(fn)
	}
}

// AddDevice attaches a device to this connector, setting its back-
// reference and, if the connector already has a push pipeline wired,
// propagating it immediately.
func (c *Connector) AddDevice(d *Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := uid.Normalize(d.UID.String())
	if _, exists := c.devices[key]; !exists {
		c.order = append(c.order, key)
	}
	d.Connector = c
	c.devices[key] = d
	if c.pushFunc != nil {
		d.SetPushFunc(c.pushFunc)
	}
}

// RemoveDevice detaches a device by UID. It only updates the in-memory
// tree; the device's persisted record in pkg/store is not removed.
func (c *Connector) RemoveDevice(deviceUID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := uid.Normalize(deviceUID)
	if _, ok := c.devices[key]; !ok {
		return false
	}
	delete(c.devices, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Device looks up a device by UID (any case/separator form).
func (c *Connector) Device(deviceUID string) (*Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[uid.Normalize(deviceUID)]
	if !ok {
		return nil, verrors.NewNotFoundError("device", deviceUID)
	}
	return d, nil
}

// Devices returns the connector's devices in the order they were added.
func (c *Connector) Devices() []*Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Device, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.devices[k])
	}
	return out
}
