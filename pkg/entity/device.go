// Package entity implements the host's ownership tree: Host, Connector,
// and Device, and the feature-immutability rule that freezes a device's
// component inventory once it has been announced (spec.md §3, §4.6).
package entity

import (
	"sync"

	"github.com/vdc-project/vdchost/pkg/component"
	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/scene"
	"github.com/vdc-project/vdchost/pkg/uid"
	"github.com/vdc-project/vdchost/pkg/verrors"
)

// Device is an individually addressable endpoint exposed to the
// controller (spec.md §3).
type Device struct {
	UID           uid.UID
	Name          string
	ModelID       string
	PrimaryGroup  string
	Zone          *string
	ModelFeatures map[string]bool

	// Connector is a lookup-only back-reference; the connector, not the
	// device, owns the relationship.
	Connector *Connector

	mu            sync.RWMutex
	output        *component.OutputContainer
	buttons       []*component.ButtonInput
	binaryInputs  []*component.BinaryInput
	sensors       []*component.Sensor
	scenes        *scene.Table
	controlValues map[string]proptree.Value
	actions       map[string]ActionHandler
	announced     bool

	pushFunc func(uid string, subtree proptree.Value)
}

// ActionHandler implements one entry of a device's action catalog.
// spec.md §9 treats actions uniformly as suspendable operations returning
// a result subtree; in Go that collapses to an ordinary blocking call —
// callers that need non-blocking behavior launch a goroutine themselves.
type ActionHandler func(params proptree.Value) (proptree.Value, error)

// NewDevice constructs an unannounced device with no components yet.
func NewDevice(id uid.UID, name, modelID, primaryGroup string) *Device {
	d := &Device{
		UID:           id,
		Name:          name,
		ModelID:       modelID,
		PrimaryGroup:  primaryGroup,
		ModelFeatures: make(map[string]bool),
		controlValues: make(map[string]proptree.Value),
		actions:       make(map[string]ActionHandler),
	}
	d.scenes = scene.NewTable(deviceOutputAdapter{d}, func() {
		d.Push(proptree.Map(map[string]proptree.Value{"scenesChanged": proptree.Bool(true)}))
	})
	return d
}

// Push implements component.Pusher: every component attached to this
// device pushes through the device, tagging the subtree with the
// device's UID before handing it to the host-level push pipeline.
func (d *Device) Push(subtree proptree.Value) {
	d.mu.RLock()
	fn := d.pushFunc
	d.mu.RUnlock()
	if fn == nil {
		return
	}
	fn(d.UID.String(), subtree)
}

// SetPushFunc wires the device into the outbound notification pipeline.
// Called once by the host/connector when the device is attached.
func (d *Device) SetPushFunc(fn func(uid string, subtree proptree.Value)) {
	d.mu.Lock()
	d.pushFunc = fn
	d.mu.Unlock()
}

// Announced reports whether the device has been announced to the
// controller.
func (d *Device) Announced() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.announced
}

// MarkAnnounced sets the announced flag, freezing the feature inventory
// (spec.md §4.6).
func (d *Device) MarkAnnounced() {
	d.mu.Lock()
	d.announced = true
	d.mu.Unlock()
}

func (d *Device) checkMutable(operation string) error {
	if d.announced {
		return verrors.NewFeatureFrozenError(d.Name, operation)
	}
	return nil
}

// SetOutput attaches the device's single output container. Fails with a
// feature-immutability error if the device is already announced.
func (d *Device) SetOutput(output *component.OutputContainer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkMutable("addOutputChannel"); err != nil {
		return err
	}
	output.SetPusher(d)
	d.output = output
	return nil
}

// Output returns the device's output container, or nil if it has none.
func (d *Device) Output() *component.OutputContainer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.output
}

// AddButtonInput appends a button input; fails if already announced.
func (d *Device) AddButtonInput(b *component.ButtonInput) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkMutable("addButtonInput"); err != nil {
		return err
	}
	b.SetPusher(d)
	d.buttons = append(d.buttons, b)
	return nil
}

// ButtonInputs returns the device's button inputs.
func (d *Device) ButtonInputs() []*component.ButtonInput {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*component.ButtonInput(nil), d.buttons...)
}

// AddBinaryInput appends a binary input; fails if already announced.
func (d *Device) AddBinaryInput(b *component.BinaryInput) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkMutable("addBinaryInput"); err != nil {
		return err
	}
	b.SetPusher(d)
	d.binaryInputs = append(d.binaryInputs, b)
	return nil
}

// BinaryInputs returns the device's binary inputs.
func (d *Device) BinaryInputs() []*component.BinaryInput {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*component.BinaryInput(nil), d.binaryInputs...)
}

// AddSensor appends a sensor; fails if already announced.
func (d *Device) AddSensor(s *component.Sensor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkMutable("addSensor"); err != nil {
		return err
	}
	s.SetPusher(d)
	d.sensors = append(d.sensors, s)
	return nil
}

// Sensors returns the device's sensors.
func (d *Device) Sensors() []*component.Sensor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*component.Sensor(nil), d.sensors...)
}

// Configure re-applies bulk device configuration (name, model, primary
// group); fails if already announced, matching the Configure entry of
// the feature-immutability testable property (spec.md §8).
func (d *Device) Configure(name, modelID, primaryGroup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkMutable("configure"); err != nil {
		return err
	}
	d.Name = name
	d.ModelID = modelID
	d.PrimaryGroup = primaryGroup
	return nil
}

// Scenes returns the device's scene engine.
func (d *Device) Scenes() *scene.Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scenes
}

// RegisterAction adds an entry to the device's action catalog.
func (d *Device) RegisterAction(name string, h ActionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions[name] = h
}

// RunAction invokes a registered action by name.
func (d *Device) RunAction(name string, params proptree.Value) (proptree.Value, error) {
	d.mu.RLock()
	h, ok := d.actions[name]
	d.mu.RUnlock()
	if !ok {
		return proptree.Null(), verrors.NewNotFoundError("action", name)
	}
	return h(params)
}

// SetControlValue stores a named control value (e.g. a thermostat
// setpoint written via set-control-value).
func (d *Device) SetControlValue(name string, value proptree.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.controlValues[name] = value
}

// ControlValue returns a previously set control value.
func (d *Device) ControlValue(name string) (proptree.Value, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.controlValues[name]
	return v, ok
}

// Identify runs the device's registered "identify" action if present;
// otherwise it falls back to a brightness blink on the output container,
// restoring the original value afterward (SPEC_FULL.md §7, ported from
// original_source/pyvdcapi/entities/vdsd.py's identify blink fallback).
func (d *Device) Identify(blinkCount int) error {
	d.mu.RLock()
	h, hasAction := d.actions["identify"]
	output := d.output
	d.mu.RUnlock()

	if hasAction {
		_, err := h(proptree.Null())
		return err
	}
	if output == nil {
		return nil
	}
	ch := output.Channel("brightness")
	if ch == nil {
		return nil
	}
	original := ch.Value()
	for i := 0; i < blinkCount; i++ {
		ch.UpdateValue(ch.Max)
		ch.UpdateValue(ch.Min)
	}
	ch.UpdateValue(original)
	return nil
}

// deviceOutputAdapter narrows a Device to the scene.Container interface,
// tolerating a device with no output container yet (save/call become
// no-ops in that case).
type deviceOutputAdapter struct{ d *Device }

func (a deviceOutputAdapter) SnapshotValues() map[string]float64 {
	out := a.d.Output()
	if out == nil {
		return nil
	}
	return out.SnapshotValues()
}

func (a deviceOutputAdapter) ApplySceneValues(values map[string]float64, effect string, mode component.SceneApplyMode) {
	out := a.d.Output()
	if out == nil {
		return
	}
	out.ApplySceneValues(values, effect, mode)
}
