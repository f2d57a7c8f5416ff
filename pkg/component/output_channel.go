package component

import (
	"math"
	"sync"
	"time"

	"github.com/vdc-project/vdchost/pkg/proptree"
)

// HardwareCallback is invoked with a channel's type tag and its new
// snapped value whenever the controller writes a value (spec.md §4.7.1).
type HardwareCallback func(channelType string, value float64)

// Transition describes an in-flight value ramp; nil means no transition
// is active. The component layer only records the descriptor — driving
// the ramp is a hardware-layer responsibility (spec.md §4.7.2).
type Transition struct {
	Effect   string
	Duration time.Duration
	Started  time.Time
}

// OutputChannel is one controllable value lane of a device's output
// (e.g. brightness, hue). Grounded on
// original_source/pyvdcapi/components/output_channel.py.
type OutputChannel struct {
	ChannelType string
	DSIndex     int
	Min         float64
	Max         float64
	Resolution  float64
	Groups      []int

	mu         sync.Mutex
	value      float64
	lastUpdate time.Time
	transition *Transition
	subs       []HardwareCallback
	pusher     Pusher
}

// NewOutputChannel constructs a channel at its minimum value.
func NewOutputChannel(channelType string, dsIndex int, min, max, resolution float64) *OutputChannel {
	return &OutputChannel{
		ChannelType: channelType,
		DSIndex:     dsIndex,
		Min:         min,
		Max:         max,
		Resolution:  resolution,
		value:       min,
		lastUpdate:  time.Now(),
		pusher:      NoOpPusher{},
	}
}

// SetPusher wires the channel's push destination. Devices call this when
// attaching a channel to their output container.
func (c *OutputChannel) SetPusher(p Pusher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		p = NoOpPusher{}
	}
	c.pusher = p
}

// clampSnap clamps v to [Min, Max] then snaps to the nearest multiple of
// Resolution within that range, satisfying the channel-value-closure
// invariant (spec.md §8).
func (c *OutputChannel) clampSnap(v float64) float64 {
	if v < c.Min {
		v = c.Min
	}
	if v > c.Max {
		v = c.Max
	}
	if c.Resolution <= 0 {
		return v
	}
	steps := math.Round((v - c.Min) / c.Resolution)
	snapped := c.Min + steps*c.Resolution
	if snapped > c.Max {
		snapped -= c.Resolution
	}
	if snapped < c.Min {
		snapped = c.Min
	}
	return snapped
}

// Value returns the channel's current snapped value.
func (c *OutputChannel) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// LastUpdate returns the timestamp of the channel's last value change or
// refresh.
func (c *OutputChannel) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdate
}

// Subscribe registers a hardware callback invoked on every controller-
// initiated write.
func (c *OutputChannel) Subscribe(cb HardwareCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, cb)
}

// Unsubscribe removes all previously subscribed callbacks. The component
// layer here keeps subscriber identity simple (no removal-by-token) since
// the only caller is a device's single hardware adapter; subscribe again
// after unsubscribing to replace it.
func (c *OutputChannel) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = nil
}

// SetValue is the controller-initiated write path: clamp, snap, and if
// the value actually changes (or a transition is active) notify hardware
// subscribers. This path never pushes to the controller — it already
// knows, since it originated the write (spec.md §4.7.1, §8 "bidirectional
// sync asymmetry").
func (c *OutputChannel) SetValue(value float64, effect string) {
	c.mu.Lock()
	snapped := c.clampSnap(value)
	if snapped == c.value && c.transition == nil {
		c.mu.Unlock()
		return
	}
	c.value = snapped
	c.lastUpdate = time.Now()
	subs := append([]HardwareCallback(nil), c.subs...)
	c.mu.Unlock()

	for _, cb := range subs {
		cb(c.ChannelType, snapped)
	}
}

// UpdateValue is the hardware-initiated write path: clamp and snap; if
// unchanged, only the timestamp refreshes. If changed, the new value is
// pushed to the controller regardless of any container-level pushChanges
// setting, which only gates the controller-echo path (spec.md §4.7.1,
// §9 Open Questions).
func (c *OutputChannel) UpdateValue(value float64) {
	c.mu.Lock()
	snapped := c.clampSnap(value)
	changed := snapped != c.value
	c.value = snapped
	c.lastUpdate = time.Now()
	pusher := c.pusher
	c.mu.Unlock()

	if !changed {
		return
	}
	pusher.Push(proptree.Map(map[string]proptree.Value{
		"channelType": proptree.String(c.ChannelType),
		"value":       proptree.Double(snapped),
	}))
}

// BeginTransition records a transition descriptor without driving it;
// the hardware layer feeds back progress via UpdateValue.
func (c *OutputChannel) BeginTransition(effect string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition = &Transition{Effect: effect, Duration: d, Started: time.Now()}
}

// EndTransition clears any active transition descriptor.
func (c *OutputChannel) EndTransition() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition = nil
}
