package component

import (
	"sync"

	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/verrors"
)

// Mode gates what kind of writes an OutputContainer accepts (spec.md §3,
// §4.7.2).
type Mode int

const (
	ModeDisabled Mode = iota
	ModeBinary
	ModeGradual
	ModeDefault
)

// DimDirection is the ramp direction for StartDimming.
type DimDirection int

const (
	DimDown DimDirection = iota
	DimUp
)

// DimCallback receives hardware dimming start/stop requests; the
// container tracks only the fact of dimming, the hardware layer drives
// the actual ramp and reports progress via OutputChannel.UpdateValue
// (spec.md §4.7.2).
type DimCallback func(channelType string, action string, direction DimDirection, rate float64)

// SceneApplyMode selects normal vs. min-mode scene application
// (spec.md §4.7.2, §4.8).
type SceneApplyMode int

const (
	ApplyNormal SceneApplyMode = iota
	ApplyMin
)

// OutputContainer groups a device's output channels under a single
// function tag and mode, and gates controller-initiated writes
// (spec.md §3, §4.7.2).
type OutputContainer struct {
	OutputID     string
	Function     string
	Mode         Mode
	PushChanges  bool
	ActiveGroup  int
	GroupBitmap  uint64
	HeatingType  string

	mu       sync.Mutex
	channels map[string]*OutputChannel
	dimming  map[string]bool
	dimCB    DimCallback
	pusher   Pusher
}

// NewOutputContainer constructs an empty container. PushChanges defaults
// to true, matching spec.md §3's "ALWAYS true post-construction for every
// device meant to bidirectionally sync"; callers may flip it off for
// control-only devices.
func NewOutputContainer(outputID, function string, mode Mode) *OutputContainer {
	return &OutputContainer{
		OutputID:    outputID,
		Function:    function,
		Mode:        mode,
		PushChanges: true,
		channels:    make(map[string]*OutputChannel),
		dimming:     make(map[string]bool),
		pusher:      NoOpPusher{},
	}
}

// SetPusher wires the container's push destination and propagates it to
// every channel already attached.
func (o *OutputContainer) SetPusher(p Pusher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p == nil {
		p = NoOpPusher{}
	}
	o.pusher = p
	for _, ch := range o.channels {
		ch.SetPusher(p)
	}
}

// SetDimCallback wires the hardware dimming callback.
func (o *OutputContainer) SetDimCallback(cb DimCallback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dimCB = cb
}

// AddChannel attaches a channel under its channel type key. Containers
// are assembled before a device is announced; callers enforce the
// feature-immutability rule at the device layer (spec.md §4.6).
func (o *OutputContainer) AddChannel(ch *OutputChannel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch.SetPusher(o.pusher)
	o.channels[ch.ChannelType] = ch
}

// Channel returns the channel for a type tag, or nil.
func (o *OutputContainer) Channel(channelType string) *OutputChannel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channels[channelType]
}

// Channels returns a snapshot of all attached channels.
func (o *OutputContainer) Channels() []*OutputChannel {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*OutputChannel, 0, len(o.channels))
	for _, ch := range o.channels {
		out = append(out, ch)
	}
	return out
}

// SetChannelValue is the controller-initiated channel write: reject if
// the container is disabled; snap binary-mode values to {0, max}; then
// delegate to the channel's SetValue and, if PushChanges is set and
// applyNow is true, emit a property-change push for this channel (the controller-initiated echo —
// distinct from the hardware path's unconditional push) (spec.md §4.7.2).
func (o *OutputContainer) SetChannelValue(channelType string, value float64, effect string, applyNow bool) error {
	o.mu.Lock()
	mode := o.Mode
	pushChanges := o.PushChanges
	ch := o.channels[channelType]
	o.mu.Unlock()

	if mode == ModeDisabled {
		return verrors.ErrReadOnly
	}
	if ch == nil {
		return verrors.NewNotFoundError("output-channel", channelType)
	}

	if mode == ModeBinary {
		if value > 0 {
			value = ch.Max
		} else {
			value = ch.Min
		}
	}
	ch.SetValue(value, effect)

	if pushChanges && applyNow {
		o.pusher.Push(proptree.Map(map[string]proptree.Value{
			"channelType": proptree.String(channelType),
			"value":       proptree.Double(ch.Value()),
		}))
	}
	return nil
}

// StartDimming invokes the hardware dimming callback and records that the
// channel is dimming; it does not itself step the value.
func (o *OutputContainer) StartDimming(channelType string, direction DimDirection, rate float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.channels[channelType]; !ok {
		return verrors.NewNotFoundError("output-channel", channelType)
	}
	o.dimming[channelType] = true
	if o.dimCB != nil {
		o.dimCB(channelType, "start_dimming", direction, rate)
	}
	return nil
}

// StopDimming invokes the hardware stop-dimming callback.
func (o *OutputContainer) StopDimming(channelType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.channels[channelType]; !ok {
		return verrors.NewNotFoundError("output-channel", channelType)
	}
	delete(o.dimming, channelType)
	if o.dimCB != nil {
		o.dimCB(channelType, "stop_dimming", DimDown, 0)
	}
	return nil
}

// IsDimming reports whether a channel currently has an outstanding
// dimming request.
func (o *OutputContainer) IsDimming(channelType string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dimming[channelType]
}

// ApplySceneValues writes a set of target channel values as part of a
// scene call. In ApplyMin mode, a channel whose current value already
// meets or exceeds the scene's target is left untouched (spec.md §4.7.2,
// §4.8, end-to-end scenario 5).
func (o *OutputContainer) ApplySceneValues(values map[string]float64, effect string, mode SceneApplyMode) {
	for channelType, target := range values {
		ch := o.Channel(channelType)
		if ch == nil {
			continue
		}
		if mode == ApplyMin && ch.Value() >= target {
			continue
		}
		o.SetChannelValue(channelType, target, effect, true)
	}
}

// SnapshotValues returns the current value of every channel, for scene
// save and undo-stack bookkeeping.
func (o *OutputContainer) SnapshotValues() map[string]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]float64, len(o.channels))
	for t, ch := range o.channels {
		out[t] = ch.Value()
	}
	return out
}
