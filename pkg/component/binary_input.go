package component

import (
	"sync"
	"time"

	"github.com/vdc-project/vdchost/pkg/proptree"
)

// BinaryInput is a two-state hardware input (door contact, motion
// detector, etc.) with an optional invert flag applied to hardware writes
// (spec.md §3, §4.7.4).
type BinaryInput struct {
	InputType     string
	Usage         string
	SensorFunction string
	Invert        bool

	mu             sync.Mutex
	state          bool
	lastTransition time.Time
	pusher         Pusher
}

// NewBinaryInput constructs a binary input in the false state.
func NewBinaryInput(inputType, usage, sensorFunction string, invert bool) *BinaryInput {
	return &BinaryInput{
		InputType:      inputType,
		Usage:          usage,
		SensorFunction: sensorFunction,
		Invert:         invert,
		lastTransition: time.Now(),
		pusher:         NoOpPusher{},
	}
}

// SetPusher wires the input's push destination.
func (bi *BinaryInput) SetPusher(p Pusher) {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	if p == nil {
		p = NoOpPusher{}
	}
	bi.pusher = p
}

// State returns the input's current (post-invert) state.
func (bi *BinaryInput) State() bool {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.state
}

// LastTransition returns when the input's state last changed.
func (bi *BinaryInput) LastTransition() time.Time {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.lastTransition
}

// SetState applies the invert flag to a raw hardware reading, and on an
// actual state change updates the timestamp and pushes unconditionally
// (spec.md §4.7.4).
func (bi *BinaryInput) SetState(rawState bool) {
	effective := rawState
	if bi.Invert {
		effective = !rawState
	}

	bi.mu.Lock()
	if effective == bi.state {
		bi.mu.Unlock()
		return
	}
	bi.state = effective
	bi.lastTransition = time.Now()
	pusher := bi.pusher
	bi.mu.Unlock()

	pusher.Push(proptree.Map(map[string]proptree.Value{
		"type":  proptree.String(bi.InputType),
		"state": proptree.Bool(effective),
	}))
}
