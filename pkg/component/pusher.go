// Package component implements the host's hardware-facing component
// contracts: output channels and containers, button inputs, binary
// inputs, and sensors (spec.md §4.7).
package component

import "github.com/vdc-project/vdchost/pkg/proptree"

// Pusher is the narrow interface components use to hand a property-change
// subtree to the outbound notification pipeline, without this package
// depending on the entity tree or the push pipeline directly. A device
// implements Pusher and wires itself into each of its components at
// construction time.
type Pusher interface {
	Push(subtree proptree.Value)
}

// NoOpPusher discards pushes; useful as a default before a component is
// attached to a device, and in tests that don't care about push counts.
type NoOpPusher struct{}

// Push implements Pusher.
func (NoOpPusher) Push(proptree.Value) {}

// CountingPusher records pushes for test assertions.
type CountingPusher struct {
	Pushes []proptree.Value
}

// Push implements Pusher.
func (c *CountingPusher) Push(v proptree.Value) {
	c.Pushes = append(c.Pushes, v)
}

// Count returns the number of pushes recorded so far.
func (c *CountingPusher) Count() int { return len(c.Pushes) }
