package component

import (
	"sync"

	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/verrors"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// ButtonMode selects a button's reporting shape (spec.md §3, §4.7.3).
type ButtonMode int

const (
	ButtonModeClick ButtonMode = iota
	ButtonModeAction
)

// Action modes for action-mode buttons.
const (
	ActionNormal = 0
	ActionForce  = 1
	ActionUndo   = 2
)

// ClickTypeNone is the sentinel reported when a click-mode button has no
// pending click classification.
const ClickTypeNone = 255

// ButtonInput models a physical or virtual push-button. Description
// fields are frozen after construction; only the mode-appropriate value
// setters mutate state (spec.md §4.7.3).
type ButtonInput struct {
	Name         string
	Index        int
	PhysicalType string
	ElementID    string
	Mode         ButtonMode

	mu        sync.Mutex
	active    *bool
	clickType int
	actionID  int64
	actionMode int
	pusher    Pusher
}

// NewButtonInput constructs a button in the given mode.
func NewButtonInput(name string, index int, physicalType, elementID string, mode ButtonMode) *ButtonInput {
	return &ButtonInput{
		Name:         name,
		Index:        index,
		PhysicalType: physicalType,
		ElementID:    elementID,
		Mode:         mode,
		clickType:    ClickTypeNone,
		pusher:       NoOpPusher{},
	}
}

// SetPusher wires the button's push destination.
func (b *ButtonInput) SetPusher(p Pusher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p == nil {
		p = NoOpPusher{}
	}
	b.pusher = p
}

// SetValue updates the active/inactive state for a click-mode button.
// Does not itself push; a separate SetClickType call (or the hardware
// driver calling both together) carries the push (spec.md §4.7.3).
func (b *ButtonInput) SetValue(active bool) {
	if b.Mode != ButtonModeClick {
		vlog.Logger.Warnf("button %s: SetValue called on an action-mode button", b.Name)
	}
	b.mu.Lock()
	b.active = &active
	b.mu.Unlock()
}

// Active returns the button's last reported active state, or nil if
// never set.
func (b *ButtonInput) Active() *bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// SetClickType validates t is in {0..14, 255} and always pushes.
func (b *ButtonInput) SetClickType(t int) error {
	if b.Mode != ButtonModeClick {
		vlog.Logger.Warnf("button %s: SetClickType called on an action-mode button", b.Name)
	}
	if !(t >= 0 && t <= 14) && t != ClickTypeNone {
		return verrors.ErrOutOfRange
	}
	b.mu.Lock()
	b.clickType = t
	pusher := b.pusher
	b.mu.Unlock()

	pusher.Push(proptree.Map(map[string]proptree.Value{
		"name":      proptree.String(b.Name),
		"clickType": proptree.Int(int64(t)),
	}))
	return nil
}

// ClickType returns the button's last reported click type.
func (b *ButtonInput) ClickType() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clickType
}

// SetAction validates actionMode and always pushes.
func (b *ButtonInput) SetAction(actionID int64, actionMode int) error {
	if b.Mode != ButtonModeAction {
		vlog.Logger.Warnf("button %s: SetAction called on a click-mode button", b.Name)
	}
	if actionMode != ActionNormal && actionMode != ActionForce && actionMode != ActionUndo {
		return verrors.ErrOutOfRange
	}
	b.mu.Lock()
	b.actionID = actionID
	b.actionMode = actionMode
	pusher := b.pusher
	b.mu.Unlock()

	pusher.Push(proptree.Map(map[string]proptree.Value{
		"name":       proptree.String(b.Name),
		"actionId":   proptree.Int(actionID),
		"actionMode": proptree.Int(int64(actionMode)),
	}))
	return nil
}

// Action returns the button's last reported action id and mode.
func (b *ButtonInput) Action() (int64, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.actionID, b.actionMode
}
