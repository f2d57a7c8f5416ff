// Package scene implements the per-device scene table: save/call/undo,
// min-mode application, and local-priority locking (spec.md §3, §4.8).
package scene

import (
	"sync"

	"github.com/vdc-project/vdchost/pkg/component"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// UndoDepth is the bounded depth of the undo stack. spec.md §9 leaves
// this as an implementation-chosen heuristic with no wire-level
// requirement; 5 matches the value the original implementation picked.
const UndoDepth = 5

// Effect is a scene's transition style tag.
type Effect int

const (
	EffectNone Effect = iota
	EffectSmooth
	EffectSlow
	EffectVerySlow
	EffectAlert
)

// Config is one stored scene's configuration (spec.md §3).
type Config struct {
	Values              map[string]float64
	Effect              Effect
	DontCare            bool
	IgnoreLocalPriority bool
}

// LocalPriorityLock names what a device's local-priority lock targets:
// either a specific scene number, or the global wildcard.
type LocalPriorityLock struct {
	Set    bool
	Global bool
	Scene  int
}

// undoEntry is a snapshot of channel values taken just before a
// call-scene mutation, for undo-scene to restore.
type undoEntry struct {
	values map[string]float64
}

// Container is the subset of OutputContainer the scene engine drives:
// narrowed to avoid this package depending on the full component API
// surface beyond what save/call/undo actually need.
type Container interface {
	SnapshotValues() map[string]float64
	ApplySceneValues(values map[string]float64, effect string, mode component.SceneApplyMode)
}

// Table is a device's scene subsystem: the scene configs keyed 0..127,
// the undo stack, and the local-priority lock.
type Table struct {
	mu        sync.Mutex
	scenes    map[int]*Config
	undoStack []undoEntry
	priority  LocalPriorityLock
	output    Container
	onChange  func()
}

// NewTable constructs an empty scene table bound to a device's output
// container. onChange, if non-nil, is invoked after save/call/undo so the
// caller can persist and push a "scenes changed" notification.
func NewTable(output Container, onChange func()) *Table {
	return &Table{
		scenes:   make(map[int]*Config),
		output:   output,
		onChange: onChange,
	}
}

func effectName(e Effect) string {
	switch e {
	case EffectSmooth:
		return "smooth"
	case EffectSlow:
		return "slow"
	case EffectVerySlow:
		return "very-slow"
	case EffectAlert:
		return "alert"
	default:
		return "none"
	}
}

// Get returns the stored config for scene n, and whether it exists.
func (t *Table) Get(n int) (Config, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.scenes[n]
	if !ok {
		return Config{}, false
	}
	return *c, true
}

// All returns every stored scene config, keyed by scene number, for
// persistence (pkg/store snapshots this on save and restores it on load).
func (t *Table) All() map[int]Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int]Config, len(t.scenes))
	for n, c := range t.scenes {
		out[n] = *c
	}
	return out
}

// Restore installs a scene config loaded from persistence directly,
// bypassing Save's snapshot-from-hardware path and without invoking the
// onChange hook (the caller is reconstructing prior state, not mutating
// it live).
func (t *Table) Restore(n int, cfg Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := cfg
	t.scenes[n] = &c
}

// Save snapshots all current output channel values into scene n,
// preserving the effect/flags of any prior config at that slot, or
// defaulting a new one (spec.md §4.8 save-scene).
func (t *Table) Save(n int, ignoreLocalPriority bool) {
	t.mu.Lock()
	values := t.output.SnapshotValues()
	existing, hadPrior := t.scenes[n]

	cfg := &Config{Values: values}
	if hadPrior {
		cfg.Effect = existing.Effect
		cfg.DontCare = existing.DontCare
		cfg.IgnoreLocalPriority = existing.IgnoreLocalPriority
	} else {
		cfg.IgnoreLocalPriority = ignoreLocalPriority
	}
	t.scenes[n] = cfg
	t.mu.Unlock()

	t.notify()
}

// pushUndo appends the current output state to the undo stack, dropping
// the oldest entry if it would exceed UndoDepth (spec.md §4.8, §8).
func (t *Table) pushUndo() {
	snapshot := t.output.SnapshotValues()
	t.undoStack = append(t.undoStack, undoEntry{values: snapshot})
	if len(t.undoStack) > UndoDepth {
		t.undoStack = t.undoStack[1:]
	}
}

func (t *Table) popUndo() {
	if len(t.undoStack) == 0 {
		return
	}
	t.undoStack = t.undoStack[:len(t.undoStack)-1]
}

// Call applies scene n. force bypasses both the dontCare skip and the
// local-priority lock; mode selects normal vs. min-mode channel
// application (spec.md §4.8 call-scene).
func (t *Table) Call(n int, force bool, mode component.SceneApplyMode) {
	t.mu.Lock()
	cfg, ok := t.scenes[n]
	if !ok && !force {
		t.mu.Unlock()
		return
	}
	if ok && cfg.DontCare && !force {
		t.mu.Unlock()
		return
	}

	t.pushUndo()

	if t.priority.Set && !force {
		// A global lock (*) matches no scene and so blocks every call; a
		// scene-specific lock matches only that scene number.
		lockMatches := !t.priority.Global && t.priority.Scene == n
		ignoreLocal := ok && cfg.IgnoreLocalPriority
		if !lockMatches && !ignoreLocal {
			t.popUndo()
			t.mu.Unlock()
			return
		}
	}

	var values map[string]float64
	var effect Effect
	if ok {
		values = cfg.Values
		effect = cfg.Effect
	}
	output := t.output
	t.mu.Unlock()

	if values != nil {
		output.ApplySceneValues(values, effectName(effect), mode)
	}
	t.notify()
}

// CallMin is call-scene with mode=min (spec.md §4.8 call-min-scene).
func (t *Table) CallMin(n int) {
	t.Call(n, false, component.ApplyMin)
}

// Undo pops the top of the undo stack and restores every channel to its
// saved value. A no-op (logged) if the stack is empty.
func (t *Table) Undo() {
	t.mu.Lock()
	if len(t.undoStack) == 0 {
		t.mu.Unlock()
		vlog.Logger.Debugf("scene: undo called with an empty undo stack")
		return
	}
	entry := t.undoStack[len(t.undoStack)-1]
	t.undoStack = t.undoStack[:len(t.undoStack)-1]
	output := t.output
	t.mu.Unlock()

	output.ApplySceneValues(entry.values, effectName(EffectNone), component.ApplyNormal)
	t.notify()
}

// SetLocalPriority sets the device's local-priority lock to a specific
// scene, or to the global wildcard lock if sceneNumber is nil.
// ClearLocalPriority releases the lock.
func (t *Table) SetLocalPriority(sceneNumber *int) {
	t.mu.Lock()
	if sceneNumber == nil {
		t.priority = LocalPriorityLock{Set: true, Global: true}
	} else {
		t.priority = LocalPriorityLock{Set: true, Scene: *sceneNumber}
	}
	t.mu.Unlock()
	t.notify()
}

// ClearLocalPriority releases the local-priority lock entirely.
func (t *Table) ClearLocalPriority() {
	t.mu.Lock()
	t.priority = LocalPriorityLock{}
	t.mu.Unlock()
	t.notify()
}

// Priority returns the current local-priority lock state.
func (t *Table) Priority() LocalPriorityLock {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

// UndoDepthNow returns how many entries are currently on the undo stack,
// for tests and diagnostics.
func (t *Table) UndoDepthNow() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.undoStack)
}

func (t *Table) notify() {
	if t.onChange != nil {
		t.onChange()
	}
}
