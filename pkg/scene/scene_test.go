package scene

import (
	"testing"

	"github.com/vdc-project/vdchost/pkg/component"
)

// fakeOutput is a minimal Container used to test the scene engine in
// isolation from the real OutputContainer.
type fakeOutput struct {
	values map[string]float64
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{values: map[string]float64{"brightness": 0}}
}

func (f *fakeOutput) SnapshotValues() map[string]float64 {
	out := make(map[string]float64, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *fakeOutput) ApplySceneValues(values map[string]float64, effect string, mode component.SceneApplyMode) {
	for k, v := range values {
		if mode == component.ApplyMin && f.values[k] >= v {
			continue
		}
		f.values[k] = v
	}
}

func TestSaveAndCallRoundTrip(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)

	out.values["brightness"] = 65.0
	tbl.Save(17, false)

	out.values["brightness"] = 20.0
	tbl.Call(17, false, component.ApplyNormal)

	if out.values["brightness"] != 65.0 {
		t.Fatalf("brightness = %v, want 65 after calling saved scene", out.values["brightness"])
	}
}

func TestUndoRestoresPreCallState(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)

	out.values["brightness"] = 65.0
	tbl.Save(17, false)
	out.values["brightness"] = 20.0

	tbl.Call(17, false, component.ApplyNormal)
	if out.values["brightness"] != 65.0 {
		t.Fatalf("expected call to restore 65, got %v", out.values["brightness"])
	}

	tbl.Undo()
	if out.values["brightness"] != 20.0 {
		t.Fatalf("expected undo to restore pre-call value 20, got %v", out.values["brightness"])
	}
}

func TestUndoStackBoundedAtDepth(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	for n := 0; n < 8; n++ {
		out.values["brightness"] = float64(n)
		tbl.Save(n, false)
	}
	for n := 0; n < 8; n++ {
		tbl.Call(n, false, component.ApplyNormal)
	}
	if tbl.UndoDepthNow() != UndoDepth {
		t.Fatalf("undo stack depth = %d, want %d", tbl.UndoDepthNow(), UndoDepth)
	}
}

func TestUndoOnEmptyStackIsNoop(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 99
	tbl.Undo()
	if out.values["brightness"] != 99 {
		t.Fatalf("undo on empty stack should be a no-op, got %v", out.values["brightness"])
	}
}

func TestCallMissingSceneWithoutForceIsNoop(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 10
	tbl.Call(99, false, component.ApplyNormal)
	if out.values["brightness"] != 10 {
		t.Fatalf("calling a missing scene without force should be a no-op")
	}
	if tbl.UndoDepthNow() != 0 {
		t.Fatalf("calling a missing scene should not push an undo entry")
	}
}

func TestDontCareSkipsWithoutForce(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 5
	tbl.Save(1, false)
	cfg, _ := tbl.Get(1)
	cfg.DontCare = true
	tbl.scenes[1] = &cfg

	out.values["brightness"] = 77
	tbl.Call(1, false, component.ApplyNormal)
	if out.values["brightness"] != 77 {
		t.Fatalf("dontCare scene should be skipped without force")
	}
}

func TestLocalPriorityBlocksNonMatchingScene(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 1
	tbl.Save(1, false)
	out.values["brightness"] = 2
	tbl.Save(2, false)

	locked := 1
	tbl.SetLocalPriority(&locked)

	out.values["brightness"] = 50
	tbl.Call(2, false, component.ApplyNormal)
	if out.values["brightness"] != 50 {
		t.Fatalf("scene 2 should be blocked by lock on scene 1")
	}

	tbl.Call(1, false, component.ApplyNormal)
	if out.values["brightness"] != 1 {
		t.Fatalf("scene 1 should apply since it matches the lock")
	}
}

func TestLocalPriorityForceBypasses(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 9
	tbl.Save(9, false)

	locked := 1
	tbl.SetLocalPriority(&locked)

	out.values["brightness"] = 50
	tbl.Call(9, true, component.ApplyNormal)
	if out.values["brightness"] != 9 {
		t.Fatalf("force=true should bypass local priority lock")
	}
}

func TestLocalPriorityIgnoreFlagBypasses(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 9
	tbl.Save(9, true) // ignoreLocalPriority on a fresh scene

	locked := 1
	tbl.SetLocalPriority(&locked)

	out.values["brightness"] = 50
	tbl.Call(9, false, component.ApplyNormal)
	if out.values["brightness"] != 9 {
		t.Fatalf("scene with ignoreLocalPriority=true should bypass the lock")
	}
}

func TestGlobalPriorityBlocksEverySceneUnlessForced(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 3
	tbl.Save(3, false)

	tbl.SetLocalPriority(nil) // global lock

	out.values["brightness"] = 70
	tbl.Call(3, false, component.ApplyNormal)
	if out.values["brightness"] != 70 {
		t.Fatalf("global lock should block every scene, including its own number, without force")
	}
}

func TestMinModeScene(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 50
	tbl.Save(5, false)

	out.values["brightness"] = 70
	tbl.CallMin(5)
	if out.values["brightness"] != 70 {
		t.Fatalf("min-mode should not lower an already-higher value, got %v", out.values["brightness"])
	}

	out.values["brightness"] = 30
	tbl.CallMin(5)
	if out.values["brightness"] != 50 {
		t.Fatalf("min-mode should raise a lower value to the scene target, got %v", out.values["brightness"])
	}
}

func TestOnChangeCallbackFiresOnSaveCallUndo(t *testing.T) {
	out := newFakeOutput()
	calls := 0
	tbl := NewTable(out, func() { calls++ })

	tbl.Save(1, false)
	tbl.Call(1, false, component.ApplyNormal)
	tbl.Undo()

	if calls != 3 {
		t.Fatalf("expected onChange to fire 3 times, got %d", calls)
	}
}

func TestAllAndRestoreRoundTrip(t *testing.T) {
	out := newFakeOutput()
	tbl := NewTable(out, nil)
	out.values["brightness"] = 42
	tbl.Save(3, true)

	all := tbl.All()
	cfg, ok := all[3]
	if !ok || cfg.Values["brightness"] != 42 || !cfg.IgnoreLocalPriority {
		t.Fatalf("All() did not return the saved config, got %+v", all)
	}

	restored := NewTable(out, nil)
	for n, c := range all {
		restored.Restore(n, c)
	}
	got, ok := restored.Get(3)
	if !ok || got.Values["brightness"] != 42 {
		t.Fatalf("Restore() did not reinstall the scene, got %+v", got)
	}
}
