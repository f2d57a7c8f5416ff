package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vdc-project/vdchost/pkg/component"
	"github.com/vdc-project/vdchost/pkg/scene"
)

func TestOpenOnMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "host.yaml"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Device("anything"); ok {
		t.Fatalf("expected no device records in a fresh store")
	}
}

func TestSaveAndReopenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetHost(HostRecord{Name: "Living Room Host"})
	s.SetConnector("AA-BB-CC", ConnectorRecord{Zone: "upstairs"})
	s.SetDevice("11:22:33", DeviceRecord{Name: "Lamp", Zone: "bedroom"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Host().Name != "Living Room Host" {
		t.Fatalf("host record did not round-trip")
	}
	cr, ok := reopened.Connector("AABBCC")
	if !ok || cr.Zone != "upstairs" {
		t.Fatalf("connector record did not round-trip under normalized key: %+v ok=%v", cr, ok)
	}
	dr, ok := reopened.Device("112233")
	if !ok || dr.Name != "Lamp" || dr.Zone != "bedroom" {
		t.Fatalf("device record did not round-trip under normalized key: %+v ok=%v", dr, ok)
	}
}

func TestSaveCreatesShadowBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.yaml")

	s, _ := Open(path)
	s.SetHost(HostRecord{Name: "first"})
	if err := s.Save(); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	s.SetHost(HostRecord{Name: "second"})
	if err := s.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("expected a .bak backup file: %v", err)
	}
	if len(backup) == 0 {
		t.Fatalf("backup file is empty")
	}
}

func TestLoadFallsBackToBackupOnCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.yaml")

	s, _ := Open(path)
	s.SetHost(HostRecord{Name: "good"})
	s.Save()

	// corrupt the primary file, leave the backup from the first save
	// absent (first save has no prior file to back up), so instead
	// simulate corruption after two good saves to guarantee a backup exists.
	s.SetHost(HostRecord{Name: "good-2"})
	s.Save()
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0o644); err != nil {
		t.Fatalf("corrupt primary: %v", err)
	}

	recovered, err := Open(path)
	if err != nil {
		t.Fatalf("expected recovery from backup, got error: %v", err)
	}
	if recovered.Host().Name != "good" {
		t.Fatalf("expected recovery to restore the backed-up state, got %q", recovered.Host().Name)
	}
}

func TestUpdateDevicePropertyWalksAndCreatesIntermediateMaps(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(filepath.Join(dir, "host.yaml"))
	s.SetDevice("AA-BB", DeviceRecord{Name: "Lamp"})

	s.UpdateDeviceProperty("aa-bb", "lastOutputValues.brightness", 42.0)

	rec, ok := s.Device("AABB")
	if !ok {
		t.Fatalf("expected device record to exist")
	}
	nested, ok := rec.Extra["lastOutputValues"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected lastOutputValues to be a nested map, got %#v", rec.Extra["lastOutputValues"])
	}
	if nested["brightness"] != 42.0 {
		t.Fatalf("brightness = %v, want 42", nested["brightness"])
	}
	if rec.Name != "Lamp" {
		t.Fatalf("expected existing name to survive the update, got %q", rec.Name)
	}
}

func TestUpdateDevicePropertyCreatesMissingDeviceRecord(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(filepath.Join(dir, "host.yaml"))

	s.UpdateDeviceProperty("11:22", "zone", "garage")

	rec, ok := s.Device("1122")
	if !ok {
		t.Fatalf("expected a minimal device record to have been created")
	}
	if rec.Extra["zone"] != "garage" {
		t.Fatalf("zone = %v, want garage", rec.Extra["zone"])
	}
}

func TestUpdateDevicePropertyOverwritesNonMapIntermediate(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(filepath.Join(dir, "host.yaml"))
	s.UpdateDeviceProperty("d1", "outputs", "flat-value")

	s.UpdateDeviceProperty("d1", "outputs.brightness", 10.0)

	rec, _ := s.Device("d1")
	nested, ok := rec.Extra["outputs"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected outputs to become a map, got %#v", rec.Extra["outputs"])
	}
	if nested["brightness"] != 10.0 {
		t.Fatalf("brightness = %v, want 10", nested["brightness"])
	}
}

func TestScenesToRecordsAndRestoreRoundTrip(t *testing.T) {
	out := &fakeSceneOutput{values: map[string]float64{"brightness": 80}}
	table := scene.NewTable(out, nil)
	table.Save(2, true)

	records := ScenesToRecords(table)
	if len(records) != 1 {
		t.Fatalf("expected one scene record, got %d", len(records))
	}

	restored := scene.NewTable(out, nil)
	RestoreScenes(restored, records)
	cfg, ok := restored.Get(2)
	if !ok || cfg.Values["brightness"] != 80 || !cfg.IgnoreLocalPriority {
		t.Fatalf("restored scene mismatch: %+v ok=%v", cfg, ok)
	}
}

type fakeSceneOutput struct {
	values map[string]float64
}

func (f *fakeSceneOutput) SnapshotValues() map[string]float64 {
	out := make(map[string]float64, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *fakeSceneOutput) ApplySceneValues(values map[string]float64, effect string, mode component.SceneApplyMode) {
	for k, v := range values {
		f.values[k] = v
	}
}
