// Package store persists the host's soft state — the user-facing
// customizations (names, zones, saved scenes) that survive a restart even
// though the entity tree itself is rebuilt from live hardware enumeration
// on every boot. A device's local-priority lock is not persisted. Grounded on
// original_source/pyvdcapi/persistence/yaml_store.py's shadow-backup,
// atomic-rename save strategy and dSUID-normalization-on-load behavior,
// adapted to Go with teacher pkg/audit/logger.go's mutex-guarded,
// single-writer style.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vdc-project/vdchost/pkg/scene"
	"github.com/vdc-project/vdchost/pkg/uid"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// HostRecord is the host's persisted identity overrides.
type HostRecord struct {
	Name string `yaml:"name"`
}

// ConnectorRecord is a connector's persisted customization.
type ConnectorRecord struct {
	Zone string `yaml:"zone,omitempty"`
}

// SceneRecord mirrors scene.Config in a YAML-friendly shape.
type SceneRecord struct {
	Values              map[string]float64 `yaml:"values"`
	Effect              int                `yaml:"effect"`
	DontCare            bool               `yaml:"dontCare,omitempty"`
	IgnoreLocalPriority bool               `yaml:"ignoreLocalPriority,omitempty"`
}

// DeviceRecord is a device's persisted customization: name/zone
// overrides plus its saved scene table. Extra carries any other
// dotted-path properties poked in directly by UpdateDeviceProperty
// (e.g. "lastOutputValues.brightness") that don't have a dedicated
// struct field; it round-trips inline in the YAML document.
type DeviceRecord struct {
	Name   string                 `yaml:"name,omitempty"`
	Zone   string                 `yaml:"zone,omitempty"`
	Scenes map[int]SceneRecord    `yaml:"scenes,omitempty"`
	Extra  map[string]interface{} `yaml:",inline"`
}

// document is the on-disk shape, mirroring yaml_store.py's top-level
// vdc_host/vdcs/vdsds sections (renamed to the Go domain's vocabulary).
type document struct {
	Host       HostRecord                 `yaml:"host"`
	Connectors map[string]ConnectorRecord `yaml:"connectors"`
	Devices    map[string]DeviceRecord    `yaml:"devices"`
}

func newDocument() document {
	return document{
		Connectors: make(map[string]ConnectorRecord),
		Devices:    make(map[string]DeviceRecord),
	}
}

// Store is a YAML-backed persistent store for host soft state, with a
// shadow .bak backup and atomic same-directory rename on save.
type Store struct {
	path       string
	backupPath string
	mu         sync.Mutex
	doc        document
}

// Open loads an existing store file, or starts an empty one if it does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:       path,
		backupPath: path + ".bak",
		doc:        newDocument(),
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("store: stat %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return s.loadFromBackup(fmt.Errorf("store: reading %s: %w", s.path, err))
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return s.loadFromBackup(fmt.Errorf("store: parsing %s: %w", s.path, err))
	}
	s.doc = normalizeDocument(doc)
	return nil
}

func (s *Store) loadFromBackup(cause error) error {
	vlog.Logger.Errorf("store: %v", cause)
	raw, err := os.ReadFile(s.backupPath)
	if err != nil {
		return fmt.Errorf("store: no usable backup after load failure: %w", cause)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("store: backup also corrupt: %w", err)
	}
	vlog.Logger.Warnf("store: restored from backup %s after load failure", s.backupPath)
	s.doc = normalizeDocument(doc)
	return s.saveLocked()
}

// normalizeDocument canonicalizes device/connector UID keys the way
// yaml_store.py's _normalize_dsuid does: uppercase, separators stripped,
// so a UID written by an older host build still round-trips (spec.md
// §9's dSUID legacy-key normalization open question).
func normalizeDocument(doc document) document {
	out := newDocument()
	out.Host = doc.Host
	for k, v := range doc.Connectors {
		out.Connectors[uid.Normalize(k)] = v
	}
	for k, v := range doc.Devices {
		out.Devices[uid.Normalize(k)] = v
	}
	return out
}

// Save persists the current in-memory document, backing up the previous
// file to .bak and writing via a temp-file-then-rename in the same
// directory so a crash mid-write never leaves a half-written store.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: creating directory %s: %w", dir, err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if copyErr := copyFile(s.path, s.backupPath); copyErr != nil {
			vlog.Logger.Warnf("store: failed to create backup %s: %v", s.backupPath, copyErr)
		}
	}

	raw, err := yaml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("store: marshaling: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.yaml")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: renaming temp file into place: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, raw, 0o644)
}

// Host returns the persisted host record.
func (s *Store) Host() HostRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Host
}

// SetHost updates the persisted host record.
func (s *Store) SetHost(r HostRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Host = r
}

// Connector returns a connector's persisted record, and whether it exists.
func (s *Store) Connector(connectorUID string) (ConnectorRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.doc.Connectors[uid.Normalize(connectorUID)]
	return r, ok
}

// SetConnector upserts a connector's persisted record.
func (s *Store) SetConnector(connectorUID string, r ConnectorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Connectors[uid.Normalize(connectorUID)] = r
}

// Device returns a device's persisted record, and whether it exists.
func (s *Store) Device(deviceUID string) (DeviceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.doc.Devices[uid.Normalize(deviceUID)]
	return r, ok
}

// SetDevice upserts a device's persisted record.
func (s *Store) SetDevice(deviceUID string, r DeviceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Devices[uid.Normalize(deviceUID)] = r
}

// UpdateDeviceProperty sets a single dotted-path property (e.g.
// "lastOutputValues.brightness") inside a device's Extra bag, walking or
// creating intermediate maps along the way. If the device has no record
// yet, a minimal one is created so the nested property can still be set.
// Grounded on yaml_store.py's update_vdsd_property.
func (s *Store) UpdateDeviceProperty(deviceUID, propertyPath string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uid.Normalize(deviceUID)
	rec, ok := s.doc.Devices[key]
	if !ok {
		vlog.Logger.Warnf("store: device %s not found in persistence; creating new entry", key)
	}
	if rec.Extra == nil {
		rec.Extra = make(map[string]interface{})
	}

	parts := strings.Split(propertyPath, ".")
	current := rec.Extra
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value

	s.doc.Devices[key] = rec
}

// ScenesToRecords converts a scene table's live state into the
// YAML-friendly record shape for persistence.
func ScenesToRecords(table *scene.Table) map[int]SceneRecord {
	all := table.All()
	out := make(map[int]SceneRecord, len(all))
	for n, cfg := range all {
		out[n] = SceneRecord{
			Values:              cfg.Values,
			Effect:              int(cfg.Effect),
			DontCare:            cfg.DontCare,
			IgnoreLocalPriority: cfg.IgnoreLocalPriority,
		}
	}
	return out
}

// RestoreScenes installs persisted scene records into a live scene table
// on device (re)construction at boot.
func RestoreScenes(table *scene.Table, records map[int]SceneRecord) {
	for n, r := range records {
		table.Restore(n, scene.Config{
			Values:              r.Values,
			Effect:              scene.Effect(r.Effect),
			DontCare:            r.DontCare,
			IgnoreLocalPriority: r.IgnoreLocalPriority,
		})
	}
}
