package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsDefaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetStorePath(); got != DefaultStorePath {
		t.Errorf("GetStorePath() default = %q, want %q", got, DefaultStorePath)
	}
	if got := s.GetListenPort(); got != DefaultListenPort {
		t.Errorf("GetListenPort() default = %d, want %d", got, DefaultListenPort)
	}
	if got := s.GetAuditMaxSizeMB(); got != DefaultAuditMaxSizeMB {
		t.Errorf("GetAuditMaxSizeMB() default = %d, want %d", got, DefaultAuditMaxSizeMB)
	}
	if got := s.GetAuditMaxBackups(); got != DefaultAuditMaxBackups {
		t.Errorf("GetAuditMaxBackups() default = %d, want %d", got, DefaultAuditMaxBackups)
	}
}

func TestSettingsOverrides(t *testing.T) {
	s := &Settings{StorePath: "/custom/host.yaml", ListenPort: 9000}

	if got := s.GetStorePath(); got != "/custom/host.yaml" {
		t.Errorf("GetStorePath() = %q, want override", got)
	}
	if got := s.GetListenPort(); got != 9000 {
		t.Errorf("GetListenPort() = %d, want override", got)
	}
}

func TestSettingsAuditLogPathDerivesFromStoreDir(t *testing.T) {
	s := &Settings{}
	if got := s.GetAuditLogPath("/var/lib/vdchost"); got != "/var/lib/vdchost/audit.log" {
		t.Errorf("GetAuditLogPath() = %q, want derived from store dir", got)
	}
	if got := s.GetAuditLogPath(""); got != "/var/log/vdchost/audit.log" {
		t.Errorf("GetAuditLogPath() with empty dir = %q, want global default", got)
	}
	s.AuditLogPath = "/explicit/audit.log"
	if got := s.GetAuditLogPath("/ignored"); got != "/explicit/audit.log" {
		t.Errorf("GetAuditLogPath() should prefer an explicit override, got %q", got)
	}
}

func TestSettingsClear(t *testing.T) {
	s := &Settings{
		StorePath:  "/path",
		ListenPort: 1234,
	}
	s.Clear()
	if s.StorePath != "" || s.ListenPort != 0 {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettingsSaveLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.json")

	original := &Settings{
		StorePath:         "/etc/vdchost/host.yaml",
		ListenPort:        9001,
		AuditMaxSizeMB:    20,
		DiscoveryDisabled: true,
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo(): %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom(): %v", err)
	}
	if loaded.StorePath != original.StorePath {
		t.Errorf("StorePath mismatch: got %q, want %q", loaded.StorePath, original.StorePath)
	}
	if loaded.ListenPort != original.ListenPort {
		t.Errorf("ListenPort mismatch: got %d, want %d", loaded.ListenPort, original.ListenPort)
	}
	if loaded.DiscoveryDisabled != original.DiscoveryDisabled {
		t.Errorf("DiscoveryDisabled mismatch: got %v, want %v", loaded.DiscoveryDisabled, original.DiscoveryDisabled)
	}
}

func TestLoadFromNonExistentReturnsEmpty(t *testing.T) {
	s, err := LoadFrom("/nonexistent/path/settings.json")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s.StorePath != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.json")
	if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSaveToCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "subdir", "nested", "settings.json")

	s := &Settings{StorePath: "/x"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if path == "" {
		t.Error("DefaultSettingsPath() should not be empty")
	}
	if !filepath.IsAbs(path) && path != "vdchost_settings.json" {
		t.Errorf("DefaultSettingsPath() should be absolute or fallback, got %q", path)
	}
}

func TestLoadAndSaveUseHomeDirectory(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpDir := t.TempDir()
	os.Setenv("HOME", tmpDir)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() with non-existent file should not error: %v", err)
	}
	if s.StorePath != "" {
		t.Error("Load() with non-existent file should return empty settings")
	}

	s.StorePath = "/etc/vdchost/host.yaml"
	s.ListenPort = 8500
	if err := s.Save(); err != nil {
		t.Fatalf("Save(): %v", err)
	}

	expectedPath := filepath.Join(tmpDir, ".vdchost", "settings.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Save() did not create file at %s", expectedPath)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save(): %v", err)
	}
	if loaded.ListenPort != 8500 {
		t.Errorf("Load() after Save() ListenPort = %d, want 8500", loaded.ListenPort)
	}
}

func TestDefaultSettingsPathNoHome(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)
	os.Unsetenv("HOME")

	path := DefaultSettingsPath()
	if path != "/tmp/vdchost_settings.json" {
		t.Errorf("DefaultSettingsPath() with no HOME = %q, want fallback", path)
	}
}

func TestLoadFromReadErrorWhenPathIsDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dirAsFile := filepath.Join(tmpDir, "settings.json")
	if err := os.Mkdir(dirAsFile, 0755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}

	if _, err := LoadFrom(dirAsFile); err == nil {
		t.Error("LoadFrom() should error when path is a directory")
	}
}

func TestSaveToMkdirError(t *testing.T) {
	tmpDir := t.TempDir()
	blockingFile := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blockingFile, []byte("blocking"), 0644); err != nil {
		t.Fatalf("creating blocking file: %v", err)
	}

	path := filepath.Join(blockingFile, "subdir", "settings.json")
	s := &Settings{StorePath: "test"}

	if err := s.SaveTo(path); err == nil {
		t.Error("SaveTo() should fail when directory creation fails")
	}
}
