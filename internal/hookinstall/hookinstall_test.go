package hookinstall

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		wantThres int
	}{
		{"zero threshold defaults", Config{FileThreshold: 0}, false, DefaultFileThreshold},
		{"negative threshold defaults", Config{FileThreshold: -5}, false, DefaultFileThreshold},
		{"positive threshold kept", Config{FileThreshold: 25}, false, 25},
		{"safe pattern ok", Config{FileThreshold: 1, HighValueFiles: []string{"*.go", "internal/*.json"}}, false, 1},
		{"quote rejected", Config{FileThreshold: 1, HighValueFiles: []string{`foo"bar`}}, true, 1},
		{"semicolon rejected", Config{FileThreshold: 1, HighValueFiles: []string{"a;b"}}, true, 1},
		{"whitespace rejected", Config{FileThreshold: 1, HighValueFiles: []string{"a b"}}, true, 1},
		{"backtick rejected", Config{FileThreshold: 1, HighValueFiles: []string{"a`b`"}}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.FileThreshold != tt.wantThres {
				t.Errorf("FileThreshold = %d, want %d", cfg.FileThreshold, tt.wantThres)
			}
		})
	}
}

func TestWriteAndReadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{FileThreshold: 15, HighValueFiles: []string{"*.sql", "go.mod"}}

	if err := WriteConfig(dir, cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if got.FileThreshold != cfg.FileThreshold {
		t.Errorf("FileThreshold = %d, want %d", got.FileThreshold, cfg.FileThreshold)
	}
	if len(got.HighValueFiles) != 2 {
		t.Errorf("HighValueFiles = %v, want 2 entries", got.HighValueFiles)
	}
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig on missing file: %v", err)
	}
	if cfg.FileThreshold != DefaultFileThreshold {
		t.Errorf("FileThreshold = %d, want default %d", cfg.FileThreshold, DefaultFileThreshold)
	}
}

func TestInstallAndIsInstalled(t *testing.T) {
	gitDir := t.TempDir()
	cfg := Config{FileThreshold: 8, HighValueFiles: []string{"*.env"}}

	if IsInstalled(gitDir) {
		t.Fatal("IsInstalled true before Install")
	}

	if err := Install(gitDir, cfg, false); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !IsInstalled(gitDir) {
		t.Fatal("IsInstalled false after Install")
	}

	info, err := os.Stat(filepath.Join(gitDir, "hooks", "post-commit"))
	if err != nil {
		t.Fatalf("stat hook: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("hook is not executable: %v", info.Mode())
	}
}

func TestInstallRefusesForeignHook(t *testing.T) {
	gitDir := t.TempDir()
	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	foreign := "#!/bin/sh\necho not tx\n"
	if err := os.WriteFile(filepath.Join(hooksDir, "post-commit"), []byte(foreign), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Install(gitDir, Config{FileThreshold: 10}, false); err == nil {
		t.Fatal("expected conflict error installing over a foreign hook")
	}
	if err := Install(gitDir, Config{FileThreshold: 10}, true); err != nil {
		t.Fatalf("Install with force: %v", err)
	}
	if !IsInstalled(gitDir) {
		t.Fatal("expected tx hook installed after forced overwrite")
	}
}

func TestInstallReinstallIsIdempotent(t *testing.T) {
	gitDir := t.TempDir()
	cfg := Config{FileThreshold: 5}

	if err := Install(gitDir, cfg, false); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	if err := Install(gitDir, cfg, false); err != nil {
		t.Fatalf("reinstall over own hook should not conflict: %v", err)
	}
}
