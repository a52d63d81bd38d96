package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, "source_dir: /data/vob\nextension: PDF\nlocation_codes:\n  - dtx\n  - RTC\n")

	var c Config
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.SourceDir != "/data/vob" {
		t.Errorf("SourceDir = %q", c.SourceDir)
	}
	if len(c.LocationCodes) != 2 || c.LocationCodes[0] != "DTX" || c.LocationCodes[1] != "RTC" {
		t.Errorf("unexpected location codes: %v", c.LocationCodes)
	}
}

func TestLoadFromFile_FlagsWin(t *testing.T) {
	path := writeConfig(t, "source_dir: /from/file\n")

	c := Config{SourceDir: "/from/flag"}
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.SourceDir != "/from/flag" {
		t.Errorf("flag value overwritten: %q", c.SourceDir)
	}
}

func TestLoadFromFile_BadLocationCode(t *testing.T) {
	path := writeConfig(t, "location_codes:\n  - DTX\n  - 'RTC; DROP'\n")

	var c Config
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for invalid location code")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Driver != "postgres" || c.FilePrefix != DefaultFilePrefix || c.Extension != "pdf" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if len(c.LocationCodes) != 4 {
		t.Errorf("expected 4 default location codes, got %v", c.LocationCodes)
	}
	if len(c.ExcludePathContains) != 1 || c.ExcludePathContains[0] != "insurance cards" {
		t.Errorf("unexpected excludes: %v", c.ExcludePathContains)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", c.Timeout)
	}
}

func TestValidate(t *testing.T) {
	c := Config{}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	c.Driver = "mysql"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestValidateWithDSN(t *testing.T) {
	c := Config{}
	c.ApplyDefaults()
	if err := c.ValidateWithDSN(); err == nil {
		t.Error("expected error for missing DSN")
	}
	c.DSN = "postgres://localhost/vob"
	if err := c.ValidateWithDSN(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateIngest(t *testing.T) {
	c := Config{}
	c.ApplyDefaults()
	if err := c.ValidateIngest(); err == nil {
		t.Error("expected error for missing --dir")
	}

	dir := t.TempDir()
	c.SourceDir = dir
	if err := c.ValidateIngest(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	file := filepath.Join(dir, "x.pdf")
	os.WriteFile(file, []byte("x"), 0644)
	c.SourceDir = file
	if err := c.ValidateIngest(); err == nil {
		t.Error("expected error when source dir is a file")
	}
}
