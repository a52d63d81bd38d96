package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gyeh/vobstats/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFilePrefix = "VOB Form -"
	DefaultExtension  = "pdf"
	DefaultPDFToText  = "pdftotext"
	DefaultTimeout    = 10 * time.Second
)

// Config holds all runtime configuration for a vobload run.
type Config struct {
	DSN         string
	Driver      string // "postgres" or "sqlite"
	LogFormat   string // "text" or "json"
	Timeout     time.Duration
	MetricsFile string

	// ingest / plan
	SourceDir           string   `yaml:"source_dir"`
	FilePrefix          string   `yaml:"file_prefix"`
	Extension           string   `yaml:"extension"`
	ExcludePathContains []string `yaml:"exclude_path_contains"`
	PDFToText           string   `yaml:"pdftotext"`

	// search
	LocationCodes []string `yaml:"location_codes"`

	// import-reimb
	FilePath string
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	SourceDir           string   `yaml:"source_dir"`
	FilePrefix          string   `yaml:"file_prefix"`
	Extension           string   `yaml:"extension"`
	ExcludePathContains []string `yaml:"exclude_path_contains"`
	PDFToText           string   `yaml:"pdftotext"`
	LocationCodes       []string `yaml:"location_codes"`
}

var locationCodeRe = regexp.MustCompile(`^[A-Z]{2,4}$`)

// ApplyDefaults fills every unset tunable with the built-in value.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "postgres"
	}
	if c.FilePrefix == "" {
		c.FilePrefix = DefaultFilePrefix
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.ExcludePathContains == nil {
		c.ExcludePathContains = []string{"insurance cards"}
	}
	if c.PDFToText == "" {
		c.PDFToText = DefaultPDFToText
	}
	if len(c.LocationCodes) == 0 {
		c.LocationCodes = append([]string(nil), model.LocationCodes...)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Values already set from flags win over the file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.SourceDir == "" {
		c.SourceDir = yc.SourceDir
	}
	if c.FilePrefix == "" {
		c.FilePrefix = yc.FilePrefix
	}
	if c.Extension == "" {
		c.Extension = yc.Extension
	}
	if c.ExcludePathContains == nil {
		c.ExcludePathContains = yc.ExcludePathContains
	}
	if c.PDFToText == "" {
		c.PDFToText = yc.PDFToText
	}
	if len(c.LocationCodes) == 0 {
		c.LocationCodes = yc.LocationCodes
	}
	return c.validateLocationCodes()
}

// validateLocationCodes upper-cases entries and rejects anything that is not
// a 2-4 letter code.
func (c *Config) validateLocationCodes() error {
	for i, code := range c.LocationCodes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !locationCodeRe.MatchString(code) {
			return fmt.Errorf("invalid location code %q in config", c.LocationCodes[i])
		}
		c.LocationCodes[i] = code
	}
	return nil
}

// Validate checks fields shared by every subcommand.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("--driver must be postgres or sqlite, got %q", c.Driver)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("--log-format must be text or json, got %q", c.LogFormat)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	return c.validateLocationCodes()
}

// ValidateWithDSN checks shared fields and the DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or VOB_DB_URL is required")
	}
	return nil
}

// ValidateIngest checks the source directory used by ingest and plan.
func (c *Config) ValidateIngest() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SourceDir == "" {
		return fmt.Errorf("--dir is required")
	}
	st, err := os.Stat(c.SourceDir)
	if err != nil {
		return fmt.Errorf("source dir not accessible: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("source dir %s is not a directory", c.SourceDir)
	}
	if strings.TrimSpace(c.FilePrefix) == "" {
		return fmt.Errorf("file prefix must not be blank")
	}
	return nil
}

// ValidateImport checks the reimbursement file for import-reimb.
func (c *Config) ValidateImport() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}
