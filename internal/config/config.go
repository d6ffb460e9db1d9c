package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/rules"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
	"gopkg.in/yaml.v3"
)

// MaxOffsetHours bounds the configurable hour shift in both directions.
const MaxOffsetHours = 24

// manualDateLayouts are accepted for the manual override date, most
// specific first.
var manualDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006:01:02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type Config struct {
	Source         string               `yaml:"source" json:"source"`
	Files          []string             `yaml:"files" json:"files"`
	Recursive      bool                 `yaml:"recursive" json:"recursive"`
	PreferEmbedded bool                 `yaml:"prefer_embedded" json:"prefer_embedded"`
	PreferFilename bool                 `yaml:"prefer_filename" json:"prefer_filename"`
	UseEarliest    bool                 `yaml:"use_earliest" json:"use_earliest"`
	ManualDate     string               `yaml:"manual_date" json:"manual_date"`
	OffsetHours    int                  `yaml:"offset_hours" json:"offset_hours"`
	EnableRename   bool                 `yaml:"enable_rename" json:"enable_rename"`
	DateFormat     types.DateTemplate   `yaml:"date_format" json:"date_format"`
	FilenamePrefix string               `yaml:"filename_prefix" json:"filename_prefix"`
	FilenameSuffix string               `yaml:"filename_suffix" json:"filename_suffix"`
	OutputDir      string               `yaml:"output_dir" json:"output_dir"`
	ConflictPolicy types.ConflictPolicy `yaml:"conflict_policy" json:"conflict_policy"`
	HashVerify     bool                 `yaml:"hash_verify" json:"hash_verify"`
	DryRun         bool                 `yaml:"dry_run" json:"dry_run"`
	LogFile        string               `yaml:"log_file" json:"log_file"`
	LogJSON        bool                 `yaml:"log_json" json:"log_json"`
}

func dataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".datefixer")
}

func DefaultConfig() *Config {
	return &Config{
		PreferEmbedded: true,
		PreferFilename: true,
		DateFormat:     types.TemplateCompactDateTime,
		ConflictPolicy: types.ConflictPolicyFail,
		LogFile:        filepath.Join(dataDir(), "datefixer.log"),
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Inputs returns the folder and explicit files to process.
func (c *Config) Inputs() []string {
	var inputs []string
	if c.Source != "" {
		inputs = append(inputs, c.Source)
	}
	return append(inputs, c.Files...)
}

// Validate checks a full run configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Source == "" && len(c.Files) == 0 {
		return &ValidationError{Field: "source", Message: "source folder or files are required"}
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dataDir(), "datefixer.log")
	}
	return c.ValidateRules()
}

// ValidateRules checks only the rule and relocation settings.
func (c *Config) ValidateRules() error {
	if c.OffsetHours < -MaxOffsetHours || c.OffsetHours > MaxOffsetHours {
		return &ValidationError{Field: "offset_hours", Message: "offset must be between -24 and 24 hours"}
	}

	if c.DateFormat == "" {
		c.DateFormat = types.TemplateCompactDateTime
	}
	if !rules.ValidTemplate(c.DateFormat) {
		return &ValidationError{Field: "date_format", Message: "unknown date format: " + string(c.DateFormat)}
	}

	switch c.ConflictPolicy {
	case "":
		c.ConflictPolicy = types.ConflictPolicyFail
	case types.ConflictPolicyFail, types.ConflictPolicyRename, types.ConflictPolicyOverwrite:
	default:
		return &ValidationError{Field: "conflict_policy", Message: "unknown conflict policy: " + string(c.ConflictPolicy)}
	}

	if strings.ContainsAny(c.FilenamePrefix+c.FilenameSuffix, `/\`) {
		return &ValidationError{Field: "filename_prefix", Message: "prefix and suffix cannot contain path separators"}
	}
	return nil
}

// ParseManualDate parses the manual override date as a naive wall-clock time
// (UTC location, no DST). An empty
// value yields nil without error.
func (c *Config) ParseManualDate() (*time.Time, error) {
	s := strings.TrimSpace(c.ManualDate)
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range manualDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, &ValidationError{Field: "manual_date", Message: lastErr.Error()}
}

// Rules converts the configuration for the rule engine. An unparsable manual
// date counts as absent.
func (c *Config) Rules() types.RuleConfig {
	manual, _ := c.ParseManualDate()
	return types.RuleConfig{
		PreferEmbedded: c.PreferEmbedded,
		PreferFilename: c.PreferFilename,
		UseEarliest:    c.UseEarliest,
		ManualDate:     manual,
		OffsetHours:    c.OffsetHours,
		Rename: types.RenameConfig{
			Enabled:  c.EnableRename,
			Template: c.DateFormat,
			Prefix:   c.FilenamePrefix,
			Suffix:   c.FilenameSuffix,
		},
	}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
