// Package types defines core data structures shared by the date-fixer modules.
package types

import (
	"time"
)

// FileRecord carries one file through a processing pass: the candidate dates
// found for it, the resolution outputs and the processing outcome.
//
// All timestamps are naive local wall-clock times with second precision; see
// WallClock.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`
	// Filename is the base filename.
	Filename string `json:"filename"`
	// Extension is the lowercase extension including the dot (e.g. ".jpg").
	Extension string `json:"extension"`

	// EmbeddedCaptureDate is the original capture time (EXIF DateTimeOriginal or
	// the video container creation time). It is never written back.
	EmbeddedCaptureDate *time.Time `json:"embedded_capture_date,omitempty"`
	// EmbeddedDigitizedDate is EXIF DateTimeDigitized.
	EmbeddedDigitizedDate *time.Time `json:"embedded_digitized_date,omitempty"`
	// EmbeddedModifiedDate is the IFD0 DateTime tag.
	EmbeddedModifiedDate *time.Time `json:"embedded_modified_date,omitempty"`
	FilesystemCreated    *time.Time `json:"filesystem_created,omitempty"`
	FilesystemModified   *time.Time `json:"filesystem_modified,omitempty"`
	// FilenameDate is the date parsed out of Filename.
	FilenameDate *time.Time `json:"filename_date,omitempty"`

	ProposedDate     *time.Time `json:"proposed_date,omitempty"`
	ProposedFilename string     `json:"proposed_filename,omitempty"`

	Status  RecordStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// CurrentBestDate returns the most reliable date currently known for display.
// It plays no part in rule resolution.
func (r *FileRecord) CurrentBestDate() *time.Time {
	for _, d := range []*time.Time{r.EmbeddedCaptureDate, r.FilenameDate, r.EmbeddedDigitizedDate, r.FilesystemCreated} {
		if d != nil {
			return d
		}
	}
	return nil
}

// IsFinal reports whether the record reached a terminal state for this pass.
// Skipped and Dry Run records stay open to rule re-evaluation, since they
// describe the outcome under the configuration that produced them.
func (r *FileRecord) IsFinal() bool {
	return r.Status == StatusProcessed || r.Status == StatusError
}

// RecordStatus represents the processing status of a FileRecord.
type RecordStatus string

const (
	StatusPending   RecordStatus = "Pending"
	StatusDryRun    RecordStatus = "Dry Run"
	StatusProcessed RecordStatus = "Processed"
	StatusSkipped   RecordStatus = "Skipped"
	StatusError     RecordStatus = "Error"
)

// WallClock strips the zone from t and keeps its wall-clock reading, to
// second precision. Naive times carry the UTC location so that arithmetic and
// comparisons never cross a daylight saving transition.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Instant places the naive wall-clock time t on the local timeline. Readings
// inside a spring-forward gap resolve the way time.Date does.
func Instant(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}

// SourceDates is what the metadata reader finds for a file.
type SourceDates struct {
	CaptureDate        *time.Time
	DigitizedDate      *time.Time
	ModifiedDate       *time.Time
	FilesystemCreated  time.Time
	FilesystemModified time.Time
}

// DateTemplate selects the textual layout used when renaming files.
type DateTemplate string

const (
	// TemplateCompactDateTime: 20060102_150405
	TemplateCompactDateTime DateTemplate = "compact-datetime"
	// TemplateDateTime: 2006-01-02_15-04-05
	TemplateDateTime DateTemplate = "datetime"
	// TemplateCompactDate: 20060102
	TemplateCompactDate DateTemplate = "compact-date"
	// TemplateDate: 2006-01-02
	TemplateDate DateTemplate = "date"
)

// RenameConfig controls filename derivation.
type RenameConfig struct {
	Enabled  bool         `json:"enabled"`
	Template DateTemplate `json:"template"`
	Prefix   string       `json:"prefix,omitempty"`
	Suffix   string       `json:"suffix,omitempty"`
}

// RuleConfig is the rule engine configuration.
type RuleConfig struct {
	PreferEmbedded bool         `json:"prefer_embedded"`
	PreferFilename bool         `json:"prefer_filename"`
	UseEarliest    bool         `json:"use_earliest"`
	ManualDate     *time.Time   `json:"manual_date,omitempty"`
	OffsetHours    int          `json:"offset_hours"`
	Rename         RenameConfig `json:"rename"`
}

// DefaultRuleConfig returns the rule defaults.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		PreferEmbedded: true,
		PreferFilename: true,
		Rename: RenameConfig{
			Template: TemplateCompactDateTime,
		},
	}
}

// ConflictPolicy defines what relocation does when the target path is taken.
type ConflictPolicy string

const (
	ConflictPolicyFail      ConflictPolicy = "fail"
	ConflictPolicyRename    ConflictPolicy = "rename"
	ConflictPolicyOverwrite ConflictPolicy = "overwrite"
)

// RelocateAction describes how a file got to its committed location.
type RelocateAction string

const (
	RelocateNone    RelocateAction = "none"
	RelocateRenamed RelocateAction = "renamed"
	RelocateCopied  RelocateAction = "copied"
)

// RunSummary contains statistics for a completed batch.
type RunSummary struct {
	TotalFiles int           `json:"total_files"`
	Processed  int           `json:"processed"`
	DryRun     int           `json:"dry_run"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Cancelled  bool          `json:"cancelled"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// Add counts one finished record.
func (s *RunSummary) Add(rec *FileRecord) {
	switch rec.Status {
	case StatusProcessed:
		s.Processed++
	case StatusDryRun:
		s.DryRun++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Failed++
	}
}

// RulePreset represents a saved rule configuration.
type RulePreset struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	PreferEmbedded bool           `json:"prefer_embedded"`
	PreferFilename bool           `json:"prefer_filename"`
	UseEarliest    bool           `json:"use_earliest"`
	ManualDate     string         `json:"manual_date,omitempty"`
	OffsetHours    int            `json:"offset_hours"`
	EnableRename   bool           `json:"enable_rename"`
	DateFormat     DateTemplate   `json:"date_format"`
	FilenamePrefix string         `json:"filename_prefix,omitempty"`
	FilenameSuffix string         `json:"filename_suffix,omitempty"`
	OutputDir      string         `json:"output_dir,omitempty"`
	ConflictPolicy ConflictPolicy `json:"conflict_policy"`
	CreatedAt      time.Time      `json:"created_at"`
}
