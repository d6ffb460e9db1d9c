// Package rules resolves one proposed date per file from its candidate dates
// and derives the matching filename.
package rules

import (
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

// Candidates are the dates the engine chooses from.
type Candidates struct {
	EmbeddedCapture   *time.Time
	Filename          *time.Time
	FilesystemCreated *time.Time
}

// CandidatesOf collects the rule inputs carried by a record.
func CandidatesOf(rec *types.FileRecord) Candidates {
	return Candidates{
		EmbeddedCapture:   rec.EmbeddedCaptureDate,
		Filename:          rec.FilenameDate,
		FilesystemCreated: rec.FilesystemCreated,
	}
}

var layouts = map[types.DateTemplate]string{
	types.TemplateCompactDateTime: "20060102_150405",
	types.TemplateDateTime:        "2006-01-02_15-04-05",
	types.TemplateCompactDate:     "20060102",
	types.TemplateDate:            "2006-01-02",
}

// ValidTemplate reports whether t names a known filename template.
func ValidTemplate(t types.DateTemplate) bool {
	_, ok := layouts[t]
	return ok
}

// Resolve picks the proposed date. The first applicable rule wins: manual
// date, embedded capture date, filename date, then the earliest candidate.
// The hour offset is applied to whatever was picked.
func Resolve(c Candidates, cfg types.RuleConfig) *time.Time {
	var picked *time.Time

	switch {
	case cfg.ManualDate != nil && !cfg.ManualDate.IsZero():
		picked = cfg.ManualDate
	case cfg.PreferEmbedded && c.EmbeddedCapture != nil:
		picked = c.EmbeddedCapture
	case cfg.PreferFilename && c.Filename != nil:
		picked = c.Filename
	case cfg.UseEarliest:
		picked = earliest(c.EmbeddedCapture, c.Filename, c.FilesystemCreated)
	}
	if picked == nil {
		return nil
	}

	// Offsets shift the wall clock.
	out := types.WallClock(*picked)
	if cfg.OffsetHours != 0 {
		out = out.Add(time.Duration(cfg.OffsetHours) * time.Hour)
	}
	return &out
}

func earliest(dates ...*time.Time) *time.Time {
	var first *time.Time
	for _, d := range dates {
		if d == nil {
			continue
		}
		if first == nil || d.Before(*first) {
			first = d
		}
	}
	return first
}

// DeriveFilename formats d with the configured template between prefix and
// suffix and appends ext unchanged. It returns "" when renaming is disabled
// or there is no date.
func DeriveFilename(d *time.Time, ext string, cfg types.RenameConfig) string {
	if !cfg.Enabled || d == nil {
		return ""
	}
	layout, ok := layouts[cfg.Template]
	if !ok {
		layout = layouts[types.TemplateCompactDateTime]
	}
	return cfg.Prefix + d.Format(layout) + cfg.Suffix + ext
}

// Apply recomputes the proposal of rec. Stale values are replaced, so calling
// it again with the same configuration yields the same result. Records that
// are already final are left alone.
func Apply(rec *types.FileRecord, cfg types.RuleConfig) {
	if rec.IsFinal() {
		return
	}
	rec.ProposedDate = Resolve(CandidatesOf(rec), cfg)
	rec.ProposedFilename = DeriveFilename(rec.ProposedDate, originalExt(rec), cfg.Rename)
}

// originalExt keeps the extension exactly as it appears in the filename.
func originalExt(rec *types.FileRecord) string {
	n := len(rec.Filename) - len(rec.Extension)
	if n >= 0 && len(rec.Extension) > 0 {
		return rec.Filename[n:]
	}
	return rec.Extension
}
