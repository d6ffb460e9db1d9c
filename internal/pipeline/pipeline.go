// Package pipeline ties the reader, rule engine, relocation and writer into
// the analyze, apply-rules and commit steps of a batch.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/config"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/filename"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/log"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/metadata"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/planner"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/relocate"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/rules"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/scanner"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/writer"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

const dateLayout = "2006-01-02 15:04:05"

type Pipeline struct {
	cfg              *config.Config
	rules            types.RuleConfig
	scanner          *scanner.Scanner
	reader           *metadata.Reader
	names            *filename.Extractor
	planner          *planner.Planner
	relocator        *relocate.Relocator
	writer           *writer.Writer
	logger           *log.Logger
	ownsLogger       bool
	progressCallback ProgressCallback
}

// New builds a pipeline with its own logger writing to cfg.LogFile.
func New(cfg *config.Config) (*Pipeline, error) {
	logger, err := log.New(cfg.LogFile, cfg.LogJSON, true)
	if err != nil {
		return nil, err
	}
	p := NewWithLogger(cfg, logger)
	p.ownsLogger = true
	return p, nil
}

// NewWithLogger builds a pipeline that shares logger. Close leaves it open.
func NewWithLogger(cfg *config.Config, logger *log.Logger) *Pipeline {
	if _, err := cfg.ParseManualDate(); err != nil {
		logger.Warn("Ignoring invalid manual date '" + cfg.ManualDate + "': " + err.Error())
	}

	return &Pipeline{
		cfg:       cfg,
		rules:     cfg.Rules(),
		scanner:   scanner.Default(cfg.Recursive),
		reader:    metadata.New(),
		names:     filename.New(),
		planner:   planner.New(cfg.OutputDir),
		relocator: relocate.New(cfg.ConflictPolicy, cfg.HashVerify),
		writer:    writer.New(),
		logger:    logger,
	}
}

func (p *Pipeline) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

func (p *Pipeline) notify(update ProgressUpdate) {
	if p.progressCallback != nil {
		p.progressCallback(update)
	}
}

// Scan lists the supported files of the configured folder and file list.
func (p *Pipeline) Scan() ([]string, error) {
	paths, err := p.scanner.ScanPaths(p.cfg.Inputs())
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return paths, nil
}

// Analyze reads every candidate date of path. Resolution fields stay empty.
func (p *Pipeline) Analyze(path string) types.FileRecord {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	name := filepath.Base(path)
	dates := p.reader.ReadDates(path)

	rec := types.FileRecord{
		Path:                  path,
		Filename:              name,
		Extension:             strings.ToLower(filepath.Ext(name)),
		EmbeddedCaptureDate:   dates.CaptureDate,
		EmbeddedDigitizedDate: dates.DigitizedDate,
		EmbeddedModifiedDate:  dates.ModifiedDate,
		FilenameDate:          p.names.Extract(name),
		Status:                types.StatusPending,
	}
	if !dates.FilesystemCreated.IsZero() {
		created := dates.FilesystemCreated
		rec.FilesystemCreated = &created
	}
	if !dates.FilesystemModified.IsZero() {
		modified := dates.FilesystemModified
		rec.FilesystemModified = &modified
	}
	return rec
}

// ApplyRules resolves the proposal of rec. Safe to call repeatedly.
func (p *Pipeline) ApplyRules(rec *types.FileRecord) {
	rules.Apply(rec, p.rules)
}

// Commit relocates rec and writes its proposed date, or only describes the
// outcome when dryRun is set. A write failure undoes the relocation.
func (p *Pipeline) Commit(rec *types.FileRecord, dryRun bool) {
	if rec.IsFinal() {
		return
	}
	if rec.ProposedDate == nil {
		rec.Status = types.StatusSkipped
		rec.Message = "No proposed date"
		return
	}

	date := *rec.ProposedDate
	target := p.planner.Plan(rec)

	if dryRun {
		rec.Status = types.StatusDryRun
		rec.Message = "Would set date to " + date.Format(dateLayout)
		if target.Action != types.RelocateNone {
			rec.Message += fmt.Sprintf(" (%s to %s)", target.Action, target.Dest)
		}
		return
	}

	res, err := p.relocator.Relocate(target)
	if err != nil {
		rec.Status = types.StatusError
		rec.Message = "Relocation failed: " + err.Error()
		return
	}

	if err := p.writer.WriteDate(res.Path, date); err != nil {
		if rbErr := p.relocator.Rollback(res); rbErr != nil {
			p.logger.Error("Rollback failed for '"+res.Path+"'", rbErr)
		}
		rec.Status = types.StatusError
		rec.Message = "Write failed: " + err.Error()
		return
	}

	if err := p.relocator.Finalize(res); err != nil {
		p.logger.Warn("Failed to remove replaced file for '" + res.Path + "': " + err.Error())
	}

	rec.Path = res.Path
	rec.Filename = filepath.Base(res.Path)
	rec.Status = types.StatusProcessed
	rec.Message = "Date set to " + date.Format(dateLayout)
}

// Process runs analyze, apply-rules and commit for one file.
func (p *Pipeline) Process(path string, dryRun bool) types.FileRecord {
	rec := p.Analyze(path)
	p.ApplyRules(&rec)
	p.Commit(&rec, dryRun)
	return rec
}

// Preview analyzes paths and resolves their proposals without touching them.
func (p *Pipeline) Preview(ctx context.Context, paths []string) ([]types.FileRecord, error) {
	records := make([]types.FileRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		records = append(records, p.Process(path, true))
	}
	return records, nil
}

// Run commits paths one at a time in order. Cancellation is checked between
// files and a failed file never stops the batch.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*types.RunSummary, error) {
	startTime := time.Now()
	summary := &types.RunSummary{
		TotalFiles: len(paths),
		StartTime:  startTime,
	}

	mode := "apply"
	if p.cfg.DryRun {
		mode = "dry run"
	}
	p.logger.Info("Starting " + mode + " of " + strconv.Itoa(len(paths)) + " files")
	p.notify(ProgressUpdate{
		Type:    "status",
		Message: "Processing files...",
		Total:   len(paths),
	})

	var runErr error
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = true
			runErr = err
			p.logger.Warn("Run cancelled after " + strconv.Itoa(i) + " files")
			break
		}

		fileStart := time.Now()
		rec := p.Process(path, p.cfg.DryRun)
		summary.Add(&rec)

		p.logger.LogRecord(rec, time.Since(fileStart))
		p.logger.Progress(i+1, len(paths), rec.Filename)
		p.notify(ProgressUpdate{
			Type:     "progress",
			Current:  i + 1,
			Total:    len(paths),
			Filename: rec.Filename,
			Status:   rec.Status,
			Message:  rec.Message,
		})
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(startTime)
	p.logger.Summary(*summary)

	update := ProgressUpdate{Type: "complete", Summary: summary}
	if runErr != nil {
		update.Error = runErr.Error()
	}
	p.notify(update)

	return summary, runErr
}

func (p *Pipeline) Close() error {
	if !p.ownsLogger {
		return nil
	}
	return p.logger.Close()
}
