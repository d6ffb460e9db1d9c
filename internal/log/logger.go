package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	logJSON bool
	logText bool
}

func New(logFilePath string, logJSON, logText bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		console: os.Stdout,
		file:    file,
		logJSON: logJSON,
		logText: logText,
	}, nil
}

// NewConsole returns a logger that only writes progress and summaries to w.
func NewConsole(w io.Writer) *Logger {
	return &Logger{console: w}
}

// SetConsole redirects progress and summary output.
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

type LogEntry struct {
	Timestamp    time.Time          `json:"timestamp"`
	Level        string             `json:"level"`
	Message      string             `json:"message"`
	Path         string             `json:"path,omitempty"`
	Status       types.RecordStatus `json:"status,omitempty"`
	ProposedDate string             `json:"proposed_date,omitempty"`
	NewName      string             `json:"new_name,omitempty"`
	Error        string             `json:"error,omitempty"`
	Duration     time.Duration      `json:"duration,omitempty"`
}

// LogRecord writes one entry for a committed record.
func (l *Logger) LogRecord(rec types.FileRecord, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   fmt.Sprintf("%s: %s", rec.Status, rec.Filename),
		Path:      rec.Path,
		Status:    rec.Status,
		NewName:   rec.ProposedFilename,
		Duration:  duration,
	}
	if rec.ProposedDate != nil {
		entry.ProposedDate = rec.ProposedDate.Format(timeLayout)
	}
	if rec.Message != "" {
		entry.Message += " (" + rec.Message + ")"
	}

	if rec.Status == types.StatusError {
		entry.Level = "ERROR"
		entry.Error = rec.Message
	}

	l.writeEntry(entry)
}

func (l *Logger) Info(msg string) {
	l.log("INFO", msg, "")
}

func (l *Logger) Warn(msg string) {
	l.log("WARN", msg, "")
}

func (l *Logger) Error(msg string, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	l.log("ERROR", msg, errText)
}

func (l *Logger) log(level, msg, errText string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writeEntry(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Error:     errText,
	})
}

func (l *Logger) writeEntry(entry LogEntry) {
	if l.file == nil {
		return
	}

	if l.logJSON {
		data, _ := json.Marshal(entry)
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}

	if l.logText {
		line := fmt.Sprintf("[%s] %s %s", entry.Timestamp.Format(timeLayout), entry.Level, entry.Message)
		if entry.Error != "" && entry.Error != entry.Message {
			line += " - Error: " + entry.Error
		}
		l.file.WriteString(line + "\n")
	}
}

func (l *Logger) Summary(summary types.RunSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, "\n=== Date Fixer Summary ===")
	fmt.Fprintf(l.console, "Total files:    %d\n", summary.TotalFiles)
	fmt.Fprintf(l.console, "Processed:      %d\n", summary.Processed)
	fmt.Fprintf(l.console, "Dry run:        %d\n", summary.DryRun)
	fmt.Fprintf(l.console, "Skipped:        %d\n", summary.Skipped)
	fmt.Fprintf(l.console, "Failed:         %d\n", summary.Failed)
	if summary.Cancelled {
		fmt.Fprintln(l.console, "Cancelled:      yes")
	}
	fmt.Fprintf(l.console, "Duration:       %s\n", summary.Duration.Round(time.Millisecond))
	fmt.Fprintln(l.console, "==========================")
}

func (l *Logger) Progress(current, total int, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filename)
}
