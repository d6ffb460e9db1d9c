package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/config"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/log"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/pipeline"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/scanner"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ValidationError{
		Field:   field,
		Message: message,
	})
}

// writeConfigError maps config validation failures to 400 and anything else
// to 500.
func writeConfigError(w http.ResponseWriter, err error) {
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) {
		writeValidationError(w, validationErr.Field, validationErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, err.Error())
}

func writeFSError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, os.ErrNotExist):
		writeAPIError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, os.ErrPermission):
		writeAPIError(w, http.StatusForbidden, err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeConfig overlays the request body on the default configuration.
func decodeConfig(r *http.Request) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// previewPipeline never writes, so it logs nowhere.
func previewPipeline(cfg *config.Config) *pipeline.Pipeline {
	return pipeline.NewWithLogger(cfg, log.NewConsole(io.Discard))
}

type BrowseResponse struct {
	Path    string     `json:"path"`
	Entries []DirEntry `json:"entries"`
	Error   string     `json:"error,omitempty"`
}

type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// handleBrowse lists the folders and supported media files of a directory.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = homeDir
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		writeFSError(w, err)
		return
	}

	media := scanner.Default(false)
	dirEntries := []DirEntry{}
	for _, entry := range entries {
		if entry.Name()[0] == '.' {
			continue
		}
		if !entry.IsDir() && !media.Supported(entry.Name()) {
			continue
		}
		dirEntries = append(dirEntries, DirEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(path, entry.Name()),
			IsDir: entry.IsDir(),
		})
	}

	writeJSON(w, BrowseResponse{
		Path:    path,
		Entries: dirEntries,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, config.DefaultConfig())
}

type RecordsResponse struct {
	Records []types.FileRecord `json:"records"`
}

// handleAnalyze scans the configured inputs and returns one record per file
// with its candidate dates.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeConfig(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeConfigError(w, err)
		return
	}

	p := previewPipeline(cfg)
	paths, err := p.Scan()
	if err != nil {
		writeFSError(w, err)
		return
	}

	records := make([]types.FileRecord, 0, len(paths))
	for _, path := range paths {
		if r.Context().Err() != nil {
			return
		}
		records = append(records, p.Analyze(path))
	}
	writeJSON(w, RecordsResponse{Records: records})
}

type PreviewRequest struct {
	Config  config.Config      `json:"config"`
	Records []types.FileRecord `json:"records"`
}

// handlePreview re-resolves already analyzed records under a new rule
// configuration and describes what a commit would do.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req := PreviewRequest{Config: *config.DefaultConfig()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Config.ValidateRules(); err != nil {
		writeConfigError(w, err)
		return
	}

	p := previewPipeline(&req.Config)
	for i := range req.Records {
		rec := &req.Records[i]
		if !rec.IsFinal() {
			rec.Status = types.StatusPending
			rec.Message = ""
		}
		p.ApplyRules(rec)
		p.Commit(rec, true)
	}
	if req.Records == nil {
		req.Records = []types.FileRecord{}
	}
	writeJSON(w, RecordsResponse{Records: req.Records})
}

func (s *Server) setCancel(cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	s.cancelRun = cancel
}

// handleRun validates the configuration and commits every scanned file in
// the background. Progress goes out over the websocket hub.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.runMu.TryLock() {
		writeAPIError(w, http.StatusConflict, "run already in progress")
		return
	}

	cfg, err := decodeConfig(r)
	if err != nil {
		s.runMu.Unlock()
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := cfg.Validate(); err != nil {
		s.runMu.Unlock()
		writeConfigError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.setCancel(cancel)

	writeJSON(w, map[string]string{"status": "started"})

	go func() {
		defer s.runMu.Unlock()
		defer s.setCancel(nil)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: fmt.Sprintf("Internal Server Error: %v", r)})
			}
		}()

		p, err := pipeline.New(cfg)
		if err != nil {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
			return
		}
		defer p.Close()

		p.SetProgressCallback(s.broadcastProgress)

		paths, err := p.Scan()
		if err != nil {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
			return
		}

		if _, err := p.Run(ctx, paths); err != nil && !errors.Is(err, context.Canceled) {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
		}
	}()
}

// handleCancel stops the running batch before its next file.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !s.cancelActiveRun() {
		writeAPIError(w, http.StatusConflict, "no run in progress")
		return
	}
	writeJSON(w, map[string]string{"status": "cancelling"})
}

func (s *Server) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.hub.broadcast <- data
}

func (s *Server) broadcastProgress(update pipeline.ProgressUpdate) {
	s.broadcastJSON(update)
}

// Preset-related handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	presets, err := pm.ListPresets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if presets == nil {
		presets = []types.RulePreset{}
	}

	writeJSON(w, presets)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Config      config.Config `json:"config"`
	}{Config: *config.DefaultConfig()}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}
	if err := req.Config.ValidateRules(); err != nil {
		writeConfigError(w, err)
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preset := config.ConfigToPreset(&req.Config, req.Name, req.Description)
	if err := pm.SavePreset(preset); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// handleLoadPreset returns the default configuration with the preset applied.
func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preset, err := pm.LoadPreset(name)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}

	cfg := config.DefaultConfig()
	config.ApplyPreset(cfg, preset)
	writeJSON(w, cfg)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := pm.DeletePreset(name); err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// Version handler

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": s.version})
}
