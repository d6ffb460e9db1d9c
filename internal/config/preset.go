package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

// PresetManager manages rule presets.
type PresetManager struct {
	presetsDir string
}

// NewPresetManager creates a new preset manager.
func NewPresetManager() (*PresetManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewPresetManagerAt(filepath.Join(homeDir, ".datefixer", "presets"))
}

// NewPresetManagerAt stores presets under dir.
func NewPresetManagerAt(dir string) (*PresetManager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets directory: %w", err)
	}
	return &PresetManager{presetsDir: dir}, nil
}

// validatePresetName keeps preset names usable as plain file names.
func validatePresetName(name string) error {
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("preset name too long (max 128 characters)")
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) || name == "." || name == ".." {
		return fmt.Errorf("preset name contains invalid characters: %s", name)
	}
	return nil
}

// ConfigToPreset converts the rule part of a Config to a RulePreset.
func ConfigToPreset(cfg *Config, name, description string) *types.RulePreset {
	return &types.RulePreset{
		Name:           name,
		Description:    description,
		PreferEmbedded: cfg.PreferEmbedded,
		PreferFilename: cfg.PreferFilename,
		UseEarliest:    cfg.UseEarliest,
		ManualDate:     cfg.ManualDate,
		OffsetHours:    cfg.OffsetHours,
		EnableRename:   cfg.EnableRename,
		DateFormat:     cfg.DateFormat,
		FilenamePrefix: cfg.FilenamePrefix,
		FilenameSuffix: cfg.FilenameSuffix,
		OutputDir:      cfg.OutputDir,
		ConflictPolicy: cfg.ConflictPolicy,
		CreatedAt:      time.Now(),
	}
}

// ApplyPreset copies the preset's rule settings onto cfg, leaving inputs,
// logging and run mode untouched.
func ApplyPreset(cfg *Config, preset *types.RulePreset) {
	cfg.PreferEmbedded = preset.PreferEmbedded
	cfg.PreferFilename = preset.PreferFilename
	cfg.UseEarliest = preset.UseEarliest
	cfg.ManualDate = preset.ManualDate
	cfg.OffsetHours = preset.OffsetHours
	cfg.EnableRename = preset.EnableRename
	cfg.DateFormat = preset.DateFormat
	cfg.FilenamePrefix = preset.FilenamePrefix
	cfg.FilenameSuffix = preset.FilenameSuffix
	cfg.OutputDir = preset.OutputDir
	cfg.ConflictPolicy = preset.ConflictPolicy
}

// SavePreset saves a preset to disk.
func (pm *PresetManager) SavePreset(preset *types.RulePreset) error {
	if err := validatePresetName(preset.Name); err != nil {
		return err
	}

	filename := filepath.Join(pm.presetsDir, preset.Name+".json")
	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	return nil
}

// LoadPreset loads a preset from disk.
func (pm *PresetManager) LoadPreset(name string) (*types.RulePreset, error) {
	if err := validatePresetName(name); err != nil {
		return nil, err
	}

	filename := filepath.Join(pm.presetsDir, name+".json")
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset types.RulePreset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}

	return &preset, nil
}

// DeletePreset deletes a preset from disk.
func (pm *PresetManager) DeletePreset(name string) error {
	if err := validatePresetName(name); err != nil {
		return err
	}

	filename := filepath.Join(pm.presetsDir, name+".json")
	if err := os.Remove(filename); err != nil {
		return fmt.Errorf("failed to delete preset file: %w", err)
	}
	return nil
}

// ListPresets lists all available presets sorted by name.
func (pm *PresetManager) ListPresets() ([]types.RulePreset, error) {
	entries, err := os.ReadDir(pm.presetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets directory: %w", err)
	}

	var presets []types.RulePreset
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		preset, err := pm.LoadPreset(name)
		if err != nil {
			continue // Skip invalid presets
		}
		presets = append(presets, *preset)
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}
