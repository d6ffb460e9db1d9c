package main

import (
	"fmt"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/config"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
	"github.com/spf13/cobra"
)

type options struct {
	cfgFile        string
	preset         string
	source         string
	recursive      bool
	preferEmbedded bool
	preferFilename bool
	useEarliest    bool
	manualDate     string
	offsetHours    int
	rename         bool
	dateFormat     string
	prefix         string
	suffix         string
	outputDir      string
	conflictPolicy string
	hashVerify     bool
	logFile        string
	logJSON        bool
	jsonOut        bool
}

var opts options

// addInputFlags registers the flags shared by every command that reads files.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	f.StringVarP(&opts.preset, "preset", "p", "", "apply a saved rule preset")
	f.StringVarP(&opts.source, "source", "s", "", "source folder")
	f.BoolVarP(&opts.recursive, "recursive", "r", false, "include subfolders")
	f.BoolVar(&opts.jsonOut, "json", false, "print records as JSON")
}

// addRuleFlags registers the rule and relocation flags.
func addRuleFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&opts.preferEmbedded, "prefer-embedded", true, "use the embedded capture date first")
	f.BoolVar(&opts.preferFilename, "prefer-filename", true, "use the date found in the filename")
	f.BoolVar(&opts.useEarliest, "use-earliest", false, "fall back to the earliest candidate date")
	f.StringVar(&opts.manualDate, "manual-date", "", "force this date (YYYY-MM-DD HH:MM:SS)")
	f.IntVar(&opts.offsetHours, "offset", 0, "shift the chosen date by this many hours (-24..24)")
	f.BoolVar(&opts.rename, "rename", false, "rename files after the chosen date")
	f.StringVar(&opts.dateFormat, "date-format", "", "rename template: compact-datetime, datetime, compact-date, date")
	f.StringVar(&opts.prefix, "prefix", "", "filename prefix when renaming")
	f.StringVar(&opts.suffix, "suffix", "", "filename suffix when renaming")
	f.StringVarP(&opts.outputDir, "output", "o", "", "copy results to this folder instead of modifying in place")
	f.StringVar(&opts.conflictPolicy, "conflict", "", "conflict policy: fail, rename, overwrite")
	f.BoolVar(&opts.hashVerify, "hash-verify", false, "verify copies with sha256")
	f.StringVar(&opts.logFile, "log-file", "", "log file path")
	f.BoolVar(&opts.logJSON, "log-json", false, "also write JSON log lines")
}

// buildConfig loads and validates the configuration of a command that reads
// files.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfig layers the config file, then the preset, then explicitly set
// flags and positional paths.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if opts.cfgFile != "" {
		cfg, err = config.LoadFromFile(opts.cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if opts.preset != "" {
		pm, err := config.NewPresetManager()
		if err != nil {
			return nil, err
		}
		preset, err := pm.LoadPreset(opts.preset)
		if err != nil {
			return nil, err
		}
		config.ApplyPreset(cfg, preset)
	}

	f := cmd.Flags()
	if opts.source != "" {
		cfg.Source = opts.source
	}
	if len(args) > 0 {
		cfg.Files = args
	}
	if f.Changed("recursive") {
		cfg.Recursive = opts.recursive
	}
	if f.Lookup("prefer-embedded") != nil {
		if f.Changed("prefer-embedded") {
			cfg.PreferEmbedded = opts.preferEmbedded
		}
		if f.Changed("prefer-filename") {
			cfg.PreferFilename = opts.preferFilename
		}
		if f.Changed("use-earliest") {
			cfg.UseEarliest = opts.useEarliest
		}
		if f.Changed("manual-date") {
			cfg.ManualDate = opts.manualDate
		}
		if f.Changed("offset") {
			cfg.OffsetHours = opts.offsetHours
		}
		if f.Changed("rename") {
			cfg.EnableRename = opts.rename
		}
		if opts.dateFormat != "" {
			cfg.DateFormat = types.DateTemplate(opts.dateFormat)
		}
		if f.Changed("prefix") {
			cfg.FilenamePrefix = opts.prefix
		}
		if f.Changed("suffix") {
			cfg.FilenameSuffix = opts.suffix
		}
		if opts.outputDir != "" {
			cfg.OutputDir = opts.outputDir
		}
		if opts.conflictPolicy != "" {
			cfg.ConflictPolicy = types.ConflictPolicy(opts.conflictPolicy)
		}
		if opts.hashVerify {
			cfg.HashVerify = true
		}
		if opts.logFile != "" {
			cfg.LogFile = opts.logFile
		}
		if opts.logJSON {
			cfg.LogJSON = true
		}
	}

	return cfg, nil
}
