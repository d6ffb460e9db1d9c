package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/config"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/log"
	"github.com/Fahad-codecraft/exif-date-fixer/internal/pipeline"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
	"github.com/spf13/cobra"
)

const displayLayout = "2006-01-02 15:04:05"

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "List supported files with every candidate date",
	RunE:  runScan,
}

var previewCmd = &cobra.Command{
	Use:   "preview [files...]",
	Short: "Show the date and name each file would get, without changing anything",
	RunE:  runPreview,
}

var applyCmd = &cobra.Command{
	Use:   "apply [files...]",
	Short: "Write the chosen dates (and renames) to the files",
	RunE:  runApply,
}

var applyDryRun bool

func init() {
	addInputFlags(scanCmd)

	addInputFlags(previewCmd)
	addRuleFlags(previewCmd)

	addInputFlags(applyCmd)
	addRuleFlags(applyCmd)
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "simulate without writing")
}

func quietPipeline(cfg *config.Config) *pipeline.Pipeline {
	return pipeline.NewWithLogger(cfg, log.NewConsole(io.Discard))
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	p := quietPipeline(cfg)
	paths, err := p.Scan()
	if err != nil {
		return err
	}

	records := make([]types.FileRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, p.Analyze(path))
	}

	if opts.jsonOut {
		return writeJSON(cmd.OutOrStdout(), records)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCAPTURE\tDIGITIZED\tMODIFIED\tFILENAME\tFS CREATED\tFS MODIFIED")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Filename,
			formatDate(rec.EmbeddedCaptureDate),
			formatDate(rec.EmbeddedDigitizedDate),
			formatDate(rec.EmbeddedModifiedDate),
			formatDate(rec.FilenameDate),
			formatDate(rec.FilesystemCreated),
			formatDate(rec.FilesystemModified),
		)
	}
	return tw.Flush()
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	p := quietPipeline(cfg)
	paths, err := p.Scan()
	if err != nil {
		return err
	}

	records, err := p.Preview(cmd.Context(), paths)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return writeJSON(cmd.OutOrStdout(), records)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tPROPOSED\tNEW NAME\tSTATUS\tMESSAGE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Filename,
			formatDate(rec.ProposedDate),
			orDash(rec.ProposedFilename),
			rec.Status,
			rec.Message,
		)
	}
	return tw.Flush()
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if applyDryRun {
		cfg.DryRun = true
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	paths, err := p.Scan()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary, err := p.Run(ctx, paths)
	if err != nil {
		if err == context.Canceled {
			return fmt.Errorf("cancelled after %d of %d files", summary.Processed+summary.DryRun+summary.Skipped+summary.Failed, summary.TotalFiles)
		}
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed, see %s", summary.Failed, summary.TotalFiles, cfg.LogFile)
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(displayLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
