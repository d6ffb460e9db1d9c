// Package planner decides where a committed file ends up.
package planner

import (
	"path/filepath"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

// Target is the relocation planned for one record.
type Target struct {
	Source string
	Dest   string
	Action types.RelocateAction
}

// Planner maps records to their destination path. An empty output directory
// means files stay in their source folder.
type Planner struct {
	outputDir string
}

func New(outputDir string) *Planner {
	if outputDir != "" {
		if abs, err := filepath.Abs(outputDir); err == nil {
			outputDir = abs
		}
	}
	return &Planner{outputDir: outputDir}
}

// Plan returns the destination for rec: the output directory (or the source
// folder) joined with the proposed filename (or the current one). A copy is
// planned when the folder changes, a rename when only the name changes.
func (p *Planner) Plan(rec *types.FileRecord) Target {
	srcDir := filepath.Dir(rec.Path)

	destDir := srcDir
	if p.outputDir != "" {
		destDir = p.outputDir
	}

	name := rec.Filename
	if rec.ProposedFilename != "" {
		name = rec.ProposedFilename
	}

	t := Target{
		Source: rec.Path,
		Dest:   filepath.Join(destDir, name),
	}

	switch {
	case filepath.Clean(destDir) != filepath.Clean(srcDir):
		t.Action = types.RelocateCopied
	case t.Dest != filepath.Clean(rec.Path):
		t.Action = types.RelocateRenamed
	default:
		t.Action = types.RelocateNone
	}
	return t
}
