// Package relocate moves or copies a file to its planned destination and can
// undo that step when the later metadata write fails.
package relocate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/planner"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

var ErrDestinationExists = errors.New("destination already exists")

// Result records what Relocate did, which is what Rollback undoes.
type Result struct {
	Action types.RelocateAction
	Source string
	// Path is where the file to be written now lives.
	Path string
	// backup holds a file displaced by an overwrite until Finalize.
	backup string
}

type Relocator struct {
	policy     types.ConflictPolicy
	hashVerify bool
}

func New(policy types.ConflictPolicy, hashVerify bool) *Relocator {
	if policy == "" {
		policy = types.ConflictPolicyFail
	}
	return &Relocator{policy: policy, hashVerify: hashVerify}
}

// Relocate carries out target. On error the source is left where it was and
// no partial destination remains.
func (r *Relocator) Relocate(target planner.Target) (Result, error) {
	res := Result{Action: target.Action, Source: target.Source, Path: target.Source}
	if target.Action == types.RelocateNone {
		return res, nil
	}

	dest, backup, err := r.resolveConflict(target.Source, target.Dest)
	if err != nil {
		return res, err
	}

	switch target.Action {
	case types.RelocateCopied:
		err = r.copyFile(target.Source, dest)
	case types.RelocateRenamed:
		err = os.Rename(target.Source, dest)
	default:
		err = fmt.Errorf("unknown relocate action %q", target.Action)
	}
	if err != nil {
		return res, errors.Join(err, restoreBackup(backup, dest))
	}

	res.Path = dest
	res.backup = backup
	return res, nil
}

// Rollback reverses a successful Relocate: a copy is removed, a rename is
// undone, and any overwritten destination is put back.
func (r *Relocator) Rollback(res Result) error {
	var err error
	switch res.Action {
	case types.RelocateCopied:
		if rmErr := os.Remove(res.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = rmErr
		}
	case types.RelocateRenamed:
		err = os.Rename(res.Path, res.Source)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("rollback %s: %w", res.Path, err)
	}
	return restoreBackup(res.backup, res.Path)
}

// Finalize discards the backup of an overwritten destination.
func (r *Relocator) Finalize(res Result) error {
	if res.backup == "" {
		return nil
	}
	return os.Remove(res.backup)
}

func restoreBackup(backup, dest string) error {
	if backup == "" {
		return nil
	}
	if err := os.Rename(backup, dest); err != nil {
		return fmt.Errorf("restore %s from backup: %w", dest, err)
	}
	return nil
}

// resolveConflict applies the conflict policy when dest is taken by another
// file. An overwrite moves the existing file aside so it can be restored.
func (r *Relocator) resolveConflict(src, dest string) (string, string, error) {
	destInfo, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return dest, "", nil
	}
	if err != nil {
		return "", "", err
	}
	// case-only renames on case-insensitive filesystems hit the source itself
	if srcInfo, err := os.Stat(src); err == nil && os.SameFile(srcInfo, destInfo) {
		return dest, "", nil
	}

	switch r.policy {
	case types.ConflictPolicyRename:
		unique, ok := generateUniqueName(dest)
		if !ok {
			return "", "", fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		}
		return unique, "", nil

	case types.ConflictPolicyOverwrite:
		if destInfo.IsDir() {
			return "", "", fmt.Errorf("%w: %s is a directory", ErrDestinationExists, dest)
		}
		backup := dest + ".replaced"
		if err := os.Rename(dest, backup); err != nil {
			return "", "", err
		}
		return dest, backup, nil

	default:
		return "", "", fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
}

func generateUniqueName(path string) (string, bool) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(path)
	base = base[:len(base)-len(ext)]

	for i := 1; i < 10000; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath, true
		}
	}
	return "", false
}
