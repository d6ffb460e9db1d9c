package relocate

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyFile copies src to dest through a .part file, keeping the source
// modification time, and verifies the result before the final rename.
func (r *Relocator) copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	partPath := dest + ".part"
	if err := r.atomicCopy(src, partPath, dest); err != nil {
		os.Remove(partPath)
		return err
	}
	return nil
}

func (r *Relocator) atomicCopy(src, partDest, finalDest string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(partDest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	_, err = io.Copy(dstFile, srcFile)
	if err == nil {
		err = dstFile.Sync()
	}
	if closeErr := dstFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	// Preserve modification time
	if err := os.Chtimes(partDest, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserve mtime: %w", err)
	}

	if err := r.verify(src, partDest, info.Size()); err != nil {
		return err
	}
	return os.Rename(partDest, finalDest)
}

func (r *Relocator) verify(srcPath, destPath string, expectedSize int64) error {
	destInfo, err := os.Stat(destPath)
	if err != nil {
		return fmt.Errorf("destination file not found: %w", err)
	}
	if destInfo.Size() != expectedSize {
		return fmt.Errorf("size mismatch: expected %d, got %d", expectedSize, destInfo.Size())
	}

	if !r.hashVerify {
		return nil
	}

	srcHash, err := hashFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to hash source: %w", err)
	}
	destHash, err := hashFile(destPath)
	if err != nil {
		return fmt.Errorf("failed to hash destination: %w", err)
	}
	if srcHash != destHash {
		return fmt.Errorf("hash mismatch: src=%s, dest=%s", srcHash, destHash)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
