//go:build !linux && !darwin && !windows

package metadata

import (
	"os"
	"time"
)

// birthTime is unavailable here; callers fall back to the modification time.
func birthTime(string, os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
