//go:build !windows

package writer

// Creation time is read-only outside Windows.
func platformFS() Filesystem {
	return osFS{}
}
