//go:build unix

package cli

import "golang.org/x/sys/unix"

// defaultBufferSize is the initial per-input buffer capacity.
func defaultBufferSize() int {
	return 16 * unix.Getpagesize()
}
