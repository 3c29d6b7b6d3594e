//go:build !unix

package cli

import "os"

func defaultBufferSize() int {
	return 16 * os.Getpagesize()
}
