package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel f is read front to back once, which
// enlarges read-ahead. Failure only costs performance.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
