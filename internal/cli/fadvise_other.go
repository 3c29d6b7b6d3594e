//go:build !linux

package cli

import "os"

func adviseSequential(*os.File) {}
