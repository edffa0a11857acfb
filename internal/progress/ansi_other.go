//go:build !windows

package progress

import "os"

func enableANSI(f *os.File) {}
