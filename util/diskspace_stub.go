//go:build !linux && !freebsd && !dragonfly && !netbsd && !openbsd && !darwin

package util

import "fmt"

// FreeDiskSpace is not supported on this platform.
func FreeDiskSpace(path string) (uint64, error) {
	return 0, fmt.Errorf("disk space probing not supported on this platform")
}
