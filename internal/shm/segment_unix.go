//go:build unix && !linux
// +build unix,!linux

// File: internal/shm/segment_unix.go
// Author: momentics <momentics@gmail.com>
//
// Anonymous shared mappings for unix systems without memfd.

package shm

import (
	"github.com/momentics/hioload-overlay/api"
	"golang.org/x/sys/unix"
)

func createPlatform(_ string, size int) (int, []byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
	if err != nil {
		return -1, nil, err
	}
	return -1, data, nil
}

func releasePlatform(_ int, data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}

// MapFD is unavailable without a shareable handle.
func MapFD(_, _ int) ([]byte, error) {
	return nil, api.ErrNotSupported
}

// Unmap releases a view returned by MapFD.
func Unmap(b []byte) error {
	return unix.Munmap(b)
}
