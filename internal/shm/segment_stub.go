//go:build !unix
// +build !unix

// File: internal/shm/segment_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without mmap.

package shm

import "github.com/momentics/hioload-overlay/api"

func createPlatform(_ string, _ int) (int, []byte, error) {
	return -1, nil, api.ErrNotSupported
}

func releasePlatform(_ int, _ []byte) error { return nil }

// MapFD is unavailable on this platform.
func MapFD(_, _ int) ([]byte, error) { return nil, api.ErrNotSupported }

// Unmap is a no-op on this platform.
func Unmap(_ []byte) error { return nil }
