//go:build linux
// +build linux

// File: internal/shm/segment_linux.go
// Author: momentics <momentics@gmail.com>
//
// memfd-backed segments.

package shm

import (
	"errors"

	"golang.org/x/sys/unix"
)

func createPlatform(name string, size int) (int, []byte, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return -1, nil, err
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	return fd, data, nil
}

func releasePlatform(fd int, data []byte) error {
	var errs []error
	if data != nil {
		if err := unix.Munmap(data); err != nil {
			errs = append(errs, err)
		}
	}
	if fd >= 0 {
		if err := unix.Close(fd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MapFD maps an existing segment handle, the way a consumer holding the
// descriptor would. The caller unmaps the result with Unmap.
func MapFD(fd, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// Unmap releases a view returned by MapFD.
func Unmap(b []byte) error {
	return unix.Munmap(b)
}
