// Package shm
// Author: momentics <momentics@gmail.com>
//
// Shareable memory segments backing the overlay buffer pool.
//
// On Linux a segment is a memfd sized with ftruncate and mapped MAP_SHARED, so
// any party holding the descriptor maps the same physical pages. Other unix
// systems get an anonymous shared mapping without a handle. Platforms without
// mmap report api.ErrNotSupported.
package shm
