// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed buffer slot pool for the overlay.
// One shared segment is carved into N equally sized slots at construction.
// Slots are claimed lowest index first and returned idempotently; the free
// counter always equals the number of free slots. See bufferpool.go.
package pool
