// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown releases a component's resources.
type GracefulShutdown interface {
	// Shutdown tears the component down. Calling it again is a no-op.
	Shutdown() error
}
