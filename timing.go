// FILE: lixenwraith/settings/timing.go
package settings

import "time"

// Timing constants for the configuration file watcher.
const (
	// SpinWaitInterval is the CPU-friendly busy-wait quantum used while
	// waiting for the watch loop to terminate.
	SpinWaitInterval = 5 * time.Millisecond
	// MinPollInterval is the hard floor for file stat polling.
	MinPollInterval = 100 * time.Millisecond
	// ShutdownTimeout bounds graceful watcher termination.
	ShutdownTimeout = 100 * time.Millisecond
	// DefaultDebounce coalesces rapid file changes into one reparse.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultPollInterval is the standard file monitoring frequency.
	DefaultPollInterval = time.Second
)
