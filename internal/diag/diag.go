// Package diag provides the periodic stats logger named in
// SPEC_FULL.md's ambient stack section, grounded on the teacher's
// debug.Monitor (connection/goroutine stats gated by an env var),
// generalized to this client's own Session and control.Server.
package diag

import (
	"context"
	"log"
	"os"
	"time"
)

// Enabled reports whether diagnostic logging is active.
func Enabled() bool {
	return os.Getenv("OKROS_DEBUG") == "1"
}

// StatsFunc returns a snapshot of engine state to log.
type StatsFunc func() Snapshot

// Snapshot is one logged diagnostic sample.
type Snapshot struct {
	BytesRead         uint64
	BytesWritten      uint64
	ScrollbackLines   int
	CommandQueueDepth int
	ControlSessions   int
	Connected         bool
}

// Monitor periodically logs Snapshot values to stderr when Enabled.
type Monitor struct {
	stats    StatsFunc
	interval time.Duration
	logger   *log.Logger
}

// NewMonitor returns a monitor that samples stats every interval, or
// nil if diagnostics are not enabled — callers should treat a nil
// *Monitor's Start as a no-op.
func NewMonitor(stats StatsFunc, interval time.Duration) *Monitor {
	if !Enabled() {
		return nil
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		stats:    stats,
		interval: interval,
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Start runs the logging loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil {
		return
	}
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Println("[diag] monitor started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Println("[diag] monitor stopped")
			return
		case <-ticker.C:
			s := m.stats()
			m.logger.Printf("conn=%v bytesRead=%d bytesWritten=%d scrollbackLines=%d cmdQueue=%d controlSessions=%d",
				s.Connected, s.BytesRead, s.BytesWritten, s.ScrollbackLines, s.CommandQueueDepth, s.ControlSessions)
		}
	}
}
