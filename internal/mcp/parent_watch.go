package mcp

import (
	"context"
	"os"
	"time"

	"argus/internal/logging"
)

// WatchParent monitors for parent process death in a background goroutine
// and calls cancelFn when the parent PID changes, so a disconnected host
// does not leave a zombie server behind.
//
// IMPORTANT: this must NOT read from stdin. The SDK's StdioTransport owns
// stdin exclusively; reading here would steal bytes and corrupt the
// JSON-RPC stream.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	logger := logging.New("mcp-watch")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
