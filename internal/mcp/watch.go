package mcp

import (
	"context"
	"os"
	"time"

	"github.com/julianshen/unityctx/internal/logging"
)

// DefaultWatchInterval is how often WatchParent polls the parent pid.
const DefaultWatchInterval = 2 * time.Second

// WatchParent monitors for parent process death in a background goroutine.
// When the parent pid changes (the MCP client exited), it calls cancelFn so
// the server shuts down instead of lingering as an orphan.
//
// It must NOT read from stdin: the SDK's StdioTransport owns stdin
// exclusively and stolen bytes would corrupt the JSON-RPC stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, interval time.Duration, cancelFn context.CancelFunc) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ppid := os.Getppid()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process exited, shutting down", "parent_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
