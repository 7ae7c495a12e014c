package billing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var fallbackMu sync.Mutex
var lastFallback int64

// fallbackStamp returns the current epoch milliseconds, bumped when needed
// so two fallback numbers issued in the same millisecond stay distinct.
func fallbackStamp() int64 {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= lastFallback {
		now = lastFallback + 1
	}
	lastFallback = now
	return now
}

// GenerateNumber produces the next human-readable number for a document
// kind, e.g. EST-0042. When the sequence provider is unavailable it falls
// back to a time-based identifier instead of failing: document creation
// must never block on numbering.
func GenerateNumber(ctx context.Context, seq Sequencer, kind Kind) string {
	n, err := seq.Next(ctx, kind)
	if err != nil {
		slog.Warn("sequence provider unavailable, using time-based number",
			"kind", kind, "error", err)
		return fmt.Sprintf("%s-%d", kind.Prefix(), fallbackStamp())
	}
	return fmt.Sprintf("%s-%04d", kind.Prefix(), n)
}
