package mosaic

import (
	"fmt"

	"github.com/hazemap/mosaic/internal/raster"
)

// ProgressStatus is the state of one window within a run.
type ProgressStatus string

const (
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted per window as the engine processes it. The
// callback runs synchronously on the worker that produced the event.
type ProgressEvent struct {
	Window  raster.Window
	Status  ProgressStatus
	Message string
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(ev ProgressEvent) string {
	switch ev.Status {
	case ProgressWorking:
		return fmt.Sprintf("  ● block %s...", ev.Window)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ block %s merged", ev.Window)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ block %s failed: %s", ev.Window, ev.Message)
	default:
		return fmt.Sprintf("  ? block %s (unknown status)", ev.Window)
	}
}
