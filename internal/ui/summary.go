package ui

import (
	"fmt"

	"github.com/jottr/shift/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 48,917  size 2.1 GiB  avg 641 MB/s  time 3m 17s  errors 0
func completionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesTransferred) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.FilesFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.FilesDone()),
		FormatBytes(snap.BytesTransferred),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.FilesHardlinked > 0 {
		base += fmt.Sprintf("  hardlinked %s", FormatCount(snap.FilesHardlinked))
	}
	if snap.CopyRetries > 0 {
		base += fmt.Sprintf("  retries %d", snap.CopyRetries)
	}

	base += fmt.Sprintf("  errors %d", snap.FilesFailed)

	return base
}
