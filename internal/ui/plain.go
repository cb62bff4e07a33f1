package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/jottr/shift/internal/stats"
)

// plainPresenter outputs one line per completed file to stdout, and
// periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	srcRoot string
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := StripRoot(p.srcRoot, ev.Path)
	switch ev.Type {
	case CountComplete:
		p.stats.SetTotals(ev.Total, ev.TotalSize)
	case FileCompleted:
		fmt.Fprintf(p.w, "%s  %s  %s\n", path, FormatBytes(ev.Size), ev.Achieved)
	case FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s  %s\n", path, FormatBytes(ev.Size), errMsg)
	case FileSkipped:
		fmt.Fprintf(p.w, "%s  skipped\n", path)
	case CopyRetried:
		fmt.Fprintf(p.errW, "retry %d: %s\n", ev.Attempt, path)
	case MoveFellBack:
		fmt.Fprintf(p.errW, "move fallback: %s\n", path)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesTransferred) / float64(snap.BytesTotal) * 100
		speed := p.stats.RollingSpeed(10)
		eta := p.stats.ETA()
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %s/%s files %s eta %s\n",
			pct,
			FormatBytes(snap.BytesTransferred), FormatBytes(snap.BytesTotal),
			FormatCount(snap.FilesDone()), FormatCount(snap.FilesTotal),
			FormatRate(speed),
			FormatETA(eta),
		)
	} else {
		fmt.Fprintf(p.errW, "progress: %s transferred %s files\n",
			FormatBytes(snap.BytesTransferred),
			FormatCount(snap.FilesDone()),
		)
	}
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}
