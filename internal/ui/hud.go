package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jottr/shift/internal/stats"
)

// Catppuccin Mocha palette.
var (
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorYellow = lipgloss.Color("#f9e2af")
	colorRed    = lipgloss.Color("#f38ba8")
	colorTeal   = lipgloss.Color("#94e2d5")
	colorMuted  = lipgloss.Color("#5a6278")
)

var (
	styleIconDone    = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconFailed  = lipgloss.NewStyle().Foreground(colorRed)
	styleIconSkipped = lipgloss.NewStyle().Foreground(colorMuted)
	styleIconLink    = lipgloss.NewStyle().Foreground(colorTeal)
	styleRetry       = lipgloss.NewStyle().Foreground(colorYellow)
	styleDir         = lipgloss.NewStyle().Foreground(colorMuted)
)

const (
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

// hudPresenter provides a TTY display with a scrolling feed of completed
// files and a HUD line that redraws in place.
type hudPresenter struct {
	w       io.Writer
	stats   *stats.Collector
	srcRoot string
	width   int

	hudDrawn    bool
	lastHUDDraw time.Time
}

func (p *hudPresenter) Run(events <-chan Event) error {
	secTicker := time.NewTicker(1 * time.Second)
	defer secTicker.Stop()

	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case CountComplete:
		p.stats.SetTotals(ev.Total, ev.TotalSize)

	case FileCompleted:
		p.clearHUD()
		icon := styleIconDone.Render("✓")
		if ev.Achieved == "hardlink" {
			icon = styleIconLink.Render("⧉")
		}
		fmt.Fprintf(p.w, "%s  %s  %10s\n", icon, p.styledPath(ev.Path), FormatBytes(ev.Size))
		p.drawHUD()

	case FileFailed:
		p.clearHUD()
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s  %10s  %s\n",
			styleIconFailed.Render("✗"), p.styledPath(ev.Path), FormatBytes(ev.Size), errMsg)
		p.drawHUD()

	case FileSkipped:
		p.clearHUD()
		fmt.Fprintf(p.w, "%s  %s  %s\n",
			styleIconSkipped.Render("–"), p.styledPath(ev.Path), styleIconSkipped.Render("skipped"))
		p.drawHUD()

	case CopyRetried:
		p.clearHUD()
		fmt.Fprintf(p.w, "%s  %s\n",
			styleRetry.Render(fmt.Sprintf("retry %d", ev.Attempt)), p.styledPath(ev.Path))
		p.drawHUD()
	}
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesTransferred) / float64(snap.BytesTotal)
	}

	fmt.Fprintf(p.w, " %3.0f%%  %s   %s / %s files   %s   eta %s\n",
		pct*100, ProgressBar(pct, progressBarWidth),
		FormatCount(snap.FilesDone()), FormatCount(snap.FilesTotal),
		FormatRate(p.stats.RollingSpeed(10)),
		FormatETA(p.stats.ETA()))

	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up one line and clear to end of screen.
	fmt.Fprint(p.w, "\033[1A\033[J")
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}

// styledPath returns the path trimmed to the terminal width, with the
// directory portion dimmed so the filename stands out.
func (p *hudPresenter) styledPath(path string) string {
	path = fitPath(StripRoot(p.srcRoot, path), p.width)
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	return styleDir.Render(dir+"/") + base
}
