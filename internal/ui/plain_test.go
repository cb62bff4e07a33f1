package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jottr/shift/internal/event"
	"github.com/jottr/shift/internal/stats"
)

func runPlain(t *testing.T, evs []Event) (stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer
	p := &plainPresenter{
		w:       &out,
		errW:    &errOut,
		stats:   stats.NewCollector(),
		srcRoot: "/media/show",
	}

	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)

	require.NoError(t, p.Run(events))
	return out.String(), errOut.String()
}

func TestPlainPresenterFileLines(t *testing.T) {
	stdout, _ := runPlain(t, []Event{
		{Type: event.FileCompleted, Path: "/media/show/e01.mkv", Size: 2048, Achieved: "hardlink"},
		{Type: event.FileCompleted, Path: "/media/show/e02.mkv", Size: 1024, Achieved: "copy"},
		{Type: event.FileSkipped, Path: "/media/show/notes.txt"},
	})

	assert.Contains(t, stdout, "e01.mkv  2.0 KiB  hardlink")
	assert.Contains(t, stdout, "e02.mkv  1.0 KiB  copy")
	assert.Contains(t, stdout, "notes.txt  skipped")
}

func TestPlainPresenterFailureAndRetry(t *testing.T) {
	stdout, stderr := runPlain(t, []Event{
		{Type: event.CopyRetried, Path: "/media/show/e01.mkv", Attempt: 1},
		{Type: event.FileFailed, Path: "/media/show/e01.mkv", Error: errors.New("size mismatch")},
		{Type: event.MoveFellBack, Path: "/media/show/e02.mkv"},
	})

	assert.Contains(t, stderr, "retry 1: e01.mkv")
	assert.Contains(t, stdout, "size mismatch")
	assert.Contains(t, stderr, "move fallback: e02.mkv")
}

func TestPlainPresenterSetsTotals(t *testing.T) {
	var out, errOut bytes.Buffer
	collector := stats.NewCollector()
	p := &plainPresenter{w: &out, errW: &errOut, stats: collector}

	events := make(chan Event, 1)
	events <- Event{Type: event.CountComplete, Total: 7, TotalSize: 7000}
	close(events)
	require.NoError(t, p.Run(events))

	snap := collector.Snapshot()
	assert.Equal(t, int64(7), snap.FilesTotal)
	assert.Equal(t, int64(7000), snap.BytesTotal)
}

func TestCompletionSummary(t *testing.T) {
	snap := stats.Snapshot{
		FilesHardlinked:  10,
		FilesCopied:      5,
		BytesTransferred: 5 << 20,
		CopyRetries:      2,
	}
	s := completionSummary(snap)
	assert.Contains(t, s, "done ✓")
	assert.Contains(t, s, "files 15")
	assert.Contains(t, s, "hardlinked 10")
	assert.Contains(t, s, "retries 2")
	assert.Contains(t, s, "errors 0")

	snap.FilesFailed = 1
	assert.Contains(t, completionSummary(snap), "done ✗")
}

func TestNewPresenterSelection(t *testing.T) {
	col := stats.NewCollector()

	p := NewPresenter(Config{Quiet: true, Stats: col})
	_, ok := p.(*quietPresenter)
	assert.True(t, ok)

	p = NewPresenter(Config{IsTTY: false, Stats: col})
	_, ok = p.(*plainPresenter)
	assert.True(t, ok)

	p = NewPresenter(Config{IsTTY: true, NoProgress: true, Stats: col})
	_, ok = p.(*plainPresenter)
	assert.True(t, ok)

	p = NewPresenter(Config{IsTTY: true, Stats: col})
	_, ok = p.(*hudPresenter)
	assert.True(t, ok)
}
