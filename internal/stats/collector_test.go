package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFilesHardlinked(1)
				c.AddFilesCopied(1)
				c.AddFilesMoved(1)
				c.AddFilesFailed(1)
				c.AddFilesSkipped(1)
				c.AddBytesTransferred(256)
				c.AddDirsCreated(1)
				c.AddCopyRetries(1)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	total := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, total, snap.FilesHardlinked)
	assert.Equal(t, total, snap.FilesCopied)
	assert.Equal(t, total, snap.FilesMoved)
	assert.Equal(t, total, snap.FilesFailed)
	assert.Equal(t, total, snap.FilesSkipped)
	assert.Equal(t, total*256, snap.BytesTransferred)
	assert.Equal(t, total, snap.DirsCreated)
	assert.Equal(t, total, snap.CopyRetries)
}

func TestSnapshotFilesDone(t *testing.T) {
	c := NewCollector()
	c.AddFilesHardlinked(2)
	c.AddFilesCopied(3)
	c.AddFilesMoved(4)
	c.AddFilesFailed(10) // failures do not count as done

	assert.Equal(t, int64(9), c.Snapshot().FilesDone())
}

func TestSetTotals(t *testing.T) {
	c := NewCollector()
	c.SetTotals(42, 1<<20)

	snap := c.Snapshot()
	assert.Equal(t, int64(42), snap.FilesTotal)
	assert.Equal(t, int64(1<<20), snap.BytesTotal)
}

func TestRollingSpeed(t *testing.T) {
	c := NewCollector()

	// No samples yet.
	assert.Zero(t, c.RollingSpeed(10))

	c.AddBytesTransferred(1000)
	c.Tick()
	c.AddBytesTransferred(3000)
	c.Tick()

	// Two samples: 1000 and 3000 deltas.
	assert.InDelta(t, 2000, c.RollingSpeed(10), 0.001)
	assert.InDelta(t, 3000, c.RollingSpeed(1), 0.001)
}

func TestETA(t *testing.T) {
	c := NewCollector()
	c.SetTotals(10, 10000)

	// No speed samples: ETA unknown.
	assert.Zero(t, c.ETA())

	c.AddBytesTransferred(5000)
	c.Tick()

	eta := c.ETA()
	require.Positive(t, eta)
	assert.Equal(t, time.Second, eta)
}

func TestSnapshotString(t *testing.T) {
	c := NewCollector()
	c.AddFilesHardlinked(1)
	c.AddFilesCopied(2)

	s := c.Snapshot().String()
	assert.Contains(t, s, "hardlinked=1")
	assert.Contains(t, s, "copied=2")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0 B"},
		{in: 512, want: "512 B"},
		{in: 1024, want: "1.0 KiB"},
		{in: 1536, want: "1.5 KiB"},
		{in: 1 << 20, want: "1.0 MiB"},
		{in: 5 << 30, want: "5.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}
