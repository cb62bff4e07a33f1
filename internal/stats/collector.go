package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks transfer statistics using lock-free atomic counters.
type Collector struct {
	filesHardlinked  atomic.Int64
	filesCopied      atomic.Int64
	filesMoved       atomic.Int64
	filesFailed      atomic.Int64
	filesSkipped     atomic.Int64
	bytesTransferred atomic.Int64
	dirsCreated      atomic.Int64
	copyRetries      atomic.Int64
	bytesTotal       atomic.Int64
	filesTotal       atomic.Int64
	startTime        time.Time

	// Ring buffer — written only by the presenter's Tick(), never by the
	// engine itself.
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records pre-count totals (called once before the transfer).
func (c *Collector) SetTotals(files, bytes int64) {
	c.filesTotal.Store(files)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesHardlinked  int64
	FilesCopied      int64
	FilesMoved       int64
	FilesFailed      int64
	FilesSkipped     int64
	BytesTransferred int64
	DirsCreated      int64
	CopyRetries      int64
	BytesTotal       int64
	FilesTotal       int64
	Elapsed          time.Duration
}

// FilesDone is the number of files resolved by any strategy.
func (s Snapshot) FilesDone() int64 {
	return s.FilesHardlinked + s.FilesCopied + s.FilesMoved
}

func (c *Collector) AddFilesHardlinked(n int64)  { c.filesHardlinked.Add(n) }
func (c *Collector) AddFilesCopied(n int64)      { c.filesCopied.Add(n) }
func (c *Collector) AddFilesMoved(n int64)       { c.filesMoved.Add(n) }
func (c *Collector) AddFilesFailed(n int64)      { c.filesFailed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)     { c.filesSkipped.Add(n) }
func (c *Collector) AddBytesTransferred(n int64) { c.bytesTransferred.Add(n) }
func (c *Collector) AddDirsCreated(n int64)      { c.dirsCreated.Add(n) }
func (c *Collector) AddCopyRetries(n int64)      { c.copyRetries.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesHardlinked:  c.filesHardlinked.Load(),
		FilesCopied:      c.filesCopied.Load(),
		FilesMoved:       c.filesMoved.Load(),
		FilesFailed:      c.filesFailed.Load(),
		FilesSkipped:     c.filesSkipped.Load(),
		BytesTransferred: c.bytesTransferred.Load(),
		DirsCreated:      c.dirsCreated.Load(),
		CopyRetries:      c.copyRetries.Load(),
		BytesTotal:       c.bytesTotal.Load(),
		FilesTotal:       c.filesTotal.Load(),
		Elapsed:          c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the
// presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesTransferred.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.lastBytes = currentBytes
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := seconds
	if count > c.ringCount {
		count = c.ringCount
	}
	if count == 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// ETA estimates remaining time based on rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesTransferred.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"hardlinked=%d copied=%d moved=%d failed=%d skipped=%d bytes=%d dirs=%d retries=%d",
		s.FilesHardlinked, s.FilesCopied, s.FilesMoved, s.FilesFailed,
		s.FilesSkipped, s.BytesTransferred, s.DirsCreated, s.CopyRetries,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
