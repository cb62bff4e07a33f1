package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0 B/s"},
		{in: -5, want: "0 B/s"},
		{in: 5, want: "5.00 B/s"},
		{in: 50, want: "50.0 B/s"},
		{in: 500, want: "500 B/s"},
		{in: 2048, want: "2.00 KB/s"},
		{in: 5 * 1024 * 1024, want: "5.00 MB/s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRate(tt.in))
	}
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "--", FormatETA(0))
	assert.Equal(t, "--", FormatETA(-time.Second))
	assert.Equal(t, "42s", FormatETA(42*time.Second))
	assert.Equal(t, "2m 05s", FormatETA(125*time.Second))
	assert.Equal(t, "1h 01m 05s", FormatETA(3665*time.Second))
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 1000, want: "1,000"},
		{in: 1234567, want: "1,234,567"},
		{in: -1234, want: "-1,234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.in))
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "", ProgressBar(0.5, 0))
	assert.Equal(t, "□□□□", ProgressBar(0, 4))
	assert.Equal(t, "▪▪□□", ProgressBar(0.5, 4))
	assert.Equal(t, "▪▪▪▪", ProgressBar(1, 4))
	// Out-of-range inputs clamp.
	assert.Equal(t, "▪▪▪▪", ProgressBar(1.5, 4))
	assert.Equal(t, "□□□□", ProgressBar(-1, 4))
}

func TestStripRoot(t *testing.T) {
	assert.Equal(t, "s01/e01.mkv", StripRoot("/media/show", "/media/show/s01/e01.mkv"))
	assert.Equal(t, "/media/show", StripRoot("/media/show", "/media/show"))
	assert.Equal(t, "/elsewhere/a.txt", StripRoot("/media/show", "/elsewhere/a.txt"))
	assert.Equal(t, "/a.txt", StripRoot("", "/a.txt"))
}
