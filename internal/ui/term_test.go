package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermWidthFallsBackForNonTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, defaultTermWidth, TermWidth(f.Fd()))
}

func TestFitPath(t *testing.T) {
	long := strings.Repeat("d/", 60) + "episode.mkv"

	tests := []struct {
		name  string
		path  string
		width int
		want  string
	}{
		{name: "short path untouched", path: "show/e01.mkv", width: 80, want: "show/e01.mkv"},
		{name: "zero width uses default", path: "show/e01.mkv", width: 0, want: "show/e01.mkv"},
		{name: "narrow terminal keeps full path", path: long, width: 20, want: long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitPath(tt.path, tt.width))
		})
	}

	got := fitPath(long, 80)
	assert.True(t, strings.HasPrefix(got, "…"))
	assert.True(t, strings.HasSuffix(got, "episode.mkv"))
	assert.Len(t, []rune(got), 80-pathReservedCols)
}
