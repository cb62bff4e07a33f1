package ui

import "golang.org/x/term"

const (
	// defaultTermWidth is assumed when the terminal size cannot be queried.
	defaultTermWidth = 80

	// pathReservedCols is the room the HUD keeps for the icon and size
	// columns around a path.
	pathReservedCols = 18
)

// IsTTY reports whether the given file descriptor refers to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// TermWidth returns the terminal width in columns, or defaultTermWidth if
// it cannot be determined.
func TermWidth(fd uintptr) int {
	w, _, err := term.GetSize(int(fd))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// fitPath elides the front of path so it fits beside the fixed HUD columns
// in a terminal of the given width. The tail is kept since the filename is
// what the user is watching.
func fitPath(path string, width int) string {
	if width <= 0 {
		width = defaultTermWidth
	}
	max := width - pathReservedCols
	r := []rune(path)
	if max < 16 || len(r) <= max {
		return path
	}
	return "…" + string(r[len(r)-max+1:])
}
