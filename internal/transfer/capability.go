package transfer

import (
	"fmt"
	"strings"
)

// Capability is a bit set of transfer strategies. A request combines the
// strategies the caller will accept (e.g. HardLink|Copy means "prefer a
// hardlink, fall back to a copy"); a result is reduced to the single
// strategy that actually ran.
type Capability uint8

const (
	None     Capability = 0
	HardLink Capability = 1 << iota
	Copy
	Move
)

// Has reports whether every bit in c is also set in cap.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// And intersects two capability sets. Folder transfers fold their children
// with And, so a bit survives only when every contained item achieved it.
func (c Capability) And(other Capability) Capability {
	return c & other
}

func (c Capability) String() string {
	if c == None {
		return "none"
	}
	var parts []string
	if c.Has(HardLink) {
		parts = append(parts, "hardlink")
	}
	if c.Has(Copy) {
		parts = append(parts, "copy")
	}
	if c.Has(Move) {
		parts = append(parts, "move")
	}
	return strings.Join(parts, ",")
}

// ParseCapability parses a comma-separated strategy list ("hardlink,copy").
func ParseCapability(s string) (Capability, error) {
	c := None
	for part := range strings.SplitSeq(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "":
		case "none":
		case "hardlink", "link":
			c |= HardLink
		case "copy":
			c |= Copy
		case "move":
			c |= Move
		default:
			return None, fmt.Errorf("unknown transfer strategy %q", part)
		}
	}
	return c, nil
}
