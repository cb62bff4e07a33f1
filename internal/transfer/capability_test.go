package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityString(t *testing.T) {
	tests := []struct {
		want string
		c    Capability
	}{
		{want: "none", c: None},
		{want: "hardlink", c: HardLink},
		{want: "copy", c: Copy},
		{want: "move", c: Move},
		{want: "hardlink,copy", c: HardLink | Copy},
		{want: "hardlink,copy,move", c: HardLink | Copy | Move},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.String())
	}
}

func TestCapabilityHas(t *testing.T) {
	c := HardLink | Copy
	assert.True(t, c.Has(HardLink))
	assert.True(t, c.Has(Copy))
	assert.True(t, c.Has(HardLink|Copy))
	assert.False(t, c.Has(Move))
	assert.False(t, c.Has(Copy|Move))

	// Every set trivially has None.
	assert.True(t, None.Has(None))
	assert.True(t, Move.Has(None))
}

func TestCapabilityAnd(t *testing.T) {
	assert.Equal(t, Copy, (HardLink | Copy).And(Copy|Move))
	assert.Equal(t, None, HardLink.And(Copy))
	assert.Equal(t, HardLink|Copy, (HardLink | Copy).And(HardLink|Copy))
}

func TestParseCapability(t *testing.T) {
	tests := []struct {
		in      string
		want    Capability
		wantErr bool
	}{
		{in: "hardlink", want: HardLink},
		{in: "link", want: HardLink},
		{in: "copy", want: Copy},
		{in: "move", want: Move},
		{in: "hardlink,copy", want: HardLink | Copy},
		{in: " Copy , MOVE ", want: Copy | Move},
		{in: "none", want: None},
		{in: "", want: None},
		{in: "teleport", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCapability(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
