package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerPropertiesString(t *testing.T) {
	assert.Equal(t, "7/2", LD(7, 2).String())
	assert.Equal(t, "METAL", Named("METAL").String())

	p := LD(16, 0)
	p.Name = "METAL1"
	assert.Equal(t, "METAL1 (16/0)", p.String())
}

func TestParseLayerProperties(t *testing.T) {
	named := LD(16, 0)
	named.Name = "METAL1"

	tests := []struct {
		input string
		want  LayerProperties
	}{
		{"7/2", LD(7, 2)},
		{" 7 ", LD(7, 0)},
		{"CMF", Named("CMF")},
		{"METAL1 (16/0)", named},
		{"METAL1(16/0)", named},
	}
	for _, tt := range tests {
		got, err := ParseLayerProperties(tt.input)
		require.NoError(t, err, "input: %q", tt.input)
		assert.Equal(t, tt.want, got, "input: %q", tt.input)
	}
}

func TestParseLayerPropertiesErrors(t *testing.T) {
	for _, input := range []string{"", "  ", "7/x", "7x", "M (a/1)"} {
		_, err := ParseLayerProperties(input)
		assert.Error(t, err, "input: %q", input)
	}
}

func TestLayerPropertiesRoundTrip(t *testing.T) {
	p := LD(3, 4)
	p.Name = "DIFF"
	for _, in := range []LayerProperties{LD(1, 0), Named("POLY"), p} {
		got, err := ParseLayerProperties(in.String())
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestLayerPropertiesSameAs(t *testing.T) {
	named := LD(7, 0)
	named.Name = "X"

	assert.True(t, LD(7, 0).SameAs(named))
	assert.False(t, LD(7, 0).SameAs(LD(7, 1)))
	assert.True(t, Named("A").SameAs(Named("A")))
	assert.False(t, Named("A").SameAs(Named("B")))
	assert.False(t, Named("X").SameAs(named))
}

func TestLayerPropertiesIsNull(t *testing.T) {
	assert.True(t, LayerProperties{}.IsNull())
	assert.False(t, LD(0, 0).IsNull())
	assert.False(t, Named("A").IsNull())
}
