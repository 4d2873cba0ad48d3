package cif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrohne/klayout/layout"
)

func TestExtractPlainLayer(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"7", 7, true},
		{"0", 0, true},
		{"120", 120, true},
		{"", 0, false},
		{"7A", 0, false},
		{"L7", 0, false},
	}
	for _, tt := range tests {
		l, ok := extractPlainLayer(tt.input)
		assert.Equal(t, tt.ok, ok, "input: %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, l, "input: %q", tt.input)
		}
	}
}

func TestExtractLD(t *testing.T) {
	tests := []struct {
		input    string
		layer    int
		datatype int
		name     string
		ok       bool
	}{
		{"L7D2", 7, 2, "", true},
		{"L7", 7, 0, "", true},
		{"7.3", 7, 3, "", true},
		{"12", 12, 0, "", true},
		{"L1D0_poly", 1, 0, "poly", true},
		{"L5_metal", 5, 0, "metal", true},
		{"L", 0, 0, "", false},
		{"L7D", 0, 0, "", false},
		{"LD2", 0, 0, "", false},
		{"L7X", 0, 0, "", false},
		{"CMF", 0, 0, "", false},
	}
	for _, tt := range tests {
		l, d, n, ok := extractLD(tt.input)
		assert.Equal(t, tt.ok, ok, "input: %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.layer, l, "input: %q", tt.input)
			assert.Equal(t, tt.datatype, d, "input: %q", tt.input)
			assert.Equal(t, tt.name, n, "input: %q", tt.input)
		}
	}
}

func newTestResolver(t *testing.T, mapText string, create bool) (*layout.Layout, *layout.LayerMap, *layerResolver) {
	t.Helper()
	ly := layout.New()
	lmap, err := layout.ParseLayerMap(mapText)
	require.NoError(t, err)
	lmap.Prepare(ly)
	return ly, lmap, newLayerResolver(ly, lmap, create)
}

func TestResolverExplicitName(t *testing.T) {
	ly, _, lr := newTestResolver(t, "CMF : 10/0\nCPG : 20/0", true)

	i := lr.resolve("CPG")
	require.GreaterOrEqual(t, i, 0)
	props, ok := ly.LayerProperties(uint(i))
	require.True(t, ok)
	assert.Equal(t, layout.LD(20, 0), props)
	assert.Equal(t, 0, lr.pending())
}

func TestResolverExplicitNumbers(t *testing.T) {
	ly, _, lr := newTestResolver(t, "5/0 : 50/0\n6/2 : 60/0", true)

	plain := lr.resolve("5")
	props, _ := ly.LayerProperties(uint(plain))
	assert.Equal(t, layout.LD(50, 0), props)

	ld := lr.resolve("L6D2")
	props, _ = ly.LayerProperties(uint(ld))
	assert.Equal(t, layout.LD(60, 0), props)
}

func TestResolverCreatesProvisionalLayersOnce(t *testing.T) {
	ly, _, lr := newTestResolver(t, "CMF : 10/0", true)

	a := lr.resolve("METAL")
	b := lr.resolve("METAL")
	c := lr.resolve("POLY")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, lr.pending())

	// provisional indices come after the mapped one
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, c)
	assert.True(t, ly.IsValidLayer(uint(a)))
}

func TestResolverIgnoresUnmappedWhenCreationDisabled(t *testing.T) {
	ly, _, lr := newTestResolver(t, "CMF : 10/0", false)

	assert.Equal(t, layerIgnored, lr.resolve("METAL"))
	assert.Empty(t, ly.Layers())

	assert.GreaterOrEqual(t, lr.resolve("CMF"), 0)
}

func TestReconcileBareNumbersBeforeLDNotation(t *testing.T) {
	ly, lmap, lr := newTestResolver(t, "", true)

	l3 := lr.resolve("L3")
	bare := lr.resolve("3")
	ld := lr.resolve("L7D2")
	named := lr.resolve("METAL")
	lr.reconcile()

	props := func(i int) layout.LayerProperties {
		p, ok := ly.LayerProperties(uint(i))
		require.True(t, ok)
		return p
	}
	assert.Equal(t, layout.LD(3, 0), props(bare))
	assert.Equal(t, layout.Named("L3"), props(l3))
	assert.Equal(t, layout.LD(7, 2), props(ld))
	assert.Equal(t, layout.Named("METAL"), props(named))
	assert.Equal(t, 0, lr.pending())

	i, ok := lmap.Logical(layout.LD(7, 2))
	require.True(t, ok)
	assert.Equal(t, uint(ld), i)
	i, ok = lmap.LogicalByName("METAL")
	require.True(t, ok)
	assert.Equal(t, uint(named), i)
}

func TestReconcileKeepsNameOnTrailingLDName(t *testing.T) {
	ly, _, lr := newTestResolver(t, "", true)

	i := lr.resolve("L1D0_poly")
	lr.reconcile()

	p, _ := ly.LayerProperties(uint(i))
	assert.Equal(t, layout.LayerProperties{Layer: 1, Datatype: 0, Name: "poly", Numbered: true}, p)
}

func TestReconcileAvoidsLayersInUse(t *testing.T) {
	ly := layout.New()
	ly.InsertLayer(0, layout.LD(7, 0))
	lmap := layout.NewLayerMap()
	lmap.Prepare(ly)
	lr := newLayerResolver(ly, lmap, true)

	i := lr.resolve("7")
	assert.Equal(t, 1, i)
	lr.reconcile()

	p, _ := ly.LayerProperties(uint(i))
	assert.Equal(t, layout.Named("7"), p)
}
