package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayerMap(t *testing.T) {
	m, err := ParseLayerMap(`
# CMOS process
CMF : 10/0
CPG;CPS : POLY (20/0)
5/1
`)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	i, ok := m.LogicalByName("CMF")
	require.True(t, ok)
	assert.Equal(t, uint(0), i)
	assert.Equal(t, LD(10, 0), m.Mapping(i))

	a, _ := m.LogicalByName("CPG")
	b, _ := m.LogicalByName("CPS")
	assert.Equal(t, uint(1), a)
	assert.Equal(t, a, b)
	assert.Equal(t, "POLY (20/0)", m.Mapping(a).String())

	i, ok = m.Logical(LD(5, 1))
	require.True(t, ok)
	assert.Equal(t, LD(5, 1), m.Mapping(i))
	assert.Equal(t, uint(3), m.NextIndex())
}

func TestParseLayerMapErrors(t *testing.T) {
	_, err := ParseLayerMap("CMF : 10/0\n : 1/0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ParseLayerMap("CMF : 10/x")
	assert.Error(t, err)
}

func TestLayerMapLogicalPrefersNumbers(t *testing.T) {
	m := NewLayerMap()
	m.Map(Named("A"), 0)
	m.Map(LD(1, 0), 1)

	p := LD(1, 0)
	p.Name = "A"
	i, ok := m.Logical(p)
	require.True(t, ok)
	assert.Equal(t, uint(1), i)

	p = LD(2, 0)
	p.Name = "A"
	i, ok = m.Logical(p)
	require.True(t, ok)
	assert.Equal(t, uint(0), i)

	_, ok = m.Logical(LD(2, 0))
	assert.False(t, ok)
}

func TestLayerMapString(t *testing.T) {
	m, err := ParseLayerMap("CPG;CPS : 20/0\n5/1")
	require.NoError(t, err)
	assert.Equal(t, "CPG;CPS : 20/0\n5/1 : 5/1\n", m.String())

	again, err := ParseLayerMap(m.String())
	require.NoError(t, err)
	assert.Equal(t, m.String(), again.String())
}

func TestLayerMapPrepareMatchesExistingLayers(t *testing.T) {
	ly := New()
	ly.InsertLayer(0, LD(1, 0))
	ly.InsertLayer(4, LD(20, 0))

	m, err := ParseLayerMap("CMF : 10/0\nCPG : 20/0")
	require.NoError(t, err)
	m.Prepare(ly)

	cpg, _ := m.LogicalByName("CPG")
	assert.Equal(t, uint(4), cpg)

	cmf, _ := m.LogicalByName("CMF")
	assert.Equal(t, uint(1), cmf)
	assert.Equal(t, LD(10, 0), m.Mapping(cmf))

	assert.Equal(t, uint(5), m.NextIndex())
	assert.Equal(t, []uint{1, 4}, m.Indices())
}

func TestLayerMapPrepareOnEmptyLayout(t *testing.T) {
	m, err := ParseLayerMap("A\nB\nC")
	require.NoError(t, err)
	m.Prepare(New())

	assert.Equal(t, []uint{0, 1, 2}, m.Indices())
	assert.Equal(t, uint(3), m.NextIndex())
}
