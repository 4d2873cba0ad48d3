package layout

import (
	"bufio"
	"fmt"
	"slices"
	"strings"
)

type ldKey struct {
	layer, datatype int
}

// LayerMap maps source layers, given by name or by layer/datatype, onto layer
// indices of a layout and the properties those layers should carry.
//
// The zero value is not usable; create maps with NewLayerMap or ParseLayerMap.
type LayerMap struct {
	names   map[string]uint
	lds     map[ldKey]uint
	targets map[uint]LayerProperties
	next    uint
}

// NewLayerMap creates an empty layer map.
func NewLayerMap() *LayerMap {
	return &LayerMap{
		names:   make(map[string]uint),
		lds:     make(map[ldKey]uint),
		targets: make(map[uint]LayerProperties),
	}
}

// ParseLayerMap reads one mapping expression per line (see AddExpression).
// Blank lines and lines starting with '#' are skipped. Each expression gets
// the next free index.
func ParseLayerMap(text string) (*LayerMap, error) {
	m := NewLayerMap()
	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if err := m.AddExpression(s); err != nil {
			return nil, fmt.Errorf("layer map line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// AddExpression adds one mapping of the form
//
//	<source>[;<source>...] [: <target>]
//
// where a source is "l/d", "l" or a name, and the target is "l/d",
// "name (l/d)" or a name. Without a target the first source is used.
func (m *LayerMap) AddExpression(expr string) error {
	srcText, targetText, hasTarget := strings.Cut(expr, ":")

	var sources []LayerProperties
	for _, s := range strings.Split(srcText, ";") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := ParseLayerProperties(s)
		if err != nil {
			return err
		}
		sources = append(sources, p)
	}
	if len(sources) == 0 {
		return fmt.Errorf("missing source layer in %q", expr)
	}

	target := sources[0]
	if hasTarget {
		var err error
		if target, err = ParseLayerProperties(targetText); err != nil {
			return err
		}
	}

	index := m.NextIndex()
	for _, src := range sources {
		m.MapTo(src, index, target)
	}
	return nil
}

// Map registers src under index with src itself as the target properties.
func (m *LayerMap) Map(src LayerProperties, index uint) {
	m.MapTo(src, index, src)
}

// MapTo registers src under index with the given target properties. A
// numbered source is keyed by its layer/datatype and a named source by its
// name; a source that has both is reachable through either key.
func (m *LayerMap) MapTo(src LayerProperties, index uint, target LayerProperties) {
	if src.Numbered {
		m.lds[ldKey{src.Layer, src.Datatype}] = index
	}
	if src.Name != "" {
		m.names[src.Name] = index
	}
	m.targets[index] = target
	if index >= m.next {
		m.next = index + 1
	}
}

// LogicalByName looks up a source layer by name.
func (m *LayerMap) LogicalByName(name string) (uint, bool) {
	i, ok := m.names[name]
	return i, ok
}

// Logical looks up a source layer by layer/datatype first and by name second.
func (m *LayerMap) Logical(p LayerProperties) (uint, bool) {
	if p.Numbered {
		if i, ok := m.lds[ldKey{p.Layer, p.Datatype}]; ok {
			return i, true
		}
	}
	if p.Name != "" {
		return m.LogicalByName(p.Name)
	}
	return 0, false
}

// Mapping returns the target properties of a logical index.
func (m *LayerMap) Mapping(index uint) LayerProperties {
	return m.targets[index]
}

// NextIndex returns the first index above every index used by the map and
// by the layout it was prepared for.
func (m *LayerMap) NextIndex() uint {
	return m.next
}

// Indices returns the mapped logical indices in ascending order.
func (m *LayerMap) Indices() []uint {
	out := make([]uint, 0, len(m.targets))
	for i := range m.targets {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of logical layers in the map.
func (m *LayerMap) Len() int {
	return len(m.targets)
}

// LayerLister is implemented by databases that can enumerate their layers.
type LayerLister interface {
	Layers() []LayerInfo
}

// Prepare aligns the map with the layers already present in db. Entries whose
// target matches an existing layer are moved onto that layer's index; the
// others are moved onto indices not used by db.
func (m *LayerMap) Prepare(db LayerLister) {
	existing := db.Layers()
	used := make(map[uint]bool, len(existing))
	for _, l := range existing {
		used[l.Index] = true
	}

	indices := m.Indices()
	remap := make(map[uint]uint, len(indices))
	taken := make(map[uint]bool)
	for _, i := range indices {
		t := m.targets[i]
		if t.IsNull() {
			continue
		}
		for _, l := range existing {
			if l.Props.SameAs(t) {
				remap[i] = l.Index
				taken[l.Index] = true
				break
			}
		}
	}

	var free uint
	for _, i := range indices {
		if _, ok := remap[i]; ok {
			continue
		}
		for used[free] || taken[free] {
			free++
		}
		remap[i] = free
		taken[free] = true
	}

	targets := make(map[uint]LayerProperties, len(m.targets))
	for i, t := range m.targets {
		targets[remap[i]] = t
	}
	for k, i := range m.names {
		m.names[k] = remap[i]
	}
	for k, i := range m.lds {
		m.lds[k] = remap[i]
	}
	m.targets = targets

	m.next = 0
	for i := range used {
		m.next = max(m.next, i+1)
	}
	for i := range taken {
		m.next = max(m.next, i+1)
	}
}

// String renders the map in the expression syntax accepted by ParseLayerMap,
// one line per logical index.
func (m *LayerMap) String() string {
	sources := make(map[uint][]string)
	for k, i := range m.lds {
		sources[i] = append(sources[i], fmt.Sprintf("%d/%d", k.layer, k.datatype))
	}
	for n, i := range m.names {
		sources[i] = append(sources[i], n)
	}

	var b strings.Builder
	for _, i := range m.Indices() {
		src := sources[i]
		slices.Sort(src)
		fmt.Fprintf(&b, "%s : %s\n", strings.Join(src, ";"), m.targets[i])
	}
	return b.String()
}
