package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// LayerProperties describes the identity of a layer: a layer/datatype pair,
// a name, or both. Numbered is false for purely symbolic layers.
type LayerProperties struct {
	Layer    int
	Datatype int
	Name     string
	Numbered bool
}

// LD returns numbered layer properties without a name.
func LD(layer, datatype int) LayerProperties {
	return LayerProperties{Layer: layer, Datatype: datatype, Numbered: true}
}

// Named returns symbolic layer properties.
func Named(name string) LayerProperties {
	return LayerProperties{Name: name}
}

// IsNull reports whether the properties carry no identity at all.
func (p LayerProperties) IsNull() bool {
	return !p.Numbered && p.Name == ""
}

// SameAs reports whether p and o denote the same layer. Numbered layers match
// on layer and datatype only; symbolic layers match on name.
func (p LayerProperties) SameAs(o LayerProperties) bool {
	if p.Numbered || o.Numbered {
		return p.Numbered && o.Numbered && p.Layer == o.Layer && p.Datatype == o.Datatype
	}
	return p.Name == o.Name
}

// String formats the properties as "name (l/d)", "l/d" or "name".
func (p LayerProperties) String() string {
	switch {
	case p.Numbered && p.Name != "":
		return fmt.Sprintf("%s (%d/%d)", p.Name, p.Layer, p.Datatype)
	case p.Numbered:
		return fmt.Sprintf("%d/%d", p.Layer, p.Datatype)
	default:
		return p.Name
	}
}

// ParseLayerProperties parses the String form back into properties.
// A bare number is read as datatype 0.
func ParseLayerProperties(s string) (LayerProperties, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LayerProperties{}, fmt.Errorf("empty layer specification")
	}

	if open := strings.LastIndexByte(s, '('); open >= 0 && strings.HasSuffix(s, ")") {
		name := strings.TrimSpace(s[:open])
		ld, err := parseLD(s[open+1 : len(s)-1])
		if err != nil {
			return LayerProperties{}, err
		}
		ld.Name = name
		return ld, nil
	}

	if s[0] >= '0' && s[0] <= '9' {
		return parseLD(s)
	}
	return Named(s), nil
}

func parseLD(s string) (LayerProperties, error) {
	s = strings.TrimSpace(s)
	ls, ds, hasDatatype := strings.Cut(s, "/")
	l, err := strconv.Atoi(strings.TrimSpace(ls))
	if err != nil || l < 0 {
		return LayerProperties{}, fmt.Errorf("invalid layer number %q", ls)
	}
	d := 0
	if hasDatatype {
		d, err = strconv.Atoi(strings.TrimSpace(ds))
		if err != nil || d < 0 {
			return LayerProperties{}, fmt.Errorf("invalid datatype number %q", ds)
		}
	}
	return LD(l, d), nil
}
