package model

import "strings"

// PropertyOrder compares property names for deterministic listing. Names in the
// explicit order sort by position, the rest alphabetically after them, and the
// wildcard always last.
type PropertyOrder struct {
	positions map[string]int
}

// NewPropertyOrder creates a comparator from an explicit order. A nil or empty
// order sorts every name alphabetically.
func NewPropertyOrder(explicit []string) *PropertyOrder {
	positions := make(map[string]int, len(explicit))
	for i, name := range explicit {
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	return &PropertyOrder{positions: positions}
}

// Compare returns a negative number when a sorts before b, positive when after,
// and zero when they are the same name.
func (o *PropertyOrder) Compare(a, b string) int {
	if a == b {
		return 0
	}
	if a == Wildcard {
		return 1
	}
	if b == Wildcard {
		return -1
	}

	pa, aOrdered := o.positions[a]
	pb, bOrdered := o.positions[b]
	switch {
	case aOrdered && bOrdered:
		return pa - pb
	case aOrdered:
		return -1
	case bOrdered:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Explicit reports whether the comparator was built from a non-empty order.
func (o *PropertyOrder) Explicit() bool {
	return len(o.positions) > 0
}
