package types

import (
	"fmt"
	"strings"
)

// Finality is the set of derivation methods a type forbids.
// It is always normalized: ALL subsumes every other flag, and NONE is
// dropped as soon as any other flag is present.
type Finality uint8

const (
	FinalNone Finality = 1 << iota
	FinalList
	FinalRestriction
	FinalUnion
	FinalAll
)

var finalityOrder = []struct {
	name string
	flag Finality
}{
	{"NONE", FinalNone},
	{"LIST", FinalList},
	{"RESTRICTION", FinalRestriction},
	{"UNION", FinalUnion},
	{"ALL", FinalAll},
}

// NewFinality returns the normalized set of the given flags.
func NewFinality(flags ...Finality) Finality {
	var f Finality
	for _, flag := range flags {
		f |= flag
	}
	return f.normalize()
}

func (f Finality) normalize() Finality {
	switch {
	case f&FinalAll != 0:
		return FinalAll
	case f&^FinalNone != 0:
		return f &^ FinalNone
	default:
		return FinalNone
	}
}

// Add returns the normalized set with flag added.
func (f Finality) Add(flag Finality) Finality {
	return (f.normalize() | flag).normalize()
}

// Has reports whether derivation by method is forbidden.
// FinalNone is reported only when nothing is forbidden.
func (f Finality) Has(method Finality) bool {
	f = f.normalize()
	if method == FinalNone {
		return f == FinalNone
	}
	return f&FinalAll != 0 || f&method != 0
}

// Flags returns the normalized flags in declaration order.
func (f Finality) Flags() []Finality {
	f = f.normalize()
	var out []Finality
	for _, entry := range finalityOrder {
		if f&entry.flag != 0 {
			out = append(out, entry.flag)
		}
	}
	return out
}

func (f Finality) String() string {
	f = f.normalize()
	names := make([]string, 0, 4)
	for _, entry := range finalityOrder {
		if f&entry.flag != 0 {
			names = append(names, entry.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// ParseFinality parses a final attribute value. "#all" cannot be combined
// with other tokens. "extension" is accepted for complex types and has no
// effect because derivation by extension is not modelled.
func ParseFinality(value string) (Finality, error) {
	set := FinalNone
	hasAll := false
	for _, token := range strings.Fields(value) {
		if hasAll {
			return FinalNone, fmt.Errorf("finality cannot combine '#all' with other values")
		}
		switch token {
		case "list":
			set = set.Add(FinalList)
		case "restriction":
			set = set.Add(FinalRestriction)
		case "union":
			set = set.Add(FinalUnion)
		case "extension":
		case "#all":
			if set != FinalNone {
				return FinalNone, fmt.Errorf("finality cannot combine '#all' with other values")
			}
			set = FinalAll
			hasAll = true
		default:
			return FinalNone, fmt.Errorf("invalid finality '%s'", token)
		}
	}
	return set, nil
}
