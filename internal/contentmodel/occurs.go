package contentmodel

import (
	"fmt"
	"math"
	"strconv"
)

// Occurs is a minOccurs/maxOccurs value.
type Occurs uint32

// Unbounded is the maxOccurs sentinel for unbounded repetition.
const Unbounded Occurs = math.MaxUint32

// IsUnbounded reports whether o is the unbounded sentinel.
func (o Occurs) IsUnbounded() bool {
	return o == Unbounded
}

func (o Occurs) String() string {
	if o.IsUnbounded() {
		return "unbounded"
	}
	return strconv.FormatUint(uint64(o), 10)
}

// ParseOccurs parses a minOccurs/maxOccurs attribute value.
func ParseOccurs(value string) (Occurs, error) {
	if value == "unbounded" {
		return Unbounded, nil
	}
	u, err := strconv.ParseUint(value, 10, 32)
	if err != nil || u == uint64(Unbounded) {
		return 0, fmt.Errorf("invalid occurrence value %q", value)
	}
	return Occurs(u), nil
}

// BoundsIssue enumerates occurrence bound violations.
type BoundsIssue uint8

const (
	BoundsOK BoundsIssue = iota
	BoundsMaxZero
	BoundsMinUnbounded
	BoundsMinGreaterThanMax
)

// CheckBounds validates 0 <= min <= max and max > 0.
func CheckBounds(minOccurs, maxOccurs Occurs) BoundsIssue {
	if maxOccurs == 0 {
		return BoundsMaxZero
	}
	if minOccurs.IsUnbounded() {
		return BoundsMinUnbounded
	}
	if !maxOccurs.IsUnbounded() && minOccurs > maxOccurs {
		return BoundsMinGreaterThanMax
	}
	return BoundsOK
}

func (i BoundsIssue) String() string {
	switch i {
	case BoundsOK:
		return "ok"
	case BoundsMaxZero:
		return "maxOccurs must be greater than zero"
	case BoundsMinUnbounded:
		return "minOccurs cannot be unbounded"
	case BoundsMinGreaterThanMax:
		return "minOccurs must not exceed maxOccurs"
	default:
		return "unknown bounds issue"
	}
}

// Bounds is a validated (minOccurs, maxOccurs) pair.
type Bounds struct {
	min Occurs
	max Occurs
}

// Once is the default (1, 1) occurrence.
var Once = Bounds{min: 1, max: 1}

// NewBounds validates and returns a bounds pair.
func NewBounds(minOccurs, maxOccurs Occurs) (Bounds, error) {
	if issue := CheckBounds(minOccurs, maxOccurs); issue != BoundsOK {
		return Bounds{}, fmt.Errorf("invalid occurrence (%s, %s): %s", minOccurs, maxOccurs, issue)
	}
	return Bounds{min: minOccurs, max: maxOccurs}, nil
}

// Min returns minOccurs.
func (b Bounds) Min() Occurs { return b.min }

// Max returns maxOccurs.
func (b Bounds) Max() Occurs { return b.max }

// Suffix renders the bounds as a DTD occurrence indicator.
func (b Bounds) Suffix() string {
	switch {
	case b.min == 1 && b.max == 1:
		return ""
	case b.min == 0 && b.max == 1:
		return "?"
	case b.min == 0 && b.max.IsUnbounded():
		return "*"
	case b.min == 1 && b.max.IsUnbounded():
		return "+"
	default:
		return fmt.Sprintf("{%s,%s}", b.min, b.max)
	}
}

func (b Bounds) compare(other Bounds) int {
	if c := compareOccurs(b.min, other.min); c != 0 {
		return c
	}
	return compareOccurs(b.max, other.max)
}

func compareOccurs(a, b Occurs) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// occurrence carries the bounds shared by bounded content nodes.
type occurrence struct {
	bounds Bounds
}

// MinOccurs returns the minimum occurrence.
func (o *occurrence) MinOccurs() Occurs { return o.bounds.min }

// MaxOccurs returns the maximum occurrence.
func (o *occurrence) MaxOccurs() Occurs { return o.bounds.max }

// Bounds returns the occurrence pair.
func (o *occurrence) Bounds() Bounds { return o.bounds }

// SetMinMaxOccurs replaces the bounds; invalid pairs leave the node unchanged.
func (o *occurrence) SetMinMaxOccurs(minOccurs, maxOccurs Occurs) error {
	b, err := NewBounds(minOccurs, maxOccurs)
	if err != nil {
		return err
	}
	o.bounds = b
	return nil
}
