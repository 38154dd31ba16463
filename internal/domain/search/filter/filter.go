// Package filter models the structured pre-filters applied before text matching:
// a conjunction of tag any-of matches and numeric ranges.
package filter

import (
	"errors"
	"fmt"
	"slices"
)

// Size limits keep rendered queries bounded.
const (
	MaxConditions         = 32
	MaxValuesPerCondition = 64
)

var (
	// ErrEmptyKey rejects a condition without a field name.
	ErrEmptyKey = errors.New("filter key is required")
	// ErrEmptyRange rejects a range that no value can satisfy, or that has no bound.
	ErrEmptyRange = errors.New("range matches nothing")
)

// Expression is a conjunction: every condition must hold. The zero value matches everything.
type Expression struct {
	conditions []Condition
}

// NewExpression combines conditions.
func NewExpression(conditions ...Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many conditions: %d (max %d)", len(conditions), MaxConditions)
	}
	return Expression{conditions: slices.Clone(conditions)}, nil
}

// Conditions returns the conditions in insertion order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether e matches everything.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// And returns a copy of e extended with c; e is unchanged.
func (e Expression) And(c Condition) Expression {
	return Expression{conditions: append(slices.Clip(e.conditions), c)}
}

// Condition is one clause: a tag any-of match or a numeric range on a field.
type Condition struct {
	key   string
	anyOf []string
	rng   *Range
}

// NewAnyOf matches documents whose field holds at least one of values.
// Duplicate values are dropped, keeping the first occurrence.
func NewAnyOf(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, ErrEmptyKey
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("filter %q: at least one value is required", key)
	}

	uniq := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("filter %q: empty value", key)
		}
		if !slices.Contains(uniq, v) {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) > MaxValuesPerCondition {
		return Condition{}, fmt.Errorf("filter %q: too many values: %d (max %d)", key, len(uniq), MaxValuesPerCondition)
	}
	return Condition{key: key, anyOf: uniq}, nil
}

// NewMatch is NewAnyOf with a single value.
func NewMatch(key, value string) (Condition, error) {
	return NewAnyOf(key, value)
}

// NewRange matches documents whose numeric field lies within r.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, ErrEmptyKey
	}
	if r.lower == nil && r.upper == nil {
		return Condition{}, fmt.Errorf("filter %q: %w", key, ErrEmptyRange)
	}
	return Condition{key: key, rng: &r}, nil
}

func (c Condition) Key() string { return c.key }

// AnyOf returns the accepted tag values; nil for a range condition.
func (c Condition) AnyOf() []string { return c.anyOf }

// Range returns the range; nil for a tag condition.
func (c Condition) Range() *Range { return c.rng }

func (c Condition) IsMatch() bool { return len(c.anyOf) > 0 }

func (c Condition) IsRange() bool { return c.rng != nil }

// Bound is one end of a Range.
type Bound struct {
	Value     float64
	Exclusive bool
}

// Inclusive returns a bound that admits v.
func Inclusive(v float64) *Bound { return &Bound{Value: v} }

// Exclusive returns a bound that stops just short of v.
func Exclusive(v float64) *Bound { return &Bound{Value: v, Exclusive: true} }

// Range is a numeric interval; a nil end is unbounded.
type Range struct {
	lower *Bound
	upper *Bound
}

// Between builds a range. At least one end is required, and the interval must not be empty.
func Between(lower, upper *Bound) (Range, error) {
	if lower == nil && upper == nil {
		return Range{}, ErrEmptyRange
	}
	if lower != nil && upper != nil {
		if lower.Value > upper.Value ||
			(lower.Value == upper.Value && (lower.Exclusive || upper.Exclusive)) {
			return Range{}, fmt.Errorf("%w: lower %v above upper %v", ErrEmptyRange, lower.Value, upper.Value)
		}
	}
	r := Range{}
	if lower != nil {
		b := *lower
		r.lower = &b
	}
	if upper != nil {
		b := *upper
		r.upper = &b
	}
	return r, nil
}

// Lower returns the lower end, or nil when unbounded below.
func (r Range) Lower() *Bound { return r.lower }

// Upper returns the upper end, or nil when unbounded above.
func (r Range) Upper() *Bound { return r.upper }

// Contains reports whether v lies within r.
func (r Range) Contains(v float64) bool {
	if b := r.lower; b != nil && (v < b.Value || (b.Exclusive && v == b.Value)) {
		return false
	}
	if b := r.upper; b != nil && (v > b.Value || (b.Exclusive && v == b.Value)) {
		return false
	}
	return true
}
