package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// TriState is a filter constraint: no constraint, require true, or require false.
// The zero value is Unset.
type TriState int8

const (
	Unset TriState = iota
	RequireTrue
	RequireFalse
)

// TriStateOf maps a plain boolean onto a constraint.
func TriStateOf(b bool) TriState {
	if b {
		return RequireTrue
	}
	return RequireFalse
}

// ParseTriState accepts "true", "false" and "" (or "null"/"any") as Unset.
func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "any":
		return Unset, nil
	case "true", "1", "yes":
		return RequireTrue, nil
	case "false", "0", "no":
		return RequireFalse, nil
	default:
		return Unset, fmt.Errorf("invalid tri-state value: %q", s)
	}
}

// Allows reports whether a POI with the given property value passes the constraint.
func (t TriState) Allows(has bool) bool {
	switch t {
	case RequireTrue:
		return has
	case RequireFalse:
		return !has
	default:
		return true
	}
}

func (t TriState) String() string {
	switch t {
	case RequireTrue:
		return "true"
	case RequireFalse:
		return "false"
	default:
		return "null"
	}
}

// MarshalJSON encodes the constraint as true, false or null.
func (t TriState) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("tri-state must be true, false or null: %w", err)
	}
	if b == nil {
		*t = Unset
		return nil
	}
	*t = TriStateOf(*b)
	return nil
}

// FilterCriteria is the set of independent predicates the ranker applies.
// Types is OR-combined; every other field is AND-combined with the rest.
type FilterCriteria struct {
	Types        []Amenity `json:"type"`
	Accessible   TriState  `json:"accessible"`
	BabyChanging TriState  `json:"baby_changing"`
	Paper        TriState  `json:"paper"`
	Soap         TriState  `json:"soap"`
	Sink         TriState  `json:"sink"`
	Free         TriState  `json:"free"`
}

// Key is a canonical representation of the criteria value. Two criteria with the same key
// select the same POIs.
func (c FilterCriteria) Key() string {
	types := make([]string, 0, len(c.Types))
	for _, t := range c.Types {
		types = append(types, string(t))
	}
	slices.Sort(types)
	types = slices.Compact(types)

	return fmt.Sprintf("type=%s;acc=%s;baby=%s;paper=%s;soap=%s;sink=%s;free=%s",
		strings.Join(types, ","), c.Accessible, c.BabyChanging, c.Paper, c.Soap, c.Sink, c.Free)
}
