package domain

import (
	"encoding/json"
	"sort"
)

// Set is a set of strings. A nil Set is empty and safe to query.
type Set map[string]struct{}

// NewSet builds a set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s Set) Add(v string) {
	s[v] = struct{}{}
}

// Len returns the number of items.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the items in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of strings.
func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}
