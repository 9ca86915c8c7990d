package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Column headers of the scheduler exports.
const (
	ColJobName        = "Nome Job"
	ColType           = "Tipo"
	ColPredecessorJob = "Nome Job Predecessore"
	ColPredecessorNet = "Net Predecessore"
	ColSuccessorJob   = "Nome Job Successore"
	ColSuccessorNet   = "Net Successore"
	ColInstructions   = "Istruzioni"

	// ColNet is the optional network column of auxiliary detail files.
	ColNet = "Net"
	// ColExternalNet is the enrichment key added to every external node.
	ColExternalNet = "Rete Esterna"
	// ColDescription is read from auxiliary detail files for dependency listings.
	ColDescription = "Descrizione"
)

// Record is an ordered mapping from column header to value.
// Values are never coerced: everything stays a string.
// The zero value is an empty record ready to use.
type Record struct {
	fields *orderedmap.OrderedMap[string, string]
}

// NewRecord creates an empty record.
func NewRecord() Record {
	return Record{fields: orderedmap.New[string, string]()}
}

// RecordOf builds a record from alternating column/value pairs.
// A trailing column without value is stored as empty.
func RecordOf(pairs ...string) Record {
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		val := ""
		if i+1 < len(pairs) {
			val = pairs[i+1]
		}
		r.fields.Set(pairs[i], val)
	}
	return r
}

// Get returns the value stored for col and whether the column is present.
func (r Record) Get(col string) (string, bool) {
	if r.fields == nil {
		return "", false
	}
	return r.fields.Get(col)
}

// Value returns the value stored for col, or "" when absent.
func (r Record) Value(col string) string {
	v, _ := r.Get(col)
	return v
}

// Set stores val under col. New columns are appended after existing ones,
// existing columns keep their position.
func (r *Record) Set(col, val string) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, string]()
	}
	r.fields.Set(col, val)
}

// Delete removes col from the record.
func (r *Record) Delete(col string) {
	if r.fields == nil {
		return
	}
	r.fields.Delete(col)
}

// Keys returns the columns in insertion order.
func (r Record) Keys() []string {
	if r.fields == nil {
		return nil
	}
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of columns.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Each calls fn for every column in order.
func (r Record) Each(fn func(col, val string)) {
	if r.fields == nil {
		return
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Clone returns a deep copy, so the copy can be enriched without touching r.
func (r Record) Clone() Record {
	c := NewRecord()
	r.Each(func(col, val string) {
		c.fields.Set(col, val)
	})
	return c
}

// Equal reports whether both records hold the same columns, in the same order,
// with the same values.
func (r Record) Equal(other Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	a, b := r.Keys(), other.Keys()
	for i := range a {
		if a[i] != b[i] || r.Value(a[i]) != other.Value(b[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.fields = orderedmap.New[string, string]()
	return r.fields.UnmarshalJSON(data)
}
