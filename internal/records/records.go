// Package records defines the loosely-typed record model that flows between
// the extract and cleaning stages, plus the Transformer contract the cleaning
// chain is built from.
package records

// Record is a single parsed input row keyed by canonical field name. Values
// start out as raw strings from the CSV reader; cleaning stages may replace
// them with typed values (int64, time.Time, decimal.Decimal, ...).
type Record map[string]any

// String returns the value for key when it is a string, or "" otherwise.
func (r Record) String(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Has reports whether key is present with a non-nil, non-empty value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Transformer is a single step of the cleaning chain.
type Transformer interface {
	Apply([]Record) []Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer in order, feeding the output of one into the
// next.
func (c Chain) Apply(in []Record) []Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
