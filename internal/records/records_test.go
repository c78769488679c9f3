package records

import (
	"testing"
)

// TestRecordHelpers covers the String/Has/Clone accessors.
func TestRecordHelpers(t *testing.T) {
	t.Parallel()

	rec := Record{"a": "x", "b": int64(3), "c": nil, "d": ""}

	if rec.String("a") != "x" {
		t.Errorf("String(a) = %q", rec.String("a"))
	}
	if rec.String("b") != "" {
		t.Errorf("String(b) = %q, want empty for non-string", rec.String("b"))
	}
	if rec.String("missing") != "" {
		t.Errorf("String(missing) = %q", rec.String("missing"))
	}

	for key, want := range map[string]bool{
		"a": true, "b": true, "c": false, "d": false, "missing": false,
	} {
		if got := rec.Has(key); got != want {
			t.Errorf("Has(%s) = %v, want %v", key, got, want)
		}
	}

	clone := rec.Clone()
	clone["a"] = "changed"
	if rec.String("a") != "x" {
		t.Error("Clone shares state with the original")
	}
}

// appendMark is a toy transformer for chain-order verification.
type appendMark struct{ mark string }

func (a appendMark) Apply(in []Record) []Record {
	for _, r := range in {
		r["trail"] = r.String("trail") + a.mark
	}
	return in
}

// TestChainOrder verifies transformers run in declaration order.
func TestChainOrder(t *testing.T) {
	t.Parallel()

	c := Chain{appendMark{"a"}, appendMark{"b"}, appendMark{"c"}}
	out := c.Apply([]Record{{}})
	if got := out[0].String("trail"); got != "abc" {
		t.Errorf("trail = %q, want abc", got)
	}
}
