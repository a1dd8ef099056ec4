package search

import "reflect"

// Equal reports whether two param sets are structurally identical.
// Empty and nil param sets compare equal.
func Equal(a, b Params) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

// Merge returns a new param set with b's keys layered over a.
// A nil value in b deletes the key. Neither input is mutated.
func Merge(a, b Params) Params {
	out := make(Params, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of p. Nested values are shared; the
// codec treats decoded values as immutable.
func Clone(p Params) Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
