// Package indicator provides pure, stateless technical indicators over
// ordered price sequences. Every function returns a series the same length
// as its input; positions before enough history exists carry an invalid
// Value rather than a poisoned number.
package indicator

// Value is one indicator output. Valid is false while the indicator has not
// seen enough history to be defined at that index.
type Value struct {
	V     float64
	Valid bool
}

func some(v float64) Value { return Value{V: v, Valid: true} }

// Series allocates an all-invalid series of length n.
func Series(n int) []Value { return make([]Value, n) }

// Last returns the final valid value of a series, if any.
func Last(series []Value) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Valid {
			return series[i].V, true
		}
	}
	return 0, false
}
