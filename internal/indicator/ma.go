package indicator

import "math"

// SMA is the arithmetic mean of the trailing period values. Undefined for
// index < period-1.
func SMA(values []float64, period int) []Value {
	out := Series(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = some(sum / float64(period))
		}
	}
	return out
}

// EMA seeds with the SMA of the first period values, then applies
// ema[i] = (v[i]-ema[i-1])*k + ema[i-1] with k = 2/(period+1).
func EMA(values []float64, period int) []Value {
	out := Series(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = some(seed)

	k := 2.0 / (float64(period) + 1.0)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = some(prev)
	}
	return out
}

// BollingerBands returns middle (SMA), upper and lower bands. The half-width
// is mult times the population standard deviation of the trailing window.
func BollingerBands(closes []float64, period int, mult float64) (middle, upper, lower []Value) {
	middle = SMA(closes, period)
	upper = Series(len(closes))
	lower = Series(len(closes))
	for i := range closes {
		if !middle[i].Valid {
			continue
		}
		mean := middle[i].V
		var sq float64
		for _, v := range closes[i-period+1 : i+1] {
			d := v - mean
			sq += d * d
		}
		half := mult * math.Sqrt(sq/float64(period))
		upper[i] = some(mean + half)
		lower[i] = some(mean - half)
	}
	return middle, upper, lower
}

// DonchianChannel returns the trailing-window max high, min low, and their
// midpoint.
func DonchianChannel(highs, lows []float64, period int) (upper, lower, middle []Value) {
	n := len(highs)
	upper = Series(n)
	lower = Series(n)
	middle = Series(n)
	if period <= 0 || n < period || len(lows) != n {
		return upper, lower, middle
	}
	for i := period - 1; i < n; i++ {
		hi := highs[i-period+1]
		lo := lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		upper[i] = some(hi)
		lower[i] = some(lo)
		middle[i] = some((hi + lo) / 2)
	}
	return upper, lower, middle
}
