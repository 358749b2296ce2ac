package indicator

import "math"

// TrueRange for bar i; the first bar has no previous close and uses
// high-low only.
func trueRange(highs, lows, closes []float64, i int) float64 {
	hl := highs[i] - lows[i]
	if i == 0 {
		return hl
	}
	hc := math.Abs(highs[i] - closes[i-1])
	lc := math.Abs(lows[i] - closes[i-1])
	return math.Max(hl, math.Max(hc, lc))
}

// ATR is the EMA-smoothed true range.
func ATR(highs, lows, closes []float64, period int) []Value {
	n := len(highs)
	out := Series(n)
	if period <= 0 || n < period || len(lows) != n || len(closes) != n {
		return out
	}
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		tr[i] = trueRange(highs, lows, closes, i)
	}
	return EMA(tr, period)
}

// ADX computes Wilder's average directional index. Directional movement is
// taken from consecutive high/low deltas; only the larger, positive delta
// counts and ties cancel both. Needs at least 2*period bars.
func ADX(highs, lows, closes []float64, period int) []Value {
	n := len(highs)
	out := Series(n)
	if period <= 0 || n < 2*period || len(lows) != n || len(closes) != n {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
		tr[i] = trueRange(highs, lows, closes, i)
	}

	// Wilder smoothing: seed with plain sums over the first period bars,
	// then smoothed = prev - prev/period + current.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	p := float64(period)
	dx := make([]float64, n)
	dxValid := make([]bool, n)
	record := func(i int) {
		if smTR == 0 {
			return
		}
		plusDI := 100 * smPlus / smTR
		minusDI := 100 * smMinus / smTR
		if sum := plusDI + minusDI; sum > 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
			dxValid[i] = true
		}
	}
	record(period)
	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/p + tr[i]
		smPlus = smPlus - smPlus/p + plusDM[i]
		smMinus = smMinus - smMinus/p + minusDM[i]
		record(i)
	}

	// ADX seeds as the mean of the first period DX values, then is itself
	// Wilder-smoothed.
	var sum float64
	for i := period; i < 2*period; i++ {
		if !dxValid[i] {
			return out
		}
		sum += dx[i]
	}
	adx := sum / p
	out[2*period-1] = some(adx)
	for i := 2 * period; i < n; i++ {
		if !dxValid[i] {
			out[i] = some(adx)
			continue
		}
		adx = (adx*(p-1) + dx[i]) / p
		out[i] = some(adx)
	}
	return out
}
