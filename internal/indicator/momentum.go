package indicator

// RSI uses Wilder's smoothing: seed average gain/loss as simple means over
// the first period deltas, then avg = (avg*(period-1)+new)/period.
// When the average loss is exactly zero the RSI is 100.
func RSI(closes []float64, period int) []Value {
	out := Series(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = some(rsiValue(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
		out[i] = some(rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (fast EMA - slow EMA), its signal EMA and the
// histogram (macd - signal). The signal line is an EMA of the MACD line
// restricted to its first defined index.
func MACD(closes []float64, fast, slow, signalPeriod int) (macd, signal, histogram []Value) {
	n := len(closes)
	macd = Series(n)
	signal = Series(n)
	histogram = Series(n)

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	firstDefined := -1
	for i := 0; i < n; i++ {
		if fastEMA[i].Valid && slowEMA[i].Valid {
			macd[i] = some(fastEMA[i].V - slowEMA[i].V)
			if firstDefined < 0 {
				firstDefined = i
			}
		}
	}
	if firstDefined < 0 {
		return macd, signal, histogram
	}

	line := make([]float64, 0, n-firstDefined)
	for i := firstDefined; i < n; i++ {
		line = append(line, macd[i].V)
	}
	sigEMA := EMA(line, signalPeriod)
	for j, sv := range sigEMA {
		if !sv.Valid {
			continue
		}
		i := firstDefined + j
		signal[i] = some(sv.V)
		histogram[i] = some(macd[i].V - sv.V)
	}
	return macd, signal, histogram
}
