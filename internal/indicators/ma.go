// Package indicators provides stateless rolling-window computations over
// ordered candle slices. Every function is pure: identical input yields
// identical output, and insufficient data yields an empty series rather
// than partial values.
package indicators

import "math"

// SMA returns the simple moving average series. The value at index i
// covers values[i : i+period]. Empty when len(values) < period.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA returns the exponential moving average series, seeded with the SMA of
// the first period and continued with multiplier 2/(period+1).
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	mult := 2.0 / float64(period+1)
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = (v-prev)*mult + prev
		out = append(out, prev)
	}
	return out
}

// MACD returns the MACD line (EMA(fast) − EMA(slow)), its signal line
// (EMA(signalPeriod) of the MACD line) and the histogram. All three series
// are aligned to the signal line; empty when there is not enough data for
// the signal seed.
func MACD(values []float64, fast, slow, signalPeriod int) (macd, signal, hist []float64) {
	if fast >= slow || len(values) < slow+signalPeriod-1 {
		return nil, nil, nil
	}
	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)

	// emaFast is longer; align both to the slow series.
	offset := len(emaFast) - len(emaSlow)
	diff := make([]float64, len(emaSlow))
	for i := range emaSlow {
		diff[i] = emaFast[i+offset] - emaSlow[i]
	}

	signal = EMA(diff, signalPeriod)
	if len(signal) == 0 {
		return nil, nil, nil
	}
	macd = diff[len(diff)-len(signal):]
	hist = make([]float64, len(signal))
	for i := range signal {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}

// Bollinger returns upper, middle and lower bands: SMA(period) ± k·stddev
// over the same window.
func Bollinger(values []float64, period int, k float64) (upper, mid, lower []float64) {
	mid = SMA(values, period)
	if len(mid) == 0 {
		return nil, nil, nil
	}
	upper = make([]float64, len(mid))
	lower = make([]float64, len(mid))
	for i := range mid {
		window := values[i : i+period]
		var ss float64
		for _, v := range window {
			d := v - mid[i]
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return upper, mid, lower
}
