package indicators

import (
	"math"

	"IntraScan/internal/domain/models"
)

// trueRange for candle i (i >= 1).
func trueRange(candles []models.Candle, i int) float64 {
	hl := candles[i].High - candles[i].Low
	hc := math.Abs(candles[i].High - candles[i-1].Close)
	lc := math.Abs(candles[i].Low - candles[i-1].Close)
	return math.Max(hl, math.Max(hc, lc))
}

// ATR returns the Wilder-smoothed average true range. The first value
// covers candles[0 : period+1].
func ATR(candles []models.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period+1 {
		return nil
	}
	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRange(candles, i)
	}
	prev := sum / float64(period)

	out := make([]float64, 0, len(candles)-period)
	out = append(out, prev)
	p := float64(period)
	for i := period + 1; i < len(candles); i++ {
		prev = (prev*(p-1) + trueRange(candles, i)) / p
		out = append(out, prev)
	}
	return out
}

// ADX returns the Wilder-smoothed ADX, +DI and −DI series, all aligned with
// each other. The ADX seed needs 2·period candles, so the series are empty
// below that.
func ADX(candles []models.Candle, period int) (adx, plusDI, minusDI []float64) {
	if period <= 0 || len(candles) < 2*period+1 {
		return nil, nil, nil
	}
	n := len(candles)
	p := float64(period)

	// Wilder-smoothed TR, +DM, −DM.
	var trS, plusS, minusS float64
	for i := 1; i <= period; i++ {
		tr, pdm, mdm := dmComponents(candles, i)
		trS += tr
		plusS += pdm
		minusS += mdm
	}

	diPlus := make([]float64, 0, n-period)
	diMinus := make([]float64, 0, n-period)
	dx := make([]float64, 0, n-period)

	record := func() {
		var pd, md float64
		if trS > 0 {
			pd = plusS / trS * 100
			md = minusS / trS * 100
		}
		diPlus = append(diPlus, pd)
		diMinus = append(diMinus, md)
		sum := pd + md
		if sum == 0 {
			dx = append(dx, 0)
			return
		}
		dx = append(dx, math.Abs(pd-md)/sum*100)
	}
	record()

	for i := period + 1; i < n; i++ {
		tr, pdm, mdm := dmComponents(candles, i)
		trS = trS - trS/p + tr
		plusS = plusS - plusS/p + pdm
		minusS = minusS - minusS/p + mdm
		record()
	}

	// ADX = Wilder smoothing of DX, seeded with SMA(period) of DX.
	if len(dx) < period {
		return nil, nil, nil
	}
	var seed float64
	for _, v := range dx[:period] {
		seed += v
	}
	prev := seed / p
	adx = make([]float64, 0, len(dx)-period+1)
	adx = append(adx, prev)
	for _, v := range dx[period:] {
		prev = (prev*(p-1) + v) / p
		adx = append(adx, prev)
	}

	offset := len(diPlus) - len(adx)
	return adx, diPlus[offset:], diMinus[offset:]
}

func dmComponents(candles []models.Candle, i int) (tr, plusDM, minusDM float64) {
	up := candles[i].High - candles[i-1].High
	down := candles[i-1].Low - candles[i].Low
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	return trueRange(candles, i), plusDM, minusDM
}
