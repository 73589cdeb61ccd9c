package indicators

import "IntraScan/internal/domain/models"

// RSI returns the relative strength index using Wilder smoothing of the
// average gain and loss. The first value covers candles[0 : period+1].
func RSI(candles []models.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period+1 {
		return nil
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := candles[i].Close - candles[i-1].Close
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(candles)-period)
	out = append(out, rsiValue(avgGain, avgLoss))
	p := float64(period)
	for i := period + 1; i < len(candles); i++ {
		d := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Stochastic returns %K (raw stochastic over kPeriod) and %D (SMA(dPeriod)
// of %K). %D is aligned to the end of %K.
func Stochastic(candles []models.Candle, kPeriod, dPeriod int) (k, d []float64) {
	if kPeriod <= 0 || len(candles) < kPeriod {
		return nil, nil
	}
	k = make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		hi, lo := candles[i-kPeriod+1].High, candles[i-kPeriod+1].Low
		for _, c := range candles[i-kPeriod+2 : i+1] {
			if c.High > hi {
				hi = c.High
			}
			if c.Low < lo {
				lo = c.Low
			}
		}
		if hi == lo {
			k = append(k, 50)
			continue
		}
		k = append(k, (candles[i].Close-lo)/(hi-lo)*100)
	}
	d = SMA(k, dPeriod)
	return k, d
}
