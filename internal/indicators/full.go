package indicators

import (
	"errors"

	"IntraScan/internal/domain/models"
)

// MinCandles is the minimum series length Full accepts. Below it no numeric
// field is trustworthy, so Full fails explicitly instead of returning
// partial values.
const MinCandles = 50

// ErrInsufficientData is returned by Full when the candle series is too
// short. Callers must branch on it before reading any snapshot field.
var ErrInsufficientData = errors.New("insufficient data")

// Full composes all indicators into a single labeled snapshot plus the
// derived categorical fields. Pure: re-running it on the same series yields
// an identical snapshot.
func Full(candles []models.Candle) (*models.IndicatorSnapshot, error) {
	if len(candles) < MinCandles {
		return nil, ErrInsufficientData
	}

	closes := Closes(candles)
	snap := &models.IndicatorSnapshot{Close: last(closes)}

	snap.SMA20 = last(SMA(closes, 20))
	snap.EMA9 = last(EMA(closes, 9))
	snap.EMA20 = last(EMA(closes, 20))
	snap.EMA50 = last(EMA(closes, 50))

	snap.RSI14 = last(RSI(candles, 14))
	snap.ATR14 = last(ATR(candles, 14))
	if snap.Close > 0 {
		snap.ATRPct = snap.ATR14 / snap.Close * 100
	}

	snap.VolAvg20 = last(VolumeSMA(candles, 20))
	snap.LastVol = candles[len(candles)-1].Volume
	if snap.VolAvg20 > 0 {
		snap.VolRatio = snap.LastVol / snap.VolAvg20
	}
	snap.VWAP = last(VWAP(candles))

	up, mid, low := Bollinger(closes, 20, 2)
	snap.BBUpper, snap.BBMid, snap.BBLower = last(up), last(mid), last(low)

	macd, sig, hist := MACD(closes, 12, 26, 9)
	snap.MACD, snap.MACDSignal, snap.MACDHist = last(macd), last(sig), last(hist)

	k, d := Stochastic(candles, 14, 3)
	snap.StochK, snap.StochD = last(k), last(d)

	adx, pdi, mdi := ADX(candles, 14)
	snap.ADX, snap.PlusDI, snap.MinusDI = last(adx), last(pdi), last(mdi)

	snap.EMATrend = emaTrend(snap.EMA9, snap.EMA20, snap.EMA50)
	snap.RSIZone = rsiZone(snap.RSI14)
	snap.ADXTrend = adxTrend(snap.ADX)

	return snap, nil
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

func emaTrend(e9, e20, e50 float64) string {
	switch {
	case e9 > e20 && e20 > e50:
		return "bullish"
	case e9 < e20 && e20 < e50:
		return "bearish"
	default:
		return "mixed"
	}
}

func rsiZone(rsi float64) string {
	switch {
	case rsi < 30:
		return "oversold"
	case rsi < 50:
		return "neutral"
	case rsi < 70:
		return "bullish"
	default:
		return "overbought"
	}
}

func adxTrend(adx float64) string {
	switch {
	case adx < 20:
		return "none"
	case adx < 25:
		return "weak"
	case adx < 40:
		return "strong"
	default:
		return "very_strong"
	}
}
