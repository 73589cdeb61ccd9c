package models

// IndicatorSnapshot is a derived, immutable value computed from a candle
// series at a point in time. It has no persisted identity and is recomputed
// on every scan cycle.
type IndicatorSnapshot struct {
	Close float64

	SMA20 float64
	EMA9  float64
	EMA20 float64
	EMA50 float64

	RSI14  float64
	ATR14  float64
	ATRPct float64

	VolAvg20  float64
	LastVol   float64
	VolRatio  float64
	VWAP      float64

	BBUpper float64
	BBMid   float64
	BBLower float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	StochK float64
	StochD float64

	ADX     float64
	PlusDI  float64
	MinusDI float64

	// Categorical fields derived from fixed threshold tables.
	EMATrend string // "bullish", "bearish", "mixed"
	RSIZone  string // "oversold", "neutral", "bullish", "overbought"
	ADXTrend string // "none", "weak", "strong", "very_strong"
}
