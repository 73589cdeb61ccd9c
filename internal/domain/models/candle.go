package models

import "time"

// Candle represents an OHLCV bar for a fixed time bucket.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
