package signal

import "IntraScan/internal/domain/models"

// breakoutCheck is the outcome of the mandatory + 2-of-3 breakout gate.
type breakoutCheck struct {
	Valid       bool
	Direction   models.Direction
	OptionalMet int
	FailReason  string
	FailDetail  string
}

// checkBreakout applies the breakout validity rule: both mandatory
// conditions (price beyond the trailing N-bar extreme, volume ratio above
// the effective threshold) AND at least 2 of 3 optional conditions (MA
// alignment, RSI inside the directional band, ATR% under the ceiling).
// The 2-of-3 rule tolerates one weak confirming factor without admitting
// unconfirmed noise.
func (o *Orchestrator) checkBreakout(in Input) breakoutCheck {
	out := breakoutCheck{Direction: in.Composite.Direction}

	n := o.cfg.LookbackBars
	if len(in.Candles) < n+1 {
		out.FailReason = ReasonNoBreakout
		out.FailDetail = "insufficient candles for lookback"
		return out
	}
	lastClose := in.Candles[len(in.Candles)-1].Close
	hi, lo := extremes(in.Candles[:len(in.Candles)-1], n)

	// Mandatory 1: price beyond the trailing extreme, which also fixes the
	// direction when the detectors did not vote one.
	switch {
	case lastClose > hi:
		if out.Direction == models.DirectionShort {
			out.FailReason = ReasonNoBreakout
			out.FailDetail = "detector direction conflicts with extreme cross"
			return out
		}
		out.Direction = models.DirectionLong
	case lastClose < lo:
		if out.Direction == models.DirectionLong {
			out.FailReason = ReasonNoBreakout
			out.FailDetail = "detector direction conflicts with extreme cross"
			return out
		}
		out.Direction = models.DirectionShort
	default:
		out.FailReason = ReasonNoBreakout
		out.FailDetail = "price inside trailing range"
		return out
	}

	// Mandatory 2: volume confirmation against the effective (possibly
	// adaptively tightened) threshold.
	volThreshold := in.Thresholds.VolumeRatio
	if volThreshold <= 0 {
		volThreshold = o.cfg.VolumeRatio
	}
	if in.Snapshot.VolRatio < volThreshold {
		out.FailReason = ReasonVolumeBelow
		return out
	}

	// Optional 2-of-3.
	if o.maAligned(in.Snapshot, out.Direction) {
		out.OptionalMet++
	}
	if o.rsiInBand(in.Snapshot.RSI14, out.Direction, in.Thresholds.RSITighten) {
		out.OptionalMet++
	}
	ceiling := in.Thresholds.ATRPctCeiling
	if ceiling <= 0 {
		ceiling = o.cfg.ATRPctCeiling
	}
	if in.Snapshot.ATRPct > 0 && in.Snapshot.ATRPct <= ceiling {
		out.OptionalMet++
	}

	if out.OptionalMet < 2 {
		out.FailReason = ReasonOptionalWeak
		return out
	}

	out.Valid = true
	return out
}

func (o *Orchestrator) maAligned(snap *models.IndicatorSnapshot, dir models.Direction) bool {
	if dir == models.DirectionLong {
		return snap.EMA20 > snap.EMA50 && snap.Close > snap.EMA20
	}
	return snap.EMA20 < snap.EMA50 && snap.Close < snap.EMA20
}

func (o *Orchestrator) rsiInBand(rsi float64, dir models.Direction, tighten float64) bool {
	if dir == models.DirectionLong {
		return rsi >= o.cfg.RSILongMin+tighten && rsi <= o.cfg.RSILongMax-tighten
	}
	return rsi >= o.cfg.RSIShortMin+tighten && rsi <= o.cfg.RSIShortMax-tighten
}

// extremes returns the highest high and lowest low over the trailing n bars
// of candles.
func extremes(candles []models.Candle, n int) (hi, lo float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	start := len(candles) - n
	if start < 0 {
		start = 0
	}
	window := candles[start:]
	hi, lo = window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	return hi, lo
}
