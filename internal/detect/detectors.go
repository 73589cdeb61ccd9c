package detect

import (
	"math"

	"IntraScan/internal/domain/models"
)

// earlyExpansion fires when the move since session open is large relative
// to the elapsed slice of the early window.
func (e *Engine) earlyExpansion(in Input) *models.DetectionEvent {
	if in.SessionOpen.IsZero() || in.Now.Before(in.SessionOpen) {
		return nil
	}
	elapsed := in.Now.Sub(in.SessionOpen)
	if elapsed > e.cfg.EarlyWindow {
		return nil
	}
	move := in.State.ChangeFromOpenPct
	if math.Abs(move) < e.cfg.EarlyMovePct {
		return nil
	}
	return &models.DetectionEvent{
		Type:      models.DetectEarlyExpansion,
		Direction: directionOf(move),
		Strength:  clamp01(math.Abs(move) / (2 * e.cfg.EarlyMovePct)),
	}
}

// priceAcceleration compares the most recent N-bar move against the mean of
// the two preceding N-bar moves.
func (e *Engine) priceAcceleration(in Input) *models.DetectionEvent {
	n := e.cfg.AccelBars
	if n <= 0 || len(in.Candles) < 3*n+1 {
		return nil
	}
	c := in.Candles
	end := len(c) - 1
	recent := c[end].Close - c[end-n].Close
	prev1 := math.Abs(c[end-n].Close - c[end-2*n].Close)
	prev2 := math.Abs(c[end-2*n].Close - c[end-3*n].Close)
	base := (prev1 + prev2) / 2
	if base == 0 {
		return nil
	}
	ratio := math.Abs(recent) / base
	if ratio < e.cfg.AccelRatio {
		return nil
	}
	return &models.DetectionEvent{
		Type:      models.DetectPriceAccel,
		Direction: directionOf(recent),
		Strength:  clamp01(ratio / (2 * e.cfg.AccelRatio)),
	}
}

// volumeAcceleration requires the current bar volume to beat both the
// trailing average and a shorter recent average, with a monotonic rise over
// the last three bars.
func (e *Engine) volumeAcceleration(in Input) *models.DetectionEvent {
	if in.Snapshot == nil || in.Snapshot.VolAvg20 <= 0 || len(in.Candles) < 6 {
		return nil
	}
	c := in.Candles
	lastBar := c[len(c)-1]

	trailingRatio := lastBar.Volume / in.Snapshot.VolAvg20
	if trailingRatio < e.cfg.VolumeRatio {
		return nil
	}

	var recentSum float64
	for _, b := range c[len(c)-6 : len(c)-1] {
		recentSum += b.Volume
	}
	recentAvg := recentSum / 5
	if recentAvg <= 0 || lastBar.Volume/recentAvg < e.cfg.RecentVolRatio {
		return nil
	}

	for i := len(c) - 3; i < len(c); i++ {
		if c[i].Volume < c[i-1].Volume {
			return nil
		}
	}

	return &models.DetectionEvent{
		Type:      models.DetectVolumeAccel,
		Direction: directionOf(lastBar.Close - lastBar.Open),
		Strength:  clamp01(trailingRatio / (2 * e.cfg.VolumeRatio)),
	}
}

// sustainedRunner looks for consecutive same-direction bars with magnitude
// and volume support.
func (e *Engine) sustainedRunner(in Input) *models.DetectionEvent {
	c := in.Candles
	if len(c) < e.cfg.RunnerMinBars+1 {
		return nil
	}
	end := len(c) - 1
	dir := 0.0
	if d := c[end].Close - c[end-1].Close; d > 0 {
		dir = 1
	} else if d < 0 {
		dir = -1
	} else {
		return nil
	}

	run := 0
	for i := end; i > 0; i-- {
		d := c[i].Close - c[i-1].Close
		if d*dir <= 0 {
			break
		}
		run++
	}
	if run < e.cfg.RunnerMinBars {
		return nil
	}

	start := c[end-run].Close
	if start <= 0 {
		return nil
	}
	movePct := math.Abs(c[end].Close-start) / start * 100
	if movePct < e.cfg.RunnerMinMovePct {
		return nil
	}

	if in.Snapshot != nil && in.Snapshot.VolAvg20 > 0 && c[end].Volume < in.Snapshot.VolAvg20 {
		return nil
	}

	return &models.DetectionEvent{
		Type:      models.DetectRunner,
		Direction: directionOf(dir),
		Strength:  clamp01(float64(run)/(2*float64(e.cfg.RunnerMinBars)) + movePct/(4*e.cfg.RunnerMinMovePct)),
	}
}

// oiBuildup classifies sign(ΔOI) × sign(Δprice) against the configured
// threshold into the four buildup quadrants.
func (e *Engine) oiBuildup(in Input) *models.DetectionEvent {
	if in.PrevOI <= 0 || in.State.LastOI <= 0 {
		return nil
	}
	oiPct := (in.State.LastOI - in.PrevOI) / in.PrevOI * 100
	if math.Abs(oiPct) < e.cfg.OIChangePct {
		return nil
	}
	pricePct := in.State.ChangePct

	var class models.OIClass
	var dir models.Direction
	switch {
	case oiPct > 0 && pricePct > 0:
		class, dir = models.OILongBuildup, models.DirectionLong
	case oiPct > 0 && pricePct < 0:
		class, dir = models.OIShortBuildup, models.DirectionShort
	case oiPct < 0 && pricePct > 0:
		class, dir = models.OIShortCovering, models.DirectionLong
	case oiPct < 0 && pricePct < 0:
		class, dir = models.OILongUnwinding, models.DirectionShort
	default:
		return nil
	}

	return &models.DetectionEvent{
		Type:      models.DetectOIBuildup,
		Direction: dir,
		Strength:  clamp01(math.Abs(oiPct) / (2 * e.cfg.OIChangePct)),
		OIClass:   class,
	}
}

// optionRangeExpansion fires for option instruments whose latest bar range
// expands past a multiple of the recent average bar range.
func (e *Engine) optionRangeExpansion(in Input) *models.DetectionEvent {
	if !in.IsOption || len(in.Candles) < 11 {
		return nil
	}
	c := in.Candles
	lastBar := c[len(c)-1]
	lastRange := lastBar.High - lastBar.Low

	var sum float64
	for _, b := range c[len(c)-11 : len(c)-1] {
		sum += b.High - b.Low
	}
	avg := sum / 10
	if avg <= 0 {
		return nil
	}
	ratio := lastRange / avg
	if ratio < e.cfg.OptionRangeRatio {
		return nil
	}
	return &models.DetectionEvent{
		Type:      models.DetectOptionRangeExp,
		Direction: directionOf(lastBar.Close - lastBar.Open),
		Strength:  clamp01(ratio / (2 * e.cfg.OptionRangeRatio)),
	}
}
