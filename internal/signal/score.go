package signal

import (
	"math"

	"IntraScan/internal/domain/models"
)

// scoreStrength is the additive strength score: breakout validity, volume
// tier, higher-timeframe alignment, institutional-bar detection and
// risk:reward quality.
func (o *Orchestrator) scoreStrength(in Input, bo breakoutCheck, risk models.RiskPlan) float64 {
	score := 0.3 // breakout already validated

	switch {
	case in.Snapshot.VolRatio >= 3:
		score += 0.2
	case in.Snapshot.VolRatio >= 2:
		score += 0.1
	}

	if in.HTF != nil && htfAligned(in.HTF, bo.Direction) {
		score += 0.2
	}

	if institutionalBar(in) {
		score += 0.1
	}

	switch {
	case risk.RiskReward >= 2:
		score += 0.2
	case risk.RiskReward >= 1.5:
		score += 0.1
	}

	return math.Min(1, score)
}

func htfAligned(htf *models.IndicatorSnapshot, dir models.Direction) bool {
	if dir == models.DirectionLong {
		return htf.EMATrend == "bullish"
	}
	return htf.EMATrend == "bearish"
}

// institutionalBar flags a last bar whose range and volume both dwarf the
// recent norm.
func institutionalBar(in Input) bool {
	last := in.Candles[len(in.Candles)-1]
	if in.Snapshot.ATR14 <= 0 || in.Snapshot.VolAvg20 <= 0 {
		return false
	}
	return (last.High-last.Low) > 1.5*in.Snapshot.ATR14 && last.Volume > 2*in.Snapshot.VolAvg20
}

// classify applies the second, stricter gate for the STRONG label: tighter
// volume and risk:reward mandatory, then 2 of 3 among RSI band, ADX
// strength and the trend label. Strength-score inflation alone can never
// produce a STRONG classification.
func (o *Orchestrator) classify(in Input, bo breakoutCheck, risk models.RiskPlan) models.Classification {
	base := models.ClassBuy
	strong := models.ClassStrongBuy
	if bo.Direction == models.DirectionShort {
		base = models.ClassSell
		strong = models.ClassStrongSell
	}

	if in.Snapshot.VolRatio < o.cfg.StrongVolumeRatio || risk.RiskReward < o.cfg.StrongMinRR {
		return base
	}

	met := 0
	if o.rsiInBand(in.Snapshot.RSI14, bo.Direction, 5) {
		met++
	}
	if in.Snapshot.ADX >= 25 {
		met++
	}
	if trendLabelMatches(in.Snapshot, bo.Direction) {
		met++
	}
	if met >= 2 {
		return strong
	}
	return base
}

func trendLabelMatches(snap *models.IndicatorSnapshot, dir models.Direction) bool {
	if dir == models.DirectionLong {
		return snap.EMATrend == "bullish"
	}
	return snap.EMATrend == "bearish"
}

// rankScore is a separately weighted 0–100 combination used purely for
// ordering among already-valid signals; it is decoupled from the
// classification decision.
func (o *Orchestrator) rankScore(in Input, bo breakoutCheck, strength float64) float64 {
	score := strength * 40
	score += math.Min(in.Composite.Severity, 2) * 15
	score += math.Min(in.Snapshot.VolRatio, 5) * 3
	score += math.Min(math.Abs(in.State.RelStrength), 3) * 3
	score += math.Min(in.Snapshot.ADX, 50) / 5
	score += float64(bo.OptionalMet) * 2
	return math.Min(100, math.Max(0, score))
}
