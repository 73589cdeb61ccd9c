package signal

import "IntraScan/internal/domain/models"

// buildRiskPlan derives the stop from ATR and the recent swing (whichever
// is tighter), sets three staged ATR-multiple targets, and computes the
// risk:reward from the middle target. No valid plan means no signal,
// regardless of strength.
func (o *Orchestrator) buildRiskPlan(in Input, dir models.Direction) (models.RiskPlan, bool) {
	var plan models.RiskPlan
	atr := in.Snapshot.ATR14
	if atr <= 0 {
		return plan, false
	}
	entry := in.Candles[len(in.Candles)-1].Close
	plan.Entry = entry

	swingHi, swingLo := extremes(in.Candles[:len(in.Candles)-1], o.cfg.SwingBars)

	if dir == models.DirectionLong {
		stop := entry - o.cfg.StopATRMult*atr
		if swingLo > stop && swingLo < entry {
			stop = swingLo
		}
		if stop >= entry {
			return plan, false
		}
		plan.Stop = stop
		plan.Targets = [3]float64{entry + atr, entry + 2*atr, entry + 3*atr}
	} else {
		stop := entry + o.cfg.StopATRMult*atr
		if swingHi < stop && swingHi > entry {
			stop = swingHi
		}
		if stop <= entry {
			return plan, false
		}
		plan.Stop = stop
		plan.Targets = [3]float64{entry - atr, entry - 2*atr, entry - 3*atr}
	}

	risk := plan.Entry - plan.Stop
	if dir == models.DirectionShort {
		risk = plan.Stop - plan.Entry
	}
	if risk <= 0 {
		return plan, false
	}
	reward := plan.Targets[1] - plan.Entry
	if dir == models.DirectionShort {
		reward = plan.Entry - plan.Targets[1]
	}
	plan.RiskReward = reward / risk
	if plan.RiskReward < o.cfg.MinRiskReward {
		return plan, false
	}
	return plan, true
}
