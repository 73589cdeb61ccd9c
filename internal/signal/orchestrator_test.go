package signal

import (
	"testing"
	"time"

	"IntraScan/internal/domain/models"
)

// breakoutCandles builds a series whose last close crosses above the
// trailing high.
func breakoutCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000}
	}
	out[n-1] = models.Candle{Open: 102, High: 106.5, Low: 101.5, Close: 106, Volume: 3500}
	return out
}

func evalInput(volRatio float64) Input {
	candles := breakoutCandles(60)
	return Input{
		Token: "ABC",
		State: &models.InstrumentState{Token: "ABC", TodayOpen: 100, LTP: 106, RelStrength: 1},
		Snapshot: &models.IndicatorSnapshot{
			Close:    106,
			EMA20:    103,
			EMA50:    101,
			RSI14:    65,
			ATR14:    1.4,
			ATRPct:   1.3,
			VolAvg20: 1000,
			VolRatio: volRatio,
			ADX:      30,
			EMATrend: "bullish",
		},
		Candles: candles,
		Composite: models.CompositeDetection{
			Token:      "ABC",
			Direction:  models.DirectionLong,
			Severity:   1.2,
			Actionable: true,
			Events:     []models.DetectionEvent{{Type: models.DetectRunner, Direction: models.DirectionLong, Strength: 0.8}},
		},
		Now: time.Now(),
	}
}

func TestBreakoutValidWithVolume(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	sig, rej := o.Evaluate(evalInput(3.0))
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if sig.Direction != models.DirectionLong {
		t.Fatalf("direction = %v, want LONG", sig.Direction)
	}
	if sig.Classification != models.ClassBuy && sig.Classification != models.ClassStrongBuy {
		t.Fatalf("classification = %v", sig.Classification)
	}
	if o.State("ABC") != models.StateScored {
		t.Fatalf("state = %v, want SCORED", o.State("ABC"))
	}
}

func TestBreakoutRejectedOnWeakVolume(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	sig, rej := o.Evaluate(evalInput(1.2))
	if sig != nil {
		t.Fatalf("expected no signal, got %+v", sig)
	}
	if rej == nil || rej.Reason != ReasonVolumeBelow {
		t.Fatalf("rejection = %+v, want volume mandatory failure", rej)
	}
}

func TestTwoOfThreeRule(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	in := evalInput(3.0)
	// Break two optionals: MA misaligned and RSI out of band. ATR% alone
	// cannot carry the gate.
	in.Snapshot.EMA20 = 99
	in.Snapshot.EMA50 = 101
	in.Snapshot.RSI14 = 85

	sig, rej := o.Evaluate(in)
	if sig != nil {
		t.Fatalf("expected rejection with only 1/3 optionals, got %+v", sig)
	}
	if rej.Reason != ReasonOptionalWeak {
		t.Fatalf("reason = %q, want %q", rej.Reason, ReasonOptionalWeak)
	}

	// Restore one optional: 2 of 3 is enough again.
	in.Snapshot.RSI14 = 65
	sig, rej = o.Evaluate(in)
	if sig == nil {
		t.Fatalf("expected signal with 2/3 optionals, got %+v", rej)
	}
}

func TestMandatoryAlwaysRequired(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	in := evalInput(3.0)
	// Price back inside the trailing range: all optionals fine, still no
	// signal.
	in.Candles[len(in.Candles)-1].Close = 101.5

	sig, rej := o.Evaluate(in)
	if sig != nil {
		t.Fatalf("expected rejection without extreme cross, got %+v", sig)
	}
	if rej.Reason != ReasonNoBreakout {
		t.Fatalf("reason = %q, want %q", rej.Reason, ReasonNoBreakout)
	}
}

func TestNoRiskRewardNoSignal(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	in := evalInput(3.0)
	in.Snapshot.ATR14 = 0 // no ATR, no stop, no plan

	sig, rej := o.Evaluate(in)
	if sig != nil {
		t.Fatalf("expected no signal without a risk plan, got %+v", sig)
	}
	if rej.Reason != ReasonNoRiskReward {
		t.Fatalf("reason = %q, want %q", rej.Reason, ReasonNoRiskReward)
	}
}

// raiseSwing lifts the lows of the bars feeding the swing stop so the stop
// tightens and the risk:reward clears the strict STRONG mandatory.
func raiseSwing(in Input) Input {
	n := len(in.Candles)
	for i := n - 11; i < n-1; i++ {
		in.Candles[i] = models.Candle{Open: 105.5, High: 105.8, Low: 105.2, Close: 105.6, Volume: 1000}
	}
	return in
}

func TestStrongRequiresStricterGate(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())

	// High volume + good RR + aligned trend: STRONG_BUY.
	in := raiseSwing(evalInput(3.5))
	sig, rej := o.Evaluate(in)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if sig.Classification != models.ClassStrongBuy {
		t.Fatalf("classification = %v, want STRONG_BUY", sig.Classification)
	}

	// Volume below the strict mandatory: plain BUY even though the
	// breakout itself passes comfortably.
	in = raiseSwing(evalInput(2.5))
	sig, rej = o.Evaluate(in)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if sig.Classification != models.ClassBuy {
		t.Fatalf("classification = %v, want BUY", sig.Classification)
	}
}

func TestAdaptiveThresholdAppliesImmediately(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	in := evalInput(2.5)
	in.Thresholds = Thresholds{VolumeRatio: 3.0}

	sig, rej := o.Evaluate(in)
	if sig != nil {
		t.Fatalf("expected rejection under tightened threshold, got %+v", sig)
	}
	if rej.Reason != ReasonVolumeBelow {
		t.Fatalf("reason = %q, want %q", rej.Reason, ReasonVolumeBelow)
	}
}

func TestRankScoreBounded(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	in := evalInput(5.0)
	in.Composite.Severity = 10
	in.State.RelStrength = 50

	sig, rej := o.Evaluate(in)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if sig.RankScore < 0 || sig.RankScore > 100 {
		t.Fatalf("rankScore = %v, want within [0,100]", sig.RankScore)
	}
}

func TestShortBreakout(t *testing.T) {
	o := NewOrchestrator(DefaultConfig())
	in := evalInput(3.0)
	n := len(in.Candles)
	in.Candles[n-1] = models.Candle{Open: 99, High: 99.5, Low: 94, Close: 94.5, Volume: 3500}
	in.Composite.Direction = models.DirectionShort
	in.Snapshot.Close = 94.5
	in.Snapshot.EMA20 = 99
	in.Snapshot.EMA50 = 101
	in.Snapshot.RSI14 = 35
	in.Snapshot.EMATrend = "bearish"

	sig, rej := o.Evaluate(in)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if sig.Direction != models.DirectionShort {
		t.Fatalf("direction = %v, want SHORT", sig.Direction)
	}
	if sig.Classification != models.ClassSell && sig.Classification != models.ClassStrongSell {
		t.Fatalf("classification = %v", sig.Classification)
	}
	if sig.Risk.Stop <= sig.Risk.Entry {
		t.Fatalf("short stop %v must sit above entry %v", sig.Risk.Stop, sig.Risk.Entry)
	}
}
