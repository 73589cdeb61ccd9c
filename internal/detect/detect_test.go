package detect

import (
	"testing"
	"time"

	"IntraScan/internal/domain/models"
)

func baseInput() Input {
	sessionOpen := time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC)
	candles := make([]models.Candle, 60)
	price := 100.0
	for i := range candles {
		candles[i] = models.Candle{Open: price, High: price + 0.5, Low: price - 0.5, Close: price + 0.1, Volume: 1000}
		price += 0.1
	}
	return Input{
		State: &models.InstrumentState{
			Token:     "ABC",
			LTP:       price,
			ChangePct: 1.0,
		},
		Snapshot:    &models.IndicatorSnapshot{VolAvg20: 1000},
		Candles:     candles,
		SessionOpen: sessionOpen,
		Now:         sessionOpen.Add(20 * time.Minute),
	}
}

func TestEarlyExpansionFires(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	in.State.ChangeFromOpenPct = 2.4

	ev := e.earlyExpansion(in)
	if ev == nil {
		t.Fatalf("expected event")
	}
	if ev.Direction != models.DirectionLong {
		t.Fatalf("direction = %v, want LONG", ev.Direction)
	}
	if ev.Strength <= 0 || ev.Strength > 1 {
		t.Fatalf("strength out of range: %v", ev.Strength)
	}
}

func TestEarlyExpansionOutsideWindow(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	in.State.ChangeFromOpenPct = 3.0
	in.Now = in.SessionOpen.Add(2 * time.Hour)

	if ev := e.earlyExpansion(in); ev != nil {
		t.Fatalf("expected no event outside the early window, got %+v", ev)
	}
}

func TestPriceAcceleration(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	// Flat history, then a burst over the last 5 bars.
	for i := range in.Candles {
		in.Candles[i].Close = 100
	}
	for i := len(in.Candles) - 5; i < len(in.Candles); i++ {
		in.Candles[i].Close = 100 + float64(i-(len(in.Candles)-6))
	}
	// Preceding windows need some non-zero base move.
	in.Candles[len(in.Candles)-11].Close = 100.5

	ev := e.priceAcceleration(in)
	if ev == nil {
		t.Fatalf("expected acceleration event")
	}
	if ev.Direction != models.DirectionLong {
		t.Fatalf("direction = %v, want LONG", ev.Direction)
	}
}

func TestVolumeAccelerationMonotonicCheck(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	n := len(in.Candles)
	in.Candles[n-3].Volume = 2000
	in.Candles[n-2].Volume = 2500
	in.Candles[n-1].Volume = 4000

	if ev := e.volumeAcceleration(in); ev == nil {
		t.Fatalf("expected volume event")
	}

	// Break monotonicity: last three bars no longer rise.
	in.Candles[n-2].Volume = 5000
	if ev := e.volumeAcceleration(in); ev != nil {
		t.Fatalf("expected no event with falling volume, got %+v", ev)
	}
}

func TestSustainedRunner(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	n := len(in.Candles)
	price := 100.0
	for i := n - 6; i < n; i++ {
		price += 0.5
		in.Candles[i].Close = price
		in.Candles[i].Volume = 2000
	}

	ev := e.sustainedRunner(in)
	if ev == nil {
		t.Fatalf("expected runner event")
	}
	if ev.Type != models.DetectRunner || ev.Direction != models.DirectionLong {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestOIBuildupQuadrants(t *testing.T) {
	e := NewEngine(DefaultConfig())
	cases := []struct {
		oiNow, oiPrev, pricePct float64
		class                   models.OIClass
		dir                     models.Direction
	}{
		{110, 100, 1.0, models.OILongBuildup, models.DirectionLong},
		{110, 100, -1.0, models.OIShortBuildup, models.DirectionShort},
		{90, 100, 1.0, models.OIShortCovering, models.DirectionLong},
		{90, 100, -1.0, models.OILongUnwinding, models.DirectionShort},
	}
	for _, tc := range cases {
		in := baseInput()
		in.State.LastOI = tc.oiNow
		in.PrevOI = tc.oiPrev
		in.State.ChangePct = tc.pricePct

		ev := e.oiBuildup(in)
		if ev == nil {
			t.Fatalf("expected event for %+v", tc)
		}
		if ev.OIClass != tc.class || ev.Direction != tc.dir {
			t.Fatalf("got %v/%v, want %v/%v", ev.OIClass, ev.Direction, tc.class, tc.dir)
		}
	}
}

func TestOIBuildupBelowThreshold(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	in.State.LastOI = 101
	in.PrevOI = 100

	if ev := e.oiBuildup(in); ev != nil {
		t.Fatalf("expected no event for a 1%% OI change, got %+v", ev)
	}
}

func TestCompositeDirectionVote(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	in.State.ChangeFromOpenPct = 2.5 // early expansion LONG
	in.State.LastOI = 120
	in.PrevOI = 100
	in.State.ChangePct = 1.5 // long buildup

	out := e.Run(in)
	if len(out.Events) < 2 {
		t.Fatalf("expected multiple events, got %+v", out.Events)
	}
	if out.Direction != models.DirectionLong {
		t.Fatalf("direction = %v, want LONG", out.Direction)
	}
	if out.Severity <= 0 {
		t.Fatalf("severity = %v, want > 0", out.Severity)
	}
}

func TestActionableRequiresLiquidity(t *testing.T) {
	e := NewEngine(DefaultConfig())
	in := baseInput()
	in.State.ChangeFromOpenPct = 2.5
	in.Snapshot.VolAvg20 = 1 // turnover below floor

	out := e.Run(in)
	if out.Actionable {
		t.Fatalf("expected not actionable below liquidity floor")
	}

	in.Snapshot.VolAvg20 = 100_000
	out = e.Run(in)
	if !out.Actionable {
		t.Fatalf("expected actionable with liquidity")
	}
}

func TestClassifyDay(t *testing.T) {
	now := time.Now()
	r := ClassifyDay(&models.InstrumentState{ChangeFromOpenPct: 0.8}, &models.IndicatorSnapshot{EMATrend: "bullish"}, now)
	if r.State != "TREND_UP" {
		t.Fatalf("state = %q, want TREND_UP", r.State)
	}
	r = ClassifyDay(&models.InstrumentState{ChangeFromOpenPct: 0.05}, nil, now)
	if r.State != "CHOPPY" {
		t.Fatalf("state = %q, want CHOPPY", r.State)
	}
}
