package market

import (
	"testing"
	"time"

	"IntraScan/internal/domain/models"
)

func tick(token string, ltp, vol float64) *models.Tick {
	return &models.Tick{Token: token, LTP: ltp, Volume: vol, Timestamp: time.Now().Unix()}
}

func TestVWAPExact(t *testing.T) {
	s := NewStore(Config{BenchmarkToken: "NIFTY"})
	s.ApplyTick(tick("ABC", 10, 100))
	s.ApplyTick(tick("ABC", 12, 100))

	st, ok := s.Get("ABC")
	if !ok {
		t.Fatalf("expected state")
	}
	if st.VWAP != 11 {
		t.Fatalf("vwap = %v, want 11", st.VWAP)
	}
}

func TestOpenLockedOnce(t *testing.T) {
	s := NewStore(Config{})
	open := 100.0
	s.ApplyTick(&models.Tick{Token: "ABC", LTP: 101, Volume: 1, Open: &open})
	other := 200.0
	s.ApplyTick(&models.Tick{Token: "ABC", LTP: 103, Volume: 1, Open: &other})
	s.ApplyTick(tick("ABC", 106, 1))

	st, _ := s.Get("ABC")
	if st.TodayOpen != 100 {
		t.Fatalf("todayOpen = %v, want 100 (locked from first tick)", st.TodayOpen)
	}
	if st.RangePct < 0 {
		t.Fatalf("rangePct = %v, want >= 0", st.RangePct)
	}
}

func TestRangeNonNegative(t *testing.T) {
	s := NewStore(Config{})
	prices := []float64{50, 48, 52, 47, 55, 51}
	for _, p := range prices {
		s.ApplyTick(tick("XYZ", p, 10))
	}
	st, _ := s.Get("XYZ")
	if st.RangePct < 0 {
		t.Fatalf("rangePct = %v, want >= 0", st.RangePct)
	}
	if st.DayHigh != 55 || st.DayLow != 47 {
		t.Fatalf("high/low = %v/%v, want 55/47", st.DayHigh, st.DayLow)
	}
}

func TestRelStrengthAgainstBenchmark(t *testing.T) {
	s := NewStore(Config{BenchmarkToken: "NIFTY"})
	close1, close2 := 100.0, 100.0
	s.ApplyTick(&models.Tick{Token: "NIFTY", LTP: 101, Volume: 1, Close: &close1})
	s.ApplyTick(&models.Tick{Token: "ABC", LTP: 103, Volume: 1, Close: &close2})

	st, _ := s.Get("ABC")
	// ABC +3%, NIFTY +1% -> rel strength 2%.
	if st.RelStrength < 1.99 || st.RelStrength > 2.01 {
		t.Fatalf("relStrength = %v, want ~2", st.RelStrength)
	}
}

func TestResetDailySession(t *testing.T) {
	s := NewStore(Config{SessionOpen: "09:15"})
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if !s.ResetDailySession() {
		t.Fatalf("first post-open check should reset")
	}
	if s.ResetDailySession() {
		t.Fatalf("repeat within the same session must be a no-op")
	}

	s.ApplyTick(tick("ABC", 100, 10))
	s.ApplyTick(tick("ABC", 110, 10))

	// Past midnight but before the next session open: no reset, and a
	// pre-market tick must not re-lock the open.
	s.now = func() time.Time { return base.Add(14*time.Hour + 30*time.Minute) } // 00:30 next day
	if s.ResetDailySession() {
		t.Fatalf("pre-open check must not reset the session")
	}
	s.ApplyTick(tick("ABC", 90, 5))
	st, _ := s.Get("ABC")
	if st.TodayOpen != 100 {
		t.Fatalf("pre-market tick moved the locked open: %v", st.TodayOpen)
	}

	// Crossing the next session open rolls the boundary once.
	s.now = func() time.Time { return base.Add(23*time.Hour + 20*time.Minute) } // 09:20 next day
	if !s.ResetDailySession() {
		t.Fatalf("post-open check should reset")
	}
	if s.ResetDailySession() {
		t.Fatalf("second reset within same session must be a no-op")
	}

	st, _ = s.Get("ABC")
	if st.PrevClose != 90 {
		t.Fatalf("prevClose = %v, want 90 (rolled from ltp)", st.PrevClose)
	}
	if st.OpenLocked || st.TodayOpen != 0 || st.CumVol != 0 {
		t.Fatalf("intraday fields not cleared: %+v", st)
	}

	// Next tick re-locks the open.
	s.ApplyTick(tick("ABC", 112, 5))
	st, _ = s.Get("ABC")
	if !st.OpenLocked || st.TodayOpen != 112 {
		t.Fatalf("open not re-locked: %+v", st)
	}
}

func TestActiveStatesRecency(t *testing.T) {
	s := NewStore(Config{RecencyWindow: time.Minute})
	base := time.Now()
	s.now = func() time.Time { return base.Add(-10 * time.Minute) }
	s.ApplyTick(tick("OLD", 10, 1))
	s.now = func() time.Time { return base }
	s.ApplyTick(tick("NEW", 10, 1))

	actives := s.ActiveStates()
	if len(actives) != 1 || actives[0].Token != "NEW" {
		t.Fatalf("actives = %+v, want only NEW", actives)
	}
}
