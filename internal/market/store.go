package market

import (
	"sync"
	"time"

	"IntraScan/internal/domain/models"
)

// Config holds the store's construction-time settings.
type Config struct {
	// BenchmarkToken is the index whose change% anchors relative strength.
	BenchmarkToken string
	// RecencyWindow bounds ActiveStates: only states touched within the
	// window are returned.
	RecencyWindow time.Duration
	// SessionOpen is the "15:04" clock at which the daily boundary rolls.
	// Pre-open ticks never trigger a reset.
	SessionOpen string
}

// Store is the in-memory market state store. One InstrumentState per token,
// created lazily on first tick and mutated only by ApplyTick. State survives
// until the daily reset boundary, where it is cleared, not destroyed.
type Store struct {
	mu     sync.RWMutex
	states map[string]*models.InstrumentState

	benchmarkToken string
	// benchmarkPct caches the benchmark index change% at the time its own
	// tick was applied. Dependent relative-strength reads in the same cycle
	// may therefore be stale by one cycle; that eventual consistency is
	// accepted rather than forcing strict update ordering.
	benchmarkPct float64

	recency   time.Duration
	lastReset time.Time

	openHour, openMin int

	now func() time.Time
}

// NewStore creates a market state store.
func NewStore(cfg Config) *Store {
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = 5 * time.Minute
	}
	open, err := time.Parse("15:04", cfg.SessionOpen)
	if err != nil {
		open, _ = time.Parse("15:04", "09:15")
	}
	return &Store{
		states:         make(map[string]*models.InstrumentState),
		benchmarkToken: cfg.BenchmarkToken,
		recency:        cfg.RecencyWindow,
		openHour:       open.Hour(),
		openMin:        open.Minute(),
		now:            time.Now,
	}
}

// ApplyTick updates or creates the state for t.Token and recomputes all
// derived fields in O(1). Ticks with a non-positive LTP are ignored.
func (s *Store) ApplyTick(t *models.Tick) {
	if t == nil || t.LTP <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[t.Token]
	if !ok {
		st = &models.InstrumentState{Token: t.Token}
		s.states[t.Token] = st
	}

	// Lock the session open from the first valid tick after the boundary.
	if !st.OpenLocked {
		if t.Open != nil && *t.Open > 0 {
			st.TodayOpen = *t.Open
		} else {
			st.TodayOpen = t.LTP
		}
		st.OpenLocked = true
		if st.DayHigh == 0 {
			st.DayHigh = t.LTP
		}
		if st.DayLow == 0 {
			st.DayLow = t.LTP
		}
	}

	st.LTP = t.LTP
	if t.LTP > st.DayHigh {
		st.DayHigh = t.LTP
	}
	if st.DayLow == 0 || t.LTP < st.DayLow {
		st.DayLow = t.LTP
	}
	if t.Close != nil && *t.Close > 0 && st.PrevClose == 0 {
		st.PrevClose = *t.Close
	}

	// Cumulative VWAP over typical price.
	if t.Volume > 0 {
		tp := t.LTP
		if t.High != nil && t.Low != nil && *t.High > 0 && *t.Low > 0 {
			tp = (*t.High + *t.Low + t.LTP) / 3
		}
		st.CumPV += tp * t.Volume
		st.CumVol += t.Volume
		st.LastVolume = t.Volume
	}
	if st.CumVol > 0 {
		st.VWAP = st.CumPV / st.CumVol
	}

	if st.PrevClose > 0 {
		st.Points = st.LTP - st.PrevClose
		st.ChangePct = st.Points / st.PrevClose * 100
	}
	if st.TodayOpen > 0 {
		st.PointsFromOpen = st.LTP - st.TodayOpen
		st.ChangeFromOpenPct = st.PointsFromOpen / st.TodayOpen * 100
		st.RangePct = (st.DayHigh - st.DayLow) / st.TodayOpen * 100
	}

	if t.OI != nil {
		st.LastOI = *t.OI
	}
	st.LastTick = s.now()

	if t.Token == s.benchmarkToken {
		s.benchmarkPct = st.ChangePct
		st.RelStrength = 0
	} else {
		st.RelStrength = st.ChangePct - s.benchmarkPct
	}
}

// Get returns a copy of the state for token.
func (s *Store) Get(token string) (*models.InstrumentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[token]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// ActiveStates returns copies of all states updated within the recency
// window, for bulk consumers like the ranking engine.
func (s *Store) ActiveStates() []*models.InstrumentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.recency)
	out := make([]*models.InstrumentState, 0, len(s.states))
	for _, st := range s.states {
		if st.LastTick.After(cutoff) {
			out = append(out, st.Clone())
		}
	}
	return out
}

// BenchmarkChangePct returns the cached benchmark index change%.
func (s *Store) BenchmarkChangePct() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.benchmarkPct
}

// Len returns the number of tracked tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// ResetDailySession clears all intraday accumulators, rolls ltp into
// prevClose and unlocks todayOpen so the next valid tick re-locks it.
// The boundary is the session-open clock, not midnight: pre-open ticks
// leave the previous session intact. Idempotent within a boundary.
func (s *Store) ResetDailySession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	open := time.Date(now.Year(), now.Month(), now.Day(), s.openHour, s.openMin, 0, 0, now.Location())
	if now.Before(open) {
		return false
	}
	if !s.lastReset.Before(open) {
		return false
	}
	s.lastReset = now

	for _, st := range s.states {
		if st.LTP > 0 {
			st.PrevClose = st.LTP
		}
		st.TodayOpen = 0
		st.OpenLocked = false
		st.DayHigh = 0
		st.DayLow = 0
		st.CumPV = 0
		st.CumVol = 0
		st.VWAP = 0
		st.Points = 0
		st.ChangePct = 0
		st.PointsFromOpen = 0
		st.ChangeFromOpenPct = 0
		st.RangePct = 0
		st.RelStrength = 0
	}
	s.benchmarkPct = 0
	return true
}
