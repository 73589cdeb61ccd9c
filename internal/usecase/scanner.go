package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"IntraScan/internal/detect"
	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	"IntraScan/internal/guard"
	"IntraScan/internal/indicators"
	"IntraScan/internal/market"
	"IntraScan/internal/rankings"
	"IntraScan/internal/scheduler"
	"IntraScan/internal/signal"
	"IntraScan/pkg/logger"
)

// ScannerConfig carries the scan-loop settings.
type ScannerConfig struct {
	Interval        time.Duration `yaml:"interval"`
	ReducedInterval time.Duration `yaml:"reduced_interval"`
	CandleCount     int           `yaml:"candle_count"`
	BenchmarkToken  string        `yaml:"benchmark_token"`
	SessionOpen     string        `yaml:"session_open"`
	ExplosionKeep   int           `yaml:"explosion_keep"`
	// OptionSuffixes mark option instruments by token suffix.
	OptionSuffixes []string `yaml:"option_suffixes"`
}

// DefaultScannerConfig returns the standard scan-loop settings.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Interval:        30 * time.Second,
		ReducedInterval: 60 * time.Second,
		CandleCount:     80,
		BenchmarkToken:  "NIFTY",
		SessionOpen:     "09:15",
		ExplosionKeep:   100,
		OptionSuffixes:  []string{"CE", "PE"},
	}
}

// recoveryCycles is the run of fast cycles required before easing the
// degradation mode one level.
const recoveryCycles = 3

// Scanner runs the batch scan cycle: candles, indicators, detectors,
// orchestrator, guard chain, record. Per-token failures are isolated so
// one bad instrument never aborts the cycle.
type Scanner struct {
	cfg      ScannerConfig
	store    *market.Store
	candles  drepo.CandleSource
	detector *detect.Engine
	orch     *signal.Orchestrator
	chain    *guard.Chain
	adaptive *guard.Adaptive
	cooldown *guard.Cooldown
	recorder *SignalRecorder
	rank     *rankings.Engine
	sched    *scheduler.Scheduler
	metrics  drepo.Metrics
	log      *logger.Logger

	mu         sync.RWMutex
	regime     models.DayRegime
	prevOI     map[string]float64
	explosions []models.CompositeDetection // newest last, bounded
	fastRun    int                         // consecutive cycles under half the interval
}

// NewScanner wires the scan loop.
func NewScanner(
	cfg ScannerConfig,
	store *market.Store,
	candles drepo.CandleSource,
	detector *detect.Engine,
	orch *signal.Orchestrator,
	chain *guard.Chain,
	adaptive *guard.Adaptive,
	cooldown *guard.Cooldown,
	recorder *SignalRecorder,
	rank *rankings.Engine,
	sched *scheduler.Scheduler,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Scanner {
	if cfg.Interval <= 0 {
		cfg = DefaultScannerConfig()
	}
	if len(cfg.OptionSuffixes) == 0 {
		cfg.OptionSuffixes = DefaultScannerConfig().OptionSuffixes
	}
	return &Scanner{
		cfg:      cfg,
		store:    store,
		candles:  candles,
		detector: detector,
		orch:     orch,
		chain:    chain,
		adaptive: adaptive,
		cooldown: cooldown,
		recorder: recorder,
		rank:     rank,
		sched:    sched,
		metrics:  metrics,
		log:      log,
		prevOI:   make(map[string]float64),
	}
}

// Interval returns the cycle interval for the current degradation mode.
func (s *Scanner) Interval() time.Duration {
	if s.sched != nil && s.sched.Degradation() != models.DegradeNone && s.cfg.ReducedInterval > 0 {
		return s.cfg.ReducedInterval
	}
	return s.cfg.Interval
}

// Cycle runs one full scan over the active universe.
func (s *Scanner) Cycle(ctx context.Context) error {
	start := time.Now()

	if s.store.ResetDailySession() {
		s.log.Info("daily session reset")
		s.orch.Reset()
		s.cooldown.Reset()
		s.recorder.Reset()
	}

	s.refreshRegime(ctx, start)

	states := s.store.ActiveStates()
	universe := len(states)

	for _, st := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scanToken(ctx, st, universe, start); err != nil {
			s.metrics.RecordError("scan_token")
			s.log.Debug("token scan failed",
				logger.String("token", st.Token),
				logger.Error(err))
		}
	}

	s.adaptive.EndCycle(universe)
	s.rank.Refresh()

	elapsed := time.Since(start)
	s.metrics.RecordLatency("scan_cycle", elapsed.Seconds())
	s.noteCycleLoad(elapsed)
	return nil
}

// noteCycleLoad drives the degradation mode from observed cycle latency: a
// cycle overrunning its effective interval escalates one level, and a run
// of cycles under half the interval eases one level back.
func (s *Scanner) noteCycleLoad(elapsed time.Duration) {
	if s.sched == nil {
		return
	}
	interval := s.Interval()
	mode := s.sched.Degradation()

	switch {
	case elapsed > interval:
		s.mu.Lock()
		s.fastRun = 0
		s.mu.Unlock()

		next := mode
		switch mode {
		case models.DegradeNone:
			next = models.DegradeReduced
		case models.DegradeReduced:
			next = models.DegradeCoreOnly
		}
		if next != mode && s.sched.SetDegradation(next) {
			s.log.Warn("scan cycle overran interval, degrading subscriptions",
				logger.String("mode", string(next)),
				logger.Duration("elapsed", elapsed),
				logger.Duration("interval", interval))
		}

	case elapsed <= interval/2 && mode != models.DegradeNone:
		s.mu.Lock()
		s.fastRun++
		eased := s.fastRun >= recoveryCycles
		if eased {
			s.fastRun = 0
		}
		s.mu.Unlock()

		if eased {
			next := models.DegradeNone
			if mode == models.DegradeCoreOnly {
				next = models.DegradeReduced
			}
			if s.sched.SetDegradation(next) {
				s.log.Info("scan load recovered, easing subscriptions",
					logger.String("mode", string(next)))
			}
		}

	default:
		s.mu.Lock()
		s.fastRun = 0
		s.mu.Unlock()
	}
}

func (s *Scanner) scanToken(ctx context.Context, st *models.InstrumentState, universe int, now time.Time) error {
	candles, err := s.candles.GetCandles(ctx, st.Token, drepo.TF5m, s.cfg.CandleCount)
	if err != nil {
		return err
	}
	snap, err := indicators.Full(candles)
	if err != nil {
		// Thin history is expected early in the session, not an error.
		return nil
	}

	// Higher-timeframe snapshot for trend-alignment scoring; a thin or
	// failed 15m series just skips the alignment bonus.
	var htf *models.IndicatorSnapshot
	if hc, err := s.candles.GetCandles(ctx, st.Token, drepo.TF15m, s.cfg.CandleCount); err == nil {
		if full, err := indicators.Full(hc); err == nil {
			htf = full
		}
	}

	composite := s.detector.Run(detect.Input{
		State:       st,
		Snapshot:    snap,
		Candles:     candles,
		PrevOI:      s.lastOI(st.Token),
		IsOption:    s.isOption(st.Token),
		SessionOpen: s.sessionOpen(now),
		Now:         now,
	})
	s.noteOI(st.Token, st.LastOI)
	s.noteExplosion(composite)

	sig, _ := s.orch.Evaluate(signal.Input{
		Token:      st.Token,
		State:      st,
		Snapshot:   snap,
		Candles:    candles,
		Composite:  composite,
		HTF:        htf,
		Thresholds: s.adaptive.Thresholds(),
		Now:        now,
	})
	if sig == nil {
		return nil
	}
	s.adaptive.NoteCandidate(universe)

	candidate := &guard.Candidate{
		Signal:       sig,
		State:        st,
		Snapshot:     snap,
		Composite:    composite,
		Regime:       s.Regime(),
		LastBarRange: lastBarRange(candles),
		Universe:     universe,
		Now:          now,
	}
	if !s.chain.Validate(candidate) {
		s.orch.MarkBlocked(st.Token)
		return nil
	}
	s.orch.MarkEmitted(st.Token)
	s.cooldown.Record(sig)
	s.recorder.Record(ctx, sig)
	return nil
}

// refreshRegime reclassifies the day from the benchmark index.
func (s *Scanner) refreshRegime(ctx context.Context, now time.Time) {
	bench, ok := s.store.Get(s.cfg.BenchmarkToken)
	if !ok {
		return
	}
	var snap *models.IndicatorSnapshot
	if candles, err := s.candles.GetCandles(ctx, s.cfg.BenchmarkToken, drepo.TF5m, s.cfg.CandleCount); err == nil {
		if full, err := indicators.Full(candles); err == nil {
			snap = full
		}
	}
	regime := detect.ClassifyDay(bench, snap, now)
	s.mu.Lock()
	s.regime = regime
	s.mu.Unlock()
}

// Regime returns the latest day classification.
func (s *Scanner) Regime() models.DayRegime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regime
}

// Explosions returns up to n most recent actionable composites, newest
// first.
func (s *Scanner) Explosions(n int) []models.CompositeDetection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.explosions) {
		n = len(s.explosions)
	}
	out := make([]models.CompositeDetection, 0, n)
	for i := len(s.explosions) - 1; i >= len(s.explosions)-n; i-- {
		out = append(out, s.explosions[i])
	}
	return out
}

func (s *Scanner) noteExplosion(c models.CompositeDetection) {
	if !c.Actionable {
		return
	}
	s.mu.Lock()
	s.explosions = append(s.explosions, c)
	if keep := s.cfg.ExplosionKeep; keep > 0 && len(s.explosions) > keep {
		s.explosions = append([]models.CompositeDetection(nil), s.explosions[len(s.explosions)-keep:]...)
	}
	s.mu.Unlock()
}

func (s *Scanner) lastOI(token string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prevOI[token]
}

func (s *Scanner) noteOI(token string, oi float64) {
	if oi <= 0 {
		return
	}
	s.mu.Lock()
	s.prevOI[token] = oi
	s.mu.Unlock()
}

// isOption reports whether the token names an option contract, by suffix
// convention (NIFTY25SEP25000CE and the like).
func (s *Scanner) isOption(token string) bool {
	for _, suf := range s.cfg.OptionSuffixes {
		if suf != "" && strings.HasSuffix(token, suf) {
			return true
		}
	}
	return false
}

func (s *Scanner) sessionOpen(now time.Time) time.Time {
	t, err := time.Parse("15:04", s.cfg.SessionOpen)
	if err != nil {
		t, _ = time.Parse("15:04", "09:15")
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
}

func lastBarRange(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	last := candles[len(candles)-1]
	return last.High - last.Low
}
