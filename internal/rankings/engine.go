// Package rankings materializes sorted leaderboard views over instrument
// state. Each refresh builds complete tables offline and swaps them in
// atomically, so readers always see one consistent generation.
package rankings

import (
	"sort"
	"sync/atomic"
	"time"

	"IntraScan/internal/domain/models"
	"IntraScan/internal/domain/repository"
)

// Config carries the ranking engine settings.
type Config struct {
	Size int `yaml:"size"` // cap per view

	// Inclusion floors keep noise out of the boards.
	MinAbsChangePct float64 `yaml:"min_abs_change_pct"`
	MinRangePct     float64 `yaml:"min_range_pct"`
}

// DefaultConfig returns the standard ranking settings.
func DefaultConfig() Config {
	return Config{Size: 20, MinAbsChangePct: 0.25, MinRangePct: 0.5}
}

type tableSet struct {
	tables     map[models.RankingView]*models.RankingTable
	computedAt time.Time
}

// Engine recomputes all views from the state store on demand.
type Engine struct {
	cfg    Config
	states repository.StateReader

	current atomic.Pointer[tableSet]
}

// New creates the ranking engine.
func New(cfg Config, states repository.StateReader) *Engine {
	if cfg.Size <= 0 {
		cfg = DefaultConfig()
	}
	e := &Engine{cfg: cfg, states: states}
	e.current.Store(&tableSet{tables: map[models.RankingView]*models.RankingTable{}})
	return e
}

// Refresh rebuilds every view from current state and swaps the generation.
func (e *Engine) Refresh() {
	states := e.states.ActiveStates()
	now := time.Now()

	next := &tableSet{
		tables:     make(map[models.RankingView]*models.RankingTable, 4),
		computedAt: now,
	}
	for _, view := range []models.RankingView{
		models.ViewGainers, models.ViewLosers, models.ViewMomentum, models.ViewVolumeSpike,
	} {
		next.tables[view] = e.build(view, states, now)
	}
	e.current.Store(next)
}

// View returns the latest table for the named view. Unknown views return
// an empty table rather than nil.
func (e *Engine) View(view models.RankingView) *models.RankingTable {
	set := e.current.Load()
	if t, ok := set.tables[view]; ok {
		return t
	}
	return &models.RankingTable{View: view, Entries: []models.RankingEntry{}, ComputedAt: set.computedAt}
}

// MomentumScores returns token -> momentum score for the scheduler's tier
// recomputation, unfiltered and uncapped.
func (e *Engine) MomentumScores() map[string]float64 {
	states := e.states.ActiveStates()
	out := make(map[string]float64, len(states))
	for _, s := range states {
		out[s.Token] = momentumScore(s)
	}
	return out
}

func (e *Engine) build(view models.RankingView, states []*models.InstrumentState, now time.Time) *models.RankingTable {
	entries := make([]models.RankingEntry, 0, len(states))
	for _, s := range states {
		if !e.include(view, s) {
			continue
		}
		entries = append(entries, models.RankingEntry{
			Token:       s.Token,
			LTP:         s.LTP,
			ChangePct:   s.ChangePct,
			FromOpenPct: s.ChangeFromOpenPct,
			RangePct:    s.RangePct,
			RelStrength: s.RelStrength,
			VWAP:        s.VWAP,
			Score:       score(view, s),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Token < entries[j].Token
	})
	if len(entries) > e.cfg.Size {
		entries = entries[:e.cfg.Size]
	}
	return &models.RankingTable{View: view, Entries: entries, ComputedAt: now}
}

func (e *Engine) include(view models.RankingView, s *models.InstrumentState) bool {
	switch view {
	case models.ViewGainers:
		return s.ChangePct >= e.cfg.MinAbsChangePct
	case models.ViewLosers:
		return s.ChangePct <= -e.cfg.MinAbsChangePct
	case models.ViewMomentum:
		return abs(s.ChangeFromOpenPct) >= e.cfg.MinAbsChangePct
	case models.ViewVolumeSpike:
		return s.RangePct >= e.cfg.MinRangePct && s.LastVolume > 0
	}
	return false
}

// score orders entries within a view. Higher is always better, so LOSERS
// negates its change.
func score(view models.RankingView, s *models.InstrumentState) float64 {
	switch view {
	case models.ViewGainers:
		return s.ChangePct
	case models.ViewLosers:
		return -s.ChangePct
	case models.ViewMomentum:
		return momentumScore(s)
	case models.ViewVolumeSpike:
		return s.RangePct * s.LastVolume
	}
	return 0
}

// momentumScore combines move from open, relative strength and range into
// one figure the scheduler also uses for tier placement.
func momentumScore(s *models.InstrumentState) float64 {
	return abs(s.ChangeFromOpenPct)*2 + abs(s.RelStrength) + s.RangePct*0.5
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
