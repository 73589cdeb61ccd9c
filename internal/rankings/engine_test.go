package rankings

import (
	"fmt"
	"testing"

	"IntraScan/internal/domain/models"
)

type fakeStates struct {
	states []*models.InstrumentState
}

func (f *fakeStates) Get(token string) (*models.InstrumentState, bool) {
	for _, s := range f.states {
		if s.Token == token {
			return s, true
		}
	}
	return nil, false
}
func (f *fakeStates) ActiveStates() []*models.InstrumentState { return f.states }
func (f *fakeStates) BenchmarkChangePct() float64             { return 0 }

func sampleStates() *fakeStates {
	return &fakeStates{states: []*models.InstrumentState{
		{Token: "UP1", LTP: 110, ChangePct: 3.2, ChangeFromOpenPct: 2.5, RangePct: 2.0, RelStrength: 1.5, LastVolume: 5000},
		{Token: "UP2", LTP: 205, ChangePct: 1.1, ChangeFromOpenPct: 0.9, RangePct: 1.2, RelStrength: 0.4, LastVolume: 800},
		{Token: "DN1", LTP: 95, ChangePct: -2.8, ChangeFromOpenPct: -2.2, RangePct: 1.8, RelStrength: -2.1, LastVolume: 3000},
		{Token: "FLAT", LTP: 50, ChangePct: 0.05, ChangeFromOpenPct: 0.02, RangePct: 0.1, RelStrength: 0.0, LastVolume: 100},
	}}
}

func TestRefreshBuildsSortedViews(t *testing.T) {
	e := New(DefaultConfig(), sampleStates())
	e.Refresh()

	gainers := e.View(models.ViewGainers)
	if len(gainers.Entries) != 2 {
		t.Fatalf("gainers = %d entries, want 2", len(gainers.Entries))
	}
	if gainers.Entries[0].Token != "UP1" {
		t.Fatalf("top gainer = %q, want UP1", gainers.Entries[0].Token)
	}

	losers := e.View(models.ViewLosers)
	if len(losers.Entries) != 1 || losers.Entries[0].Token != "DN1" {
		t.Fatalf("losers = %+v", losers.Entries)
	}
	// LOSERS score is positive-is-worse: -(-2.8).
	if losers.Entries[0].Score != 2.8 {
		t.Fatalf("loser score = %v, want 2.8", losers.Entries[0].Score)
	}
}

func TestInclusionFloorsExcludeNoise(t *testing.T) {
	e := New(DefaultConfig(), sampleStates())
	e.Refresh()
	for _, view := range []models.RankingView{
		models.ViewGainers, models.ViewLosers, models.ViewMomentum, models.ViewVolumeSpike,
	} {
		for _, entry := range e.View(view).Entries {
			if entry.Token == "FLAT" {
				t.Fatalf("FLAT leaked into %s", view)
			}
		}
	}
}

func TestSizeCap(t *testing.T) {
	f := &fakeStates{}
	for i := 0; i < 100; i++ {
		f.states = append(f.states, &models.InstrumentState{
			Token:     fmt.Sprintf("TOK%03d", i),
			ChangePct: 1 + float64(i)*0.1,
			LTP:       100,
		})
	}
	e := New(Config{Size: 20, MinAbsChangePct: 0.25, MinRangePct: 0.5}, f)
	e.Refresh()

	gainers := e.View(models.ViewGainers)
	if len(gainers.Entries) != 20 {
		t.Fatalf("capped size = %d, want 20", len(gainers.Entries))
	}
	// Strongest change tops the capped board.
	if gainers.Entries[0].Token != "TOK099" {
		t.Fatalf("top = %q, want TOK099", gainers.Entries[0].Token)
	}
}

func TestViewBeforeRefreshIsEmpty(t *testing.T) {
	e := New(DefaultConfig(), sampleStates())
	table := e.View(models.ViewGainers)
	if table == nil {
		t.Fatal("View must never return nil")
	}
	if len(table.Entries) != 0 {
		t.Fatalf("entries before refresh = %d, want 0", len(table.Entries))
	}
}

func TestRefreshSwapsGeneration(t *testing.T) {
	f := sampleStates()
	e := New(DefaultConfig(), f)
	e.Refresh()
	first := e.View(models.ViewGainers)

	// Mutate the universe and refresh: the old table must be untouched.
	f.states[0].ChangePct = -5
	e.Refresh()
	second := e.View(models.ViewGainers)

	if first.Entries[0].Token != "UP1" {
		t.Fatal("prior generation mutated by refresh")
	}
	for _, entry := range second.Entries {
		if entry.Token == "UP1" {
			t.Fatal("stale entry retained after refresh")
		}
	}
}

func TestMomentumScores(t *testing.T) {
	e := New(DefaultConfig(), sampleStates())
	scores := e.MomentumScores()
	if len(scores) != 4 {
		t.Fatalf("scores = %d tokens, want 4", len(scores))
	}
	// UP1: |2.5|*2 + |1.5| + 2.0*0.5 = 7.5
	if got := scores["UP1"]; got != 7.5 {
		t.Fatalf("UP1 score = %v, want 7.5", got)
	}
	if scores["UP1"] <= scores["FLAT"] {
		t.Fatal("stronger mover must outscore flat instrument")
	}
}
