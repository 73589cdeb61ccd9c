// Package api implements the Echo read facade over the scanner's
// in-memory state. Every endpoint is read-only; count parameters are
// clamp-filtered with defaults rather than rejected.
package api

import (
	"sort"
	"time"

	"IntraScan/internal/domain/models"
	domrepo "IntraScan/internal/domain/repository"
	"IntraScan/internal/guard"
	"IntraScan/internal/rankings"
	"IntraScan/internal/scheduler"
	"IntraScan/internal/service/ratelimit"
	"IntraScan/internal/usecase"
	"IntraScan/pkg/cache"
	xhttp "IntraScan/pkg/http"
	xlogger "IntraScan/pkg/logger"
	xutil "IntraScan/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	defaultCount = 20
	maxCount     = 100
	cacheTTL     = 5 * time.Second
)

// ScannerHandler serves the scanner facade.
type ScannerHandler struct {
	logger   *xlogger.Logger
	scanner  *usecase.Scanner
	recorder *usecase.SignalRecorder
	rank     *rankings.Engine
	sched    *scheduler.Scheduler
	exec     *guard.Execution
	chain    *guard.Chain
	states   domrepo.StateReader
	candles  domrepo.CandleSource
	cache    cache.Service
	rl       *ratelimit.Limiter
}

// NewScannerHandler creates the facade handler.
func NewScannerHandler(
	logger *xlogger.Logger,
	scanner *usecase.Scanner,
	recorder *usecase.SignalRecorder,
	rank *rankings.Engine,
	sched *scheduler.Scheduler,
	exec *guard.Execution,
	chain *guard.Chain,
	states domrepo.StateReader,
	candles domrepo.CandleSource,
) *ScannerHandler {
	return &ScannerHandler{
		logger:   logger,
		scanner:  scanner,
		recorder: recorder,
		rank:     rank,
		sched:    sched,
		exec:     exec,
		chain:    chain,
		states:   states,
		candles:  candles,
		rl:       ratelimit.New(),
	}
}

// SetCache injects the layered response cache.
func (h *ScannerHandler) SetCache(c cache.Service) { h.cache = c }

func (h *ScannerHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/signals/top", h.TopSignals)
	g.GET("/signals/history", h.SignalHistory)
	g.GET("/explosions", h.Explosions)
	g.GET("/rankings", h.Rankings)
	g.GET("/regime", h.Regime)
	g.GET("/protection", h.Protection)
	g.GET("/scheduler", h.Scheduler)
	g.GET("/candles", h.Candles)
	g.GET("/state", h.State)
}

// rateLimit applies a per-client token bucket across the facade.
func (h *ScannerHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.rl.Allow(c.RealIP(), 20, 10) {
			return echo.NewHTTPError(429, "rate limited")
		}
		return next(c)
	}
}

// clampCount parses a count query value, falling back to the default and
// clamping into [1, maxCount].
func clampCount(raw string) int {
	n := xhttp.ParseIntDefault(raw, defaultCount)
	if n < 1 {
		n = defaultCount
	}
	if n > maxCount {
		n = maxCount
	}
	return n
}

func (h *ScannerHandler) TopSignals(c echo.Context) error {
	req := &models.TopSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	n := clampCount(req.Count)

	cacheKey := cache.GenerateKeyWithParams("signals:top", n)
	var cached []*models.Signal
	if h.cacheGet(c, cacheKey, &cached) {
		return xhttp.SuccessResponse(c, cached)
	}

	active := h.recorder.Active()
	sort.Slice(active, func(i, j int) bool {
		if active[i].RankScore != active[j].RankScore {
			return active[i].RankScore > active[j].RankScore
		}
		return active[i].Token < active[j].Token
	})
	if len(active) > n {
		active = active[:n]
	}
	h.cacheSet(c, cacheKey, active)
	return xhttp.SuccessResponse(c, active)
}

func (h *ScannerHandler) SignalHistory(c echo.Context) error {
	n := clampCount(c.QueryParam("count"))
	out := h.recorder.History(n)

	// Optional time window, aligned to 5m buckets so identical windows
	// share cacheable boundaries.
	if fromRaw, toRaw := c.QueryParam("from"), c.QueryParam("to"); fromRaw != "" || toRaw != "" {
		now := time.Now()
		from := xhttp.ParseTimeDefault(fromRaw, now.Add(-6*time.Hour))
		to := xhttp.ParseTimeDefault(toRaw, now)
		from, to = xutil.AlignFromTo(from, to, string(domrepo.TF5m))
		filtered := out[:0]
		for _, s := range out {
			if s.CreatedAt.Before(from) || s.CreatedAt.After(to) {
				continue
			}
			filtered = append(filtered, s)
		}
		out = filtered
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ScannerHandler) Explosions(c echo.Context) error {
	req := &models.ExplosionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	n := clampCount(req.Count)
	return xhttp.SuccessResponse(c, h.scanner.Explosions(n))
}

func (h *ScannerHandler) Rankings(c echo.Context) error {
	req := &models.RankingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view := normalizeView(req.View)
	n := clampCount(req.Count)

	cacheKey := cache.GenerateKey("rankings", string(view))
	var cached *models.RankingTable
	if h.cacheGet(c, cacheKey, &cached) {
		return xhttp.SuccessResponse(c, trimTable(cached, n))
	}

	table := h.rank.View(view)
	h.cacheSet(c, cacheKey, table)
	return xhttp.SuccessResponse(c, trimTable(table, n))
}

func (h *ScannerHandler) Regime(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scanner.Regime())
}

func (h *ScannerHandler) Protection(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"baselines":  h.exec.Snapshot(),
		"rejections": h.chain.RejectionTally(),
	})
}

func (h *ScannerHandler) Scheduler(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"plan":        h.sched.Plan(),
		"degradation": h.sched.Degradation(),
	})
}

func (h *ScannerHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	out, err := h.candles.GetCandles(c.Request().Context(), req.Token, tf, req.N)
	if err != nil {
		h.logger.Error("candles fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ScannerHandler) State(c echo.Context) error {
	req := &models.StateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, ok := h.states.Get(req.Token)
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"token": req.Token})
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *ScannerHandler) cacheGet(c echo.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	if err := h.cache.Get(c.Request().Context(), key, dest); err != nil {
		return false
	}
	return true
}

func (h *ScannerHandler) cacheSet(c echo.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(c.Request().Context(), key, value, cacheTTL); err != nil {
		h.logger.Debug("facade cache set failed", xlogger.Error(err))
	}
}

func normalizeView(s string) models.RankingView {
	switch models.RankingView(s) {
	case models.ViewGainers, models.ViewLosers, models.ViewMomentum, models.ViewVolumeSpike:
		return models.RankingView(s)
	}
	return models.ViewGainers
}

func trimTable(t *models.RankingTable, n int) *models.RankingTable {
	if t == nil || len(t.Entries) <= n {
		return t
	}
	return &models.RankingTable{View: t.View, Entries: t.Entries[:n], ComputedAt: t.ComputedAt}
}
