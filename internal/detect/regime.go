package detect

import (
	"math"
	"time"

	"IntraScan/internal/domain/models"
)

// ClassifyDay derives the session regime from the benchmark-index state and
// its indicator snapshot. The result feeds the read facade and the master
// guard's confidence score.
func ClassifyDay(bench *models.InstrumentState, snap *models.IndicatorSnapshot, now time.Time) models.DayRegime {
	out := models.DayRegime{State: "CHOPPY", Timestamp: now}
	if bench == nil {
		return out
	}
	move := bench.ChangeFromOpenPct
	trendingUp := move > 0.35
	trendingDown := move < -0.35
	if snap != nil {
		trendingUp = trendingUp && snap.EMATrend != "bearish"
		trendingDown = trendingDown && snap.EMATrend != "bullish"
	}
	switch {
	case trendingUp:
		out.State = "TREND_UP"
	case trendingDown:
		out.State = "TREND_DOWN"
	}
	out.Confidence = math.Min(1, math.Abs(move)/1.5)
	return out
}
