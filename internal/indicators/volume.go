package indicators

import "IntraScan/internal/domain/models"

// VolumeSMA returns the rolling average volume series.
func VolumeSMA(candles []models.Candle, period int) []float64 {
	if len(candles) < period {
		return nil
	}
	vols := make([]float64, len(candles))
	for i, c := range candles {
		vols[i] = c.Volume
	}
	return SMA(vols, period)
}

// VWAP returns the cumulative volume-weighted average price, one value per
// candle, using the typical price (H+L+C)/3.
func VWAP(candles []models.Candle) []float64 {
	if len(candles) == 0 {
		return nil
	}
	out := make([]float64, len(candles))
	var cumPV, cumVol float64
	for i, c := range candles {
		tp := (c.High + c.Low + c.Close) / 3
		cumPV += tp * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			out[i] = cumPV / cumVol
		} else {
			out[i] = c.Close
		}
	}
	return out
}

// Closes extracts the close series from candles.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
