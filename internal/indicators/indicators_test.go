package indicators

import (
	"math"
	"reflect"
	"testing"

	"IntraScan/internal/domain/models"
)

func approx(t *testing.T, got, want, tol float64, name string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

func flatCandles(n int, close float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Open: close, High: close, Low: close, Close: close, Volume: 100}
	}
	return out
}

func risingCandles(n int, start, step float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	for i := range out {
		out[i] = models.Candle{
			Open:   price,
			High:   price + step,
			Low:    price - step/2,
			Close:  price + step,
			Volume: 100 + float64(i),
		}
		price += step
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{2, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sma = %v, want %v", got, want)
	}
}

func TestSMAInsufficient(t *testing.T) {
	if got := SMA([]float64{1, 2}, 3); got != nil {
		t.Fatalf("expected empty series, got %v", got)
	}
}

func TestEMASeedIsSMA(t *testing.T) {
	got := EMA([]float64{2, 4, 6}, 3)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	approx(t, got[0], 4, 1e-9, "ema seed")
}

func TestEMARecurrence(t *testing.T) {
	// seed = 4; next = (10-4)*0.5 + 4 = 7 with multiplier 2/(3+1).
	got := EMA([]float64{2, 4, 6, 10}, 3)
	approx(t, got[len(got)-1], 7, 1e-9, "ema")
}

func TestRSIAllGains(t *testing.T) {
	got := RSI(risingCandles(20, 100, 1), 14)
	if len(got) == 0 {
		t.Fatalf("expected rsi values")
	}
	approx(t, got[len(got)-1], 100, 1e-9, "rsi")
}

func TestRSIFlat(t *testing.T) {
	got := RSI(flatCandles(20, 100), 14)
	approx(t, got[len(got)-1], 50, 1e-9, "rsi flat")
}

func TestATRFlatIsZero(t *testing.T) {
	got := ATR(flatCandles(20, 100), 14)
	approx(t, got[len(got)-1], 0, 1e-9, "atr flat")
}

func TestVWAPExact(t *testing.T) {
	candles := []models.Candle{
		{High: 10, Low: 10, Close: 10, Volume: 100},
		{High: 12, Low: 12, Close: 12, Volume: 100},
	}
	got := VWAP(candles)
	approx(t, got[1], 11, 1e-9, "vwap")
}

func TestBollingerFlat(t *testing.T) {
	up, mid, low := Bollinger(make([]float64, 25), 20, 2)
	if up[len(up)-1] != 0 || mid[len(mid)-1] != 0 || low[len(low)-1] != 0 {
		t.Fatalf("flat series must have zero-width bands")
	}
}

func TestMACDAlignment(t *testing.T) {
	closes := Closes(risingCandles(60, 100, 1))
	macd, sig, hist := MACD(closes, 12, 26, 9)
	if len(macd) != len(sig) || len(sig) != len(hist) {
		t.Fatalf("series misaligned: %d %d %d", len(macd), len(sig), len(hist))
	}
	for i := range hist {
		approx(t, hist[i], macd[i]-sig[i], 1e-9, "hist")
	}
}

func TestStochasticBounds(t *testing.T) {
	k, d := Stochastic(risingCandles(30, 100, 1), 14, 3)
	for _, v := range k {
		if v < 0 || v > 100 {
			t.Fatalf("%%K out of bounds: %v", v)
		}
	}
	if len(d) == 0 {
		t.Fatalf("expected %%D values")
	}
}

func TestADXTrendingMarket(t *testing.T) {
	adx, pdi, mdi := ADX(risingCandles(60, 100, 1), 14)
	if len(adx) == 0 {
		t.Fatalf("expected adx values")
	}
	if pdi[len(pdi)-1] <= mdi[len(mdi)-1] {
		t.Fatalf("+DI (%v) must exceed -DI (%v) in an uptrend", pdi[len(pdi)-1], mdi[len(mdi)-1])
	}
	if adx[len(adx)-1] < 20 {
		t.Fatalf("adx = %v, want strong trend", adx[len(adx)-1])
	}
}
