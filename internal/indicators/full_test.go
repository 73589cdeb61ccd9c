package indicators

import (
	"errors"
	"reflect"
	"testing"
)

func TestFullInsufficientData(t *testing.T) {
	_, err := Full(risingCandles(MinCandles-1, 100, 1))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestFullIdempotent(t *testing.T) {
	candles := risingCandles(80, 100, 0.5)
	a, err := Full(candles)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	b, err := Full(candles)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("snapshots differ:\n%+v\n%+v", a, b)
	}
}

func TestFullCategoricals(t *testing.T) {
	snap, err := Full(risingCandles(80, 100, 1))
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if snap.EMATrend != "bullish" {
		t.Fatalf("emaTrend = %q, want bullish", snap.EMATrend)
	}
	if snap.RSIZone != "overbought" {
		t.Fatalf("rsiZone = %q for monotonic rise, want overbought", snap.RSIZone)
	}
	if snap.ADXTrend == "none" {
		t.Fatalf("adxTrend = none for a steady trend")
	}
}
