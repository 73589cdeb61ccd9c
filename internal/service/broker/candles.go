package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	pkghttp "IntraScan/pkg/http"

	"golang.org/x/time/rate"
)

// CandleClient implements CandleSource against the broker's REST candle
// endpoint. A shared rate limiter keeps the scan loop inside the gateway's
// request quota.
type CandleClient struct {
	baseURL string
	apiKey  string
	http    *pkghttp.Client
	limiter *rate.Limiter
}

// NewCandleClient creates the candle gateway client. rps is the gateway
// request quota; burst allows short catch-up runs after idle periods.
func NewCandleClient(baseURL, apiKey string, timeout time.Duration, rps float64, burst int) drepo.CandleSource {
	if rps <= 0 {
		rps = 3
	}
	if burst <= 0 {
		burst = 1
	}
	return &CandleClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type candleRow struct {
	TS     int64   `json:"ts"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type candlesResponse struct {
	Status  string      `json:"status"`
	Candles []candleRow `json:"candles"`
}

// GetCandles fetches the most recent count bars for one token. The call
// blocks on the rate limiter, honouring context cancellation while
// queued.
func (c *CandleClient) GetCandles(ctx context.Context, token string, tf drepo.Timeframe, count int) ([]models.Candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("candle quota wait: %w", err)
	}

	var resp candlesResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/candles",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
		QueryParams: map[string][]string{
			"token":     {token},
			"timeframe": {string(tf)},
			"count":     {strconv.Itoa(count)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("get candles %s/%s: %w", token, tf, err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("get candles %s/%s: gateway status %q", token, tf, resp.Status)
	}

	out := make([]models.Candle, 0, len(resp.Candles))
	for _, row := range resp.Candles {
		out = append(out, models.Candle{
			Timestamp: time.Unix(row.TS, 0),
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return out, nil
}
