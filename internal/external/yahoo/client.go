package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/pkg/httputil"
	"github.com/wonny/pairlab/pkg/logger"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when Yahoo knows the symbol but has no closes in range.
var ErrNoData = errors.New("yahoo: no price data")

// Client fetches daily closing prices from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client. An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchDailyCloses returns adjusted daily closes for ticker in [from, to].
// Falls back to raw closes when the adjusted series is absent.
func (c *Client) FetchDailyCloses(ctx context.Context, ticker string, from, to time.Time) (contracts.Series, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	// period2 is exclusive
	params.Set("period2", fmt.Sprintf("%d", to.AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return contracts.Series{}, fmt.Errorf("fetch chart %s: %w", ticker, err)
	}

	series, err := ParseChart(body)
	if err != nil {
		return contracts.Series{}, fmt.Errorf("parse chart %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series.Dates),
	}).Debug("Fetched daily closes")
	return series, nil
}

// ParseChart decodes a v8 chart payload into a date-ascending Series.
// Null closes are skipped; dates are exchange-local calendar days at UTC midnight.
func ParseChart(body []byte) (contracts.Series, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return contracts.Series{}, fmt.Errorf("decode json: %w", err)
	}
	if resp.Chart.Error != nil {
		return contracts.Series{}, fmt.Errorf("yahoo error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return contracts.Series{}, ErrNoData
	}

	r := resp.Chart.Result[0]
	closes := pickCloses(r)
	if len(r.Timestamp) == 0 || closes == nil {
		return contracts.Series{}, ErrNoData
	}

	type point struct {
		date  time.Time
		value float64
	}
	byDay := make(map[time.Time]float64, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		local := time.Unix(ts+r.Meta.GMTOffset, 0).UTC()
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		// 같은 날짜가 중복되면 마지막 값 사용
		byDay[day] = *closes[i]
	}
	if len(byDay) == 0 {
		return contracts.Series{}, ErrNoData
	}

	points := make([]point, 0, len(byDay))
	for d, v := range byDay {
		points = append(points, point{date: d, value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].date.Before(points[j].date) })

	out := contracts.Series{
		Dates:  make([]time.Time, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		out.Dates[i] = p.date
		out.Values[i] = p.value
	}
	return out, nil
}

func pickCloses(r chartResult) []*float64 {
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		return r.Indicators.AdjClose[0].AdjClose
	}
	if len(r.Indicators.Quote) > 0 && len(r.Indicators.Quote[0].Close) > 0 {
		return r.Indicators.Quote[0].Close
	}
	return nil
}
