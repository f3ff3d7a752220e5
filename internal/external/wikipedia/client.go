package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/pairlab/pkg/httputil"
	"github.com/wonny/pairlab/pkg/logger"
)

// DefaultSP500URL lists the S&P 500 constituents.
const DefaultSP500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Client scrapes index membership tables from Wikipedia
// ⭐ SSOT: 유니버스(종목 목록) 수집은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	sp500URL   string
}

// NewClient creates a new Wikipedia client. An empty url selects DefaultSP500URL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, sp500URL string) *Client {
	if sp500URL == "" {
		sp500URL = DefaultSP500URL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("wikipedia"),
		sp500URL:   sp500URL,
	}
}

// FetchSP500Tickers returns the symbols of the constituents table in page order.
func (c *Client) FetchSP500Tickers(ctx context.Context) ([]string, error) {
	body, err := c.httpClient.GetBytes(ctx, c.sp500URL)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents page: %w", err)
	}

	tickers, err := ParseConstituents(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(tickers)).Info("Fetched S&P 500 constituents")
	return tickers, nil
}

// ParseConstituents extracts the first column of the constituents table.
// Yahoo spells share classes with a dash (BRK.B → BRK-B).
func ParseConstituents(html []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		// 페이지 구조 변경 대비: 첫 번째 wikitable 사용
		table = doc.Find("table.wikitable").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	var tickers []string
	seen := make(map[string]bool)
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return // header row
		}
		symbol := strings.TrimSpace(cell.Text())
		if symbol == "" {
			return
		}
		symbol = strings.ReplaceAll(symbol, ".", "-")
		if seen[symbol] {
			return
		}
		seen[symbol] = true
		tickers = append(tickers, symbol)
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("constituents table has no rows")
	}
	return tickers, nil
}
