package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultSourceURL = "https://www.cnb.cz/cs/financni_trhy/devizovy_trh/kurzy_devizoveho_trhu/denni_kurz.txt"

const fetchTimeout = 10 * time.Second

// Client downloads one day's full fixing table from the central-bank daily
// rate source.
type Client struct {
	sourceURL  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a client against RATE_SOURCE_URL, defaulting to the CNB
// daily fixing endpoint.
func NewClient(logger *logrus.Logger) *Client {
	url := os.Getenv("RATE_SOURCE_URL")
	if url == "" {
		url = defaultSourceURL
	}
	return &Client{
		sourceURL:  url,
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger,
	}
}

// FetchDay downloads the fixing for one day. The first response line must
// start with the requested date; anything else (holiday page, error body) is
// a fetch failure, so the caller can fall back to the previous day. A client
// timeout counts the same way.
func (c *Client) FetchDay(ctx context.Context, day time.Time) (map[string]decimal.Decimal, error) {
	dateParam := day.Format("02.01.2006")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL+"?date="+dateParam, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return parseDayTable(string(body), dateParam)
}

// parseDayTable parses the pipe-delimited fixing:
//
//	02.01.2024 #1
//	země|měna|množství|kód|kurz
//	USA|dolar|1|USD|22,266
//
// Rates use a decimal comma and are quoted per `amount` units (100 for small
// currencies), so the stored rate is kurz/množství.
func parseDayTable(body string, dateParam string) (map[string]decimal.Decimal, error) {
	if !strings.HasPrefix(body, dateParam) {
		return nil, fmt.Errorf("rate table does not start with %s", dateParam)
	}

	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	table := make(map[string]decimal.Decimal)
	for i, line := range lines {
		if i < 2 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed rate line %q", line)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
		if err != nil || amount.IsZero() {
			return nil, fmt.Errorf("malformed rate amount in line %q", line)
		}
		rate, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(fields[4]), ",", ".", 1))
		if err != nil {
			return nil, fmt.Errorf("malformed rate value in line %q", line)
		}
		table[strings.TrimSpace(fields[3])] = rate.Div(amount)
	}
	if len(table) == 0 {
		return nil, errors.New("empty rate table")
	}
	return table, nil
}
