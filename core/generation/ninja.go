// Package generation fetches hourly solar and wind profiles from
// renewables.ninja and keeps them as CSV files in the location's
// auto-generated directory.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/kilianp07/clover/auth"
	"github.com/kilianp07/clover/core/logger"
)

// DefaultBaseURL is the renewables.ninja API root.
const DefaultBaseURL = "https://www.renewables.ninja/api/"

// feb29 is the index of the first hour of 29 February in a leap year.
const feb29 = (31 + 28) * 24

// Solar columns.
const (
	ColumnElectricity       = "electricity"
	ColumnDirectIrradiance  = "irradiance_direct"
	ColumnDiffuseIrradiance = "irradiance_diffuse"
	ColumnTotalIrradiance   = "irradiance_total"
	ColumnTemperature       = "temperature"
)

// ErrNinja is returned when renewables.ninja answers with an error or with
// something that is not a profile.
var ErrNinja = errors.New("renewables.ninja request failed")

// Kind selects a profile type.
type Kind string

const (
	Solar Kind = "solar"
	Wind  Kind = "wind"
)

// endpoint returns the API model name of the kind.
func (k Kind) endpoint() (string, error) {
	switch k {
	case Solar:
		return "pv", nil
	case Wind:
		return "wind", nil
	}
	return "", fmt.Errorf("unknown profile kind %q", k)
}

// Client calls the renewables.ninja data API.
type Client struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
	log     logger.Logger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithLimiter replaces the request limiter.
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) { c.log = logger.OrNop(l) }
}

// NewClient returns a client authenticating with token. By default requests
// are spaced by interval; renewables.ninja locks out bursty callers.
func NewClient(token *auth.APIToken, timeout, interval time.Duration, opts ...ClientOption) (*Client, error) {
	hc, err := token.Client(context.Background(), &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("renewables.ninja client: %w", err)
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		hc:      hc,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		log:     logger.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type ninjaResponse struct {
	Data map[string]map[string]float64 `json:"data"`
}

// FetchYear downloads the UTC profile of one year. Rows are ordered by
// timestamp, 29 February is dropped in leap years and solar profiles gain an
// irradiance_total column.
func (c *Client) FetchYear(ctx context.Context, kind Kind, params url.Values, year int) (Profile, error) {
	ep, err := kind.endpoint()
	if err != nil {
		return Profile{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Profile{}, err
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("date_from", fmt.Sprintf("%d-01-01", year))
	q.Set("date_to", fmt.Sprintf("%d-12-31", year))
	q.Set("format", "json")
	q.Set("header", "true")
	u := c.baseURL + "data/" + ep + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create request: %w", err)
	}
	c.log.Debugf("calling renewables.ninja: %s", u)
	resp, err := c.hc.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%w: status %d: %s", ErrNinja, resp.StatusCode, body)
	}
	var parsed ninjaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Errorf("failed to parse renewables.ninja data, check the API token: %v", err)
		return Profile{}, fmt.Errorf("%w: %v", ErrNinja, err)
	}
	if len(parsed.Data) == 0 {
		return Profile{}, fmt.Errorf("%w: response holds no data", ErrNinja)
	}

	p := tabulate(parsed.Data)
	if year%4 == 0 {
		p.DropRows(feb29, feb29+24)
	}
	if kind == Solar {
		if err := p.AddSum(ColumnTotalIrradiance, ColumnDirectIrradiance, ColumnDiffuseIrradiance); err != nil {
			return Profile{}, fmt.Errorf("total irradiance: %w", err)
		}
	}
	return p, nil
}

// tabulate orders the rows by timestamp and the columns by name.
func tabulate(data map[string]map[string]float64) Profile {
	keys := make([]string, 0, len(data))
	colSet := make(map[string]struct{})
	for k, row := range data {
		keys = append(keys, k)
		for c := range row {
			colSet[c] = struct{}{}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return timestampLess(keys[i], keys[j]) })
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	p := Profile{Columns: cols, Rows: make([][]float64, len(keys))}
	for r, k := range keys {
		row := make([]float64, len(cols))
		for i, c := range cols {
			row[i] = data[k][c]
		}
		p.Rows[r] = row
	}
	return p
}

// timestampLess compares epoch-millisecond keys numerically and anything
// else lexically.
func timestampLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
