package ohsome

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/layer"
)

// The ohsome API can take a long time to answer before it starts streaming,
// so the client timeout is generous by default.
const defaultTimeout = 10 * time.Minute

// metadataTimestampLayout is the format of the temporal extent returned by
// the metadata endpoint.
const metadataTimestampLayout = "2006-01-02T15:04Z"

// APIError reports a failed query: a non-2xx status or a payload that could
// not be decoded (typically a timeout during response streaming). It is
// distinguishable from request validation errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ohsome api error (status %d): %s", e.StatusCode, e.Message)
}

// Item is one point of an aggregation result series.
type Item struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Group is the per-boundary result of a groupBy/boundary query.
type Group struct {
	GroupByObject string `json:"groupByObject"`
	Result        []Item `json:"result"`
}

// Response is the decoded body of an aggregation query.
type Response struct {
	Result        []Item  `json:"result"`
	GroupByResult []Group `json:"groupByResult"`
}

// Client queries the ohsome API. The zero value is not usable; construct
// with NewClient.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient returns a Client for the API at baseURL. A zero timeout selects
// the default.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Query runs the layer's aggregation for a single boundary feature.
// times, when non-empty, is one or more ISO-8601 timestrings as accepted by
// the ohsome API time parameter.
func (c *Client) Query(ctx context.Context, def layer.Definition, feat *geojson.Feature, times string) (*Response, error) {
	fc := geojson.NewFeatureCollection()
	fc.Append(feat)
	return c.post(ctx, c.baseURL+"/"+strings.Trim(def.Endpoint, "/"), fc, def, times)
}

// QueryGroupByBoundary runs the layer's aggregation for a collection of
// boundaries, returning one result group per input feature.
func (c *Client) QueryGroupByBoundary(ctx context.Context, def layer.Definition, fc *geojson.FeatureCollection, times string) (*Response, error) {
	endpoint := c.baseURL + "/" + strings.Trim(def.Endpoint, "/") + "/groupBy/boundary"
	return c.post(ctx, endpoint, fc, def, times)
}

// LatestTimestamp returns the upper bound of the API's temporal extent, i.e.
// the timestamp of the most recent data the service has ingested.
func (c *Client) LatestTimestamp(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metadata", nil)
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("ohsome: query metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, apiError(resp)
	}

	var body struct {
		ExtractRegion struct {
			TemporalExtent struct {
				ToTimestamp string `json:"toTimestamp"`
			} `json:"temporalExtent"`
		} `json:"extractRegion"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, &APIError{StatusCode: resp.StatusCode, Message: "invalid metadata payload: " + err.Error()}
	}
	ts, err := time.Parse(metadataTimestampLayout, body.ExtractRegion.TemporalExtent.ToTimestamp)
	if err != nil {
		return time.Time{}, &APIError{StatusCode: resp.StatusCode, Message: "invalid metadata timestamp: " + err.Error()}
	}
	return ts, nil
}

func (c *Client) post(ctx context.Context, endpoint string, fc *geojson.FeatureCollection, def layer.Definition, times string) (*Response, error) {
	bpolys, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("ohsome: marshal boundary: %w", err)
	}
	form := url.Values{
		"bpolys": {string(bpolys)},
		"filter": {def.Filter},
	}
	if times != "" {
		form.Set("time", times)
	}

	slog.Info("ohsome: querying api", "endpoint", endpoint, "layer", def.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ohsome: query %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// The API streams its response; an upstream timeout mid-stream
		// surfaces here as a truncated or invalid JSON document.
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "invalid response payload: " + err.Error()}
	}
	return &out, nil
}

// apiError extracts the error message the API itself reports, falling back
// to the raw body.
func apiError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
