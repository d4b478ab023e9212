// Package trends reads historical KPI series from the external analytics service.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Point is one sample of an area's KPI history.
type Point struct {
	Date            time.Time `json:"date"`
	AverageProgress float64   `json:"average_progress"`
	CompletionRate  float64   `json:"completion_rate"`
}

type Series struct {
	AreaID uuid.UUID `json:"area_id"`
	Days   int       `json:"days"`
	Points []Point   `json:"points"`
}

type Client interface {
	AreaTrend(ctx context.Context, tenantID, areaID uuid.UUID, days int) (*Series, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("trends %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

// AreaTrend returns the last days of KPI history for an area.
func (c *HTTPClient) AreaTrend(ctx context.Context, tenantID, areaID uuid.UUID, days int) (*Series, error) {
	q := url.Values{}
	q.Set("tenant", tenantID.String())
	q.Set("days", strconv.Itoa(days))
	data, err := c.doReq(ctx, http.MethodGet, "/trends/areas/"+areaID.String(), q)
	if err != nil {
		return nil, err
	}
	var series Series
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decode trend: %w", err)
	}
	if series.Points == nil {
		series.Points = []Point{}
	}
	return &series, nil
}
