package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-querystring/query"
)

// SlotQuery identifies a prediction lookup: which site, which gate or
// zone, and optionally which date.
type SlotQuery struct {
	SiteID string `url:"site_id"`
	NodeID string `url:"node_id"`
	Date   string `url:"date,omitempty"`
}

// Client talks to the crowd-prediction service. Predictions are an
// optional enhancement; callers treat any error as "no signal" and
// show all canonical slots unfiltered.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type slotsResponse struct {
	Slots map[string]float64 `json:"slots"`
}

// SlotPredictions returns the predicted visitor count per time-slot
// label, or an error when the service is unavailable.
func (c *Client) SlotPredictions(ctx context.Context, q SlotQuery) (map[string]float64, error) {
	values, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("encode prediction query: %w", err)
	}

	url := c.baseURL + "/predict/slots?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch predictions: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction service returned status %d", res.StatusCode)
	}

	var payload slotsResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}

	return payload.Slots, nil
}
