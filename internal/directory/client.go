package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/pkg/logger"
)

// Client fetches the temple directory from the booking API. Fetches
// fail soft: any transport or parse error yields the bundled canonical
// list so the wizard can always render a temple dropdown.
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

type templesResponse struct {
	Temples []domain.Temple `json:"temples"`
}

// FetchTemples returns the directory's temples in order, deduplicated
// by id. It never returns an error; on failure the canonical fallback
// list is returned instead.
func (c *Client) FetchTemples(ctx context.Context) []domain.Temple {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/temples", nil)
	if err != nil {
		logger.WarnContext(ctx, "Temple directory request failed, using fallback", "error", err)
		return domain.CanonicalTemples()
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "Temple directory unreachable, using fallback", "error", err)
		return domain.CanonicalTemples()
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		logger.WarnContext(ctx, "Temple directory returned non-200, using fallback", "status", res.StatusCode)
		return domain.CanonicalTemples()
	}

	var payload templesResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		logger.WarnContext(ctx, "Temple directory response malformed, using fallback",
			"error", fmt.Errorf("decode temples: %w", err))
		return domain.CanonicalTemples()
	}
	if len(payload.Temples) == 0 {
		return domain.CanonicalTemples()
	}

	return dedupeByID(payload.Temples)
}

// dedupeByID keeps the first occurrence of each id, preserving order.
// The directory has historically contained duplicate rows for renamed
// temples.
func dedupeByID(temples []domain.Temple) []domain.Temple {
	seen := make(map[int64]bool, len(temples))
	out := make([]domain.Temple, 0, len(temples))
	for _, t := range temples {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
