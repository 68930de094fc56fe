// Package bookingapi is the HTTP client for the external booking
// backend: booking creation and per-user history. The backend is a
// black box; only the request/response shapes here are relied on.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/lumine/darshan-bookings/internal/domain"
)

const (
	msgNetworkError   = "Network error. Please check your connection and try again."
	msgBadResponse    = "Invalid response from server. Please try again."
	msgRateLimited    = "Server is busy (rate limited). Please wait a moment and try again."
	msgCreateFallback = "Failed to create booking"
	msgListFallback   = "Failed to fetch bookings"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type createResponse struct {
	Message string `json:"message"`
	Booking struct {
		ID            int64  `json:"id"`
		BookingNumber string `json:"bookingNumber"`
	} `json:"booking"`
}

// CreateBooking posts a fully-validated booking draft. Any failure
// comes back as a *domain.TransportError whose message carries the
// most specific detail the server offered.
func (c *Client) CreateBooking(ctx context.Context, req *domain.CreateBookingRequest, bearer string) (*domain.BookingResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode booking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &domain.TransportError{Message: msgNetworkError, Err: err}
	}
	defer res.Body.Close()

	raw, err := readJSONBody(res)
	if err != nil {
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return nil, &domain.TransportError{
				StatusCode: res.StatusCode,
				Message:    fmt.Sprintf("Server error (%d): %s", res.StatusCode, err),
				Err:        err,
			}
		}
		return nil, &domain.TransportError{Message: msgBadResponse, Err: err}
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.TransportError{StatusCode: res.StatusCode, Message: msgRateLimited}
	}
	if res.StatusCode != http.StatusCreated && (res.StatusCode < 200 || res.StatusCode >= 300) {
		return nil, &domain.TransportError{
			StatusCode: res.StatusCode,
			Message:    flattenAPIError(raw, msgCreateFallback),
		}
	}

	var payload createResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.TransportError{Message: msgBadResponse, Err: err}
	}

	return &domain.BookingResult{
		ID:            payload.Booking.ID,
		BookingNumber: payload.Booking.BookingNumber,
	}, nil
}

// apiBooking tolerates the several field spellings the backend has
// used across schema revisions.
type apiBooking struct {
	ID            int64                       `json:"id"`
	BookingNumber string                      `json:"bookingNumber"`
	VisitDate     string                      `json:"visitDate"`
	BookingDate   string                      `json:"bookingDate"`
	Date          string                      `json:"date"`
	TimeSlot      string                      `json:"timeSlot"`
	TimeSlotAlt   string                      `json:"time_slot"`
	Temple        string                      `json:"temple"`
	TempleName    string                      `json:"templeName"`
	Members       []domain.BookingMemberEntry `json:"members"`
	Status        string                      `json:"status"`
	CreatedAt     time.Time                   `json:"createdAt"`
}

func (b *apiBooking) normalize() domain.BookingRecord {
	rec := domain.BookingRecord{
		ID:            b.ID,
		BookingNumber: b.BookingNumber,
		VisitDate:     firstNonEmpty(b.VisitDate, b.BookingDate, b.Date),
		TimeSlot:      firstNonEmpty(b.TimeSlot, b.TimeSlotAlt),
		Temple:        firstNonEmpty(b.Temple, b.TempleName),
		Members:       b.Members,
		Status:        domain.BookingStatus(firstNonEmpty(b.Status, string(domain.BookingConfirmed))),
		CreatedAt:     b.CreatedAt,
	}
	if rec.BookingNumber == "" && b.ID != 0 {
		rec.BookingNumber = fmt.Sprintf("%d", b.ID)
	}
	return rec
}

// firstNonEmpty returns the first of its arguments that is not the
// empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type listResponse struct {
	Bookings []apiBooking `json:"bookings"`
	Booking  *apiBooking  `json:"booking"`
}

// UserBookings fetches booking history for a user. The endpoint has
// answered with both a list and a single-booking object over time.
func (c *Client) UserBookings(ctx context.Context, userID int64, bearer string) ([]domain.BookingRecord, error) {
	url := fmt.Sprintf("%s/bookings/user/%d", c.baseURL, userID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &domain.TransportError{Message: msgNetworkError, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.TransportError{StatusCode: res.StatusCode, Message: msgRateLimited}
	}

	raw, err := readJSONBody(res)
	if err != nil {
		return nil, &domain.TransportError{
			StatusCode: res.StatusCode,
			Message:    fmt.Sprintf("Server error (%d): %s", res.StatusCode, err),
			Err:        err,
		}
	}

	if res.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{
			StatusCode: res.StatusCode,
			Message:    flattenAPIError(raw, msgListFallback),
		}
	}

	var payload listResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.TransportError{Message: msgBadResponse, Err: err}
	}

	records := make([]domain.BookingRecord, 0, len(payload.Bookings))
	for i := range payload.Bookings {
		records = append(records, payload.Bookings[i].normalize())
	}
	if len(records) == 0 && payload.Booking != nil {
		records = append(records, payload.Booking.normalize())
	}
	return records, nil
}

// readJSONBody enforces a JSON content type before decoding; backends
// in a bad state often answer HTML error pages.
func readJSONBody(res *http.Response) ([]byte, error) {
	contentType := res.Header.Get("Content-Type")
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if !strings.Contains(contentType, "application/json") {
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = "invalid response format"
		}
		return nil, fmt.Errorf("%s", text)
	}
	return body, nil
}

type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type structuredError struct {
	FieldErrors map[string]json.RawMessage `json:"fieldErrors"`
	FormErrors  []string                   `json:"formErrors"`
	Message     string                     `json:"message"`
}

// flattenAPIError converts whatever error shape the server produced
// into one readable message: a plain string, structured field-level
// validation detail, a message object, or the fallback.
func flattenAPIError(raw []byte, fallback string) string {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fallback
	}

	if len(env.Error) > 0 {
		var plain string
		if err := json.Unmarshal(env.Error, &plain); err == nil && plain != "" {
			return plain
		}

		var structured structuredError
		if err := json.Unmarshal(env.Error, &structured); err == nil {
			if len(structured.FieldErrors) > 0 {
				return "Validation errors:\n" + flattenFieldErrors(structured.FieldErrors)
			}
			if len(structured.FormErrors) > 0 {
				return "Form errors: " + strings.Join(structured.FormErrors, ", ")
			}
			if structured.Message != "" {
				return structured.Message
			}
		}
	}

	if env.Message != "" {
		return env.Message
	}
	return fallback
}

// flattenFieldErrors renders one line per field in stable order.
func flattenFieldErrors(fieldErrors map[string]json.RawMessage) string {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		raw := fieldErrors[field]

		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			lines = append(lines, fmt.Sprintf("%s: %s", field, strings.Join(many, ", ")))
			continue
		}

		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			lines = append(lines, fmt.Sprintf("%s: %s", field, one))
			continue
		}

		lines = append(lines, fmt.Sprintf("%s: %s", field, string(raw)))
	}
	return strings.Join(lines, "\n")
}
