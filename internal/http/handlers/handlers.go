package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/internal/history"
	"github.com/lumine/darshan-bookings/internal/http/response"
	"github.com/lumine/darshan-bookings/internal/wizard"
)

type Handlers struct {
	wizards *wizard.Manager
	history *history.Service
	temples wizard.TempleSource
}

func New(wizards *wizard.Manager, historySvc *history.Service, temples wizard.TempleSource) *Handlers {
	return &Handlers{
		wizards: wizards,
		history: historySvc,
		temples: temples,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeDomainError maps pipeline errors onto the HTTP surface:
// validation stays a client problem, upstream failures are gateway
// problems, and upstream throttling is passed through as 429.
func writeDomainError(w http.ResponseWriter, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		response.ValidationFailed(w, ve.Message)
		return
	}

	if te, ok := domain.AsTransport(err); ok {
		if te.StatusCode == http.StatusTooManyRequests {
			response.RateLimit(w, te.Message)
			return
		}
		response.UpstreamError(w, te.Message)
		return
	}

	response.InternalError(w, err.Error())
}
