package handlers

import (
	"net/http"

	"github.com/lumine/darshan-bookings/internal/http/middleware"
	"github.com/lumine/darshan-bookings/internal/http/response"
)

// ListBookings returns the caller's full booking history from the
// booking API.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.history.UserBookings(r.Context(), user.ID, middleware.Bearer(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// ActiveBooking returns the most recent non-cancelled booking, served
// from cache when the booking API is unreachable. A null booking means
// the user has none.
func (h *Handlers) ActiveBooking(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	booking, err := h.history.ActiveBooking(r.Context(), user.ID, middleware.Bearer(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": booking})
}
