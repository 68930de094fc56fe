package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/internal/http/middleware"
	"github.com/lumine/darshan-bookings/internal/http/response"
	"github.com/lumine/darshan-bookings/internal/wizard"
)

// StartSession creates (or restarts) the caller's booking wizard,
// seeding the primary member from the current-user record.
func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	s := h.wizards.StartSession(r.Context(), user)
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// GetSession returns the wizard snapshot: step, draft, flags, result.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handlers) NextStep(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Next()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handlers) PrevStep(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Prev()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type slotUpdateRequest struct {
	// Temple is the raw selection value; TempleLabel is the option
	// text the user saw, trusted as the display name when present.
	Temple      *string `json:"temple,omitempty"`
	TempleLabel string  `json:"templeLabel,omitempty"`
	Date        *string `json:"date,omitempty"`
	TimeSlot    *string `json:"timeSlot,omitempty"`
}

// UpdateSlot merges slot-step selections into the draft. Fields left
// out of the body are untouched.
func (h *Handlers) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req slotUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if req.Temple != nil {
		s.SetTemple(*req.Temple, req.TempleLabel)
	}
	if req.Date != nil {
		s.SetVisitDate(*req.Date)
	}
	if req.TimeSlot != nil {
		if *req.TimeSlot != "" && !domain.IsCanonicalTimeSlot(*req.TimeSlot) {
			response.BadRequest(w, "Unknown time slot")
			return
		}
		s.SetTimeSlot(*req.TimeSlot)
	}

	writeJSON(w, http.StatusOK, s.Snapshot())
}

// GetTemples returns the temple directory. With an active wizard the
// fetch also backfills a name-less selected temple.
func (h *Handlers) GetTemples(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if s, ok := h.wizards.Session(user.ID); ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"temples": s.Temples(r.Context())})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"temples": h.temples.FetchTemples(r.Context())})
}

// GetSlots returns the slot board for the given date, filtered by
// crowd predictions when available.
func (h *Handlers) GetSlots(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	nodeID := r.URL.Query().Get("node_id")
	writeJSON(w, http.StatusOK, s.Slots(r.Context(), date, nodeID))
}

// AddMember appends a blank roster row.
func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.AddMember()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

type memberUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UpdateMember merges one field into one member; email edits re-run
// the uniqueness check and update the member's emailError.
func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req memberUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	localID := chi.URLParam(r, "localId")
	if !s.UpdateMember(localID, req.Field, req.Value) {
		response.NotFound(w, "Member not found or unknown field")
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// RemoveMember deletes a roster row. The last remaining member cannot
// be removed.
func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if !s.RemoveMember(chi.URLParam(r, "localId")) {
		response.Conflict(w, "Cannot remove this member")
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// VerifyAadhaar kicks off asynchronous verification for a member; the
// roster stays editable while it runs.
func (h *Handlers) VerifyAadhaar(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if !s.VerifyAadhaar(chi.URLParam(r, "localId")) {
		response.BadRequest(w, "Member has no aadhaar number to verify")
		return
	}
	writeJSON(w, http.StatusAccepted, s.Snapshot())
}

// Submit runs the full validation-then-create pipeline.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := s.Submit(r.Context(), middleware.Bearer(r))
	if err != nil {
		if errors.Is(err, wizard.ErrSubmitInProgress) {
			response.Conflict(w, err.Error())
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"booking": result,
		"state":   s.Snapshot(),
	})
}

// ResetSession returns the wizard to a fresh step-1 state.
func (h *Handlers) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// session resolves the caller's wizard, writing the error response
// when there is none.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "Authentication required")
		return nil, false
	}

	s, ok := h.wizards.Session(user.ID)
	if !ok {
		response.NotFound(w, "No booking session; start one first")
		return nil, false
	}
	return s, true
}
