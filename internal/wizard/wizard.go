// Package wizard owns the three-step darshan booking flow: slot
// selection, member roster, review and submission. One session exists
// per signed-in user; all of its state lives in memory and dies with
// the session.
package wizard

import (
	"context"
	"strconv"
	"sync"

	"github.com/lumine/darshan-bookings/internal/directory"
	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/internal/platform/session"
	"github.com/lumine/darshan-bookings/internal/predictions"
	"github.com/lumine/darshan-bookings/internal/roster"
	"github.com/lumine/darshan-bookings/internal/verify"
	"github.com/lumine/darshan-bookings/pkg/events"
)

const (
	StepSelectSlot = 1
	StepAddMembers = 2
	StepReview     = 3

	TotalSteps = 3
)

// BookingCreator is the booking API surface the submission pipeline
// needs.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req *domain.CreateBookingRequest, bearer string) (*domain.BookingResult, error)
}

// TempleSource supplies the temple directory; fetches fail soft.
type TempleSource interface {
	FetchTemples(ctx context.Context) []domain.Temple
}

// PredictionSource supplies per-slot crowd predictions; errors mean
// "no signal".
type PredictionSource interface {
	SlotPredictions(ctx context.Context, q predictions.SlotQuery) (map[string]float64, error)
}

// ActiveRecorder lets a fresh booking appear in the profile view
// before the history endpoint catches up.
type ActiveRecorder interface {
	RememberActive(ctx context.Context, userID int64, rec *domain.BookingRecord)
}

type Deps struct {
	Temples     TempleSource
	Predictions PredictionSource
	Creator     BookingCreator
	Events      events.Publisher
	Verifier    verify.Verifier
	Recorder    ActiveRecorder
}

// Session is one user's wizard. All mutations serialize on the
// session mutex, mirroring the event-loop discipline the flow was
// designed around.
type Session struct {
	mu   sync.Mutex
	deps *Deps

	user     session.User
	resolver *directory.Resolver
	roster   *roster.Roster
	verify   *verify.Manager

	step       int
	templeID   int64
	templeName string
	visitDate  string
	timeSlot   string

	isSubmitting bool
	showSuccess  bool
	lastError    string
	result       *domain.BookingResult
}

// State is the wizard snapshot handed to the rendering layer.
type State struct {
	CurrentStep  int                   `json:"currentStep"`
	TotalSteps   int                   `json:"totalSteps"`
	Draft        domain.Draft          `json:"draft"`
	IsSubmitting bool                  `json:"isSubmitting"`
	ShowSuccess  bool                  `json:"showSuccess"`
	LastError    string                `json:"lastError,omitempty"`
	Result       *domain.BookingResult `json:"bookingResult,omitempty"`
}

func newSession(deps *Deps, user session.User, temples []domain.Temple) *Session {
	return &Session{
		deps:     deps,
		user:     user,
		resolver: directory.NewResolver(temples),
		roster:   roster.New(&user),
		verify:   verify.NewManager(deps.Verifier),
		step:     StepSelectSlot,
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		CurrentStep: s.step,
		TotalSteps:  TotalSteps,
		Draft: domain.Draft{
			TempleID:   s.templeID,
			TempleName: s.templeName,
			VisitDate:  s.visitDate,
			TimeSlot:   s.timeSlot,
			Members:    s.roster.Members(),
		},
		IsSubmitting: s.isSubmitting,
		ShowSuccess:  s.showSuccess,
		LastError:    s.lastError,
		Result:       s.result,
	}
}

// Next advances one step; at step 3 it is a no-op, not an error.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < TotalSteps {
		s.step++
	}
	return s.step
}

// Prev retreats one step; at step 1 it is a no-op.
func (s *Session) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step > StepSelectSlot {
		s.step--
	}
	return s.step
}

// SetTemple records a temple selection from its raw value and the
// label the user saw. The label, when present, is the highest
// confidence name source.
func (s *Session) SetTemple(rawValue, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templeID, s.templeName = s.resolver.Resolve(rawValue, label)
}

func (s *Session) SetVisitDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visitDate = date
}

func (s *Session) SetTimeSlot(slot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeSlot = slot
}

// Temples refreshes the directory snapshot and returns it. If a temple
// id was chosen while the directory was still empty, the name is
// backfilled now.
func (s *Session) Temples(ctx context.Context) []domain.Temple {
	temples := s.deps.Temples.FetchTemples(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver.SetTemples(temples)
	s.templeName = s.resolver.Backfill(s.templeID, s.templeName)
	return temples
}

// SlotBoard is what the slot-selection step renders: all canonical
// slots plus the recommended subset. NoRecommended marks the explicit
// "no recommended slots" state; the UI must not show an empty grid.
type SlotBoard struct {
	Slots         []string `json:"slots"`
	Recommended   []string `json:"recommended"`
	Filtered      bool     `json:"filtered"`
	NoRecommended bool     `json:"noRecommended"`
}

// Slots builds the slot board for a date, consulting the prediction
// service when one is configured. Prediction failures degrade to the
// unfiltered canonical list.
func (s *Session) Slots(ctx context.Context, date, nodeID string) SlotBoard {
	board := SlotBoard{
		Slots:       append([]string(nil), domain.CanonicalTimeSlots...),
		Recommended: append([]string(nil), domain.CanonicalTimeSlots...),
	}
	if s.deps.Predictions == nil {
		return board
	}

	s.mu.Lock()
	templeID := s.templeID
	s.mu.Unlock()
	if templeID <= 0 {
		return board
	}

	preds, err := s.deps.Predictions.SlotPredictions(ctx, predictions.SlotQuery{
		SiteID: formatID(templeID),
		NodeID: nodeID,
		Date:   date,
	})
	if err != nil || len(preds) == 0 {
		return board
	}

	board.Filtered = true
	board.Recommended = predictions.Recommended(preds)
	board.NoRecommended = len(board.Recommended) == 0
	return board
}

func (s *Session) AddMember() domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Add()
}

// RemoveMember drops a member and cancels any verification still in
// flight for it.
func (s *Session) RemoveMember(localID string) bool {
	s.mu.Lock()
	removed := s.roster.Remove(localID)
	s.mu.Unlock()

	if removed {
		s.verify.Cancel(localID)
	}
	return removed
}

func (s *Session) UpdateMember(localID, field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Update(localID, field, value)
}

// VerifyAadhaar starts asynchronous verification for one member. A
// member without an aadhaar value is a no-op. The result is applied
// only if the member still exists and the roster has not been reset in
// the meantime.
func (s *Session) VerifyAadhaar(localID string) bool {
	s.mu.Lock()
	member, ok := s.roster.Get(localID)
	epoch := s.roster.Epoch()
	s.mu.Unlock()

	if !ok || member.Aadhaar == "" {
		return false
	}

	s.verify.Start(context.Background(), localID, func(verified bool) {
		if !verified {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.roster.Epoch() != epoch {
			return // roster was reset while the check ran
		}
		s.roster.SetVerified(localID)
	})
	return true
}

// Reset returns the wizard to a fresh step-1 state with only the
// primary member, discarding the draft and any booking result.
func (s *Session) Reset() {
	s.verify.CancelAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster.Reset(&s.user)
	s.step = StepSelectSlot
	s.templeID = 0
	s.templeName = ""
	s.visitDate = ""
	s.timeSlot = ""
	s.isSubmitting = false
	s.showSuccess = false
	s.lastError = ""
	s.result = nil
}

// Manager owns one wizard session per user.
type Manager struct {
	mu       sync.RWMutex
	deps     Deps
	sessions map[int64]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[int64]*Session),
	}
}

// StartSession creates (or replaces) the wizard for a user, fetching
// the temple directory up front. Replacement matches the front-end
// behavior of remounting the wizard.
func (m *Manager) StartSession(ctx context.Context, user *session.User) *Session {
	temples := m.deps.Temples.FetchTemples(ctx)
	s := newSession(&m.deps, *user, temples)

	m.mu.Lock()
	if old, ok := m.sessions[user.ID]; ok {
		old.verify.CancelAll()
	}
	m.sessions[user.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Session(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// EndSession drops a user's wizard and cancels outstanding async work.
func (m *Manager) EndSession(userID int64) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		s.verify.CancelAll()
	}
}

// formatID renders a temple id as a prediction site id.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
