package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/internal/platform/session"
	"github.com/lumine/darshan-bookings/internal/utils"
	"github.com/lumine/darshan-bookings/pkg/events"
	"github.com/lumine/darshan-bookings/pkg/logger"
)

const (
	msgNameRequired   = "Name is required for every member"
	msgEmailRequired  = "Email is required"
	msgEmailInvalid   = "Invalid email format"
	msgEmailDuplicate = "This email is already used"
	msgTempleRequired = "Please select a temple"
	msgDateRequired   = "Please select a visit date"
	msgDateOutOfRange = "Visit date must be between today and three months from now"
	msgSlotRequired   = "Please select a time slot"
	msgNoMembers      = "At least one member is required"
	msgUserRequired   = "You must be signed in to book"
)

// ErrSubmitInProgress rejects a second submit while one is running;
// ShowSuccess and IsSubmitting are mutually exclusive by construction.
var ErrSubmitInProgress = errors.New("a submission is already in progress")

// Submit runs the whole pipeline: client-side validation, the single
// create-booking call, and the state transition. Validation failures
// never reach the network. On any failure the draft and step are left
// untouched so the user can correct and retry; a retry is always a
// full resubmission (no idempotency key is sent).
func (s *Session) Submit(ctx context.Context, bearer string) (*domain.BookingResult, error) {
	s.mu.Lock()
	if s.isSubmitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.isSubmitting = true
	s.showSuccess = false
	s.lastError = ""

	draft := domain.Draft{
		TempleID:   s.templeID,
		TempleName: s.templeName,
		VisitDate:  s.visitDate,
		TimeSlot:   s.timeSlot,
		Members:    s.roster.Members(),
	}
	user := s.user
	primaryEmail := s.roster.PrimaryEmail()
	s.mu.Unlock()

	if err := s.validateDraft(&draft, &user, primaryEmail); err != nil {
		s.fail(err)
		return nil, err
	}

	req := buildRequest(&draft, &user, primaryEmail, time.Now())

	logger.InfoContext(ctx, "Submitting booking",
		"booking_number", req.BookingNumber,
		"temple_id", req.TempleID,
		"time_slot", req.TimeSlot,
		"total_members", req.TotalMembers,
	)

	result, err := s.deps.Creator.CreateBooking(ctx, req, bearer)
	if err != nil {
		logger.ErrorContext(ctx, "Booking submission failed", "error", err)
		s.fail(err)
		return nil, err
	}
	if result.BookingNumber == "" {
		result.BookingNumber = req.BookingNumber
	}

	s.mu.Lock()
	s.result = result
	s.isSubmitting = false
	s.showSuccess = true
	s.mu.Unlock()

	s.afterSuccess(ctx, &draft, &user, result)
	return result, nil
}

// fail records the error and clears the submitting flag; the step and
// draft stay put.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isSubmitting = false
	s.lastError = err.Error()
}

// afterSuccess publishes the booking event and pins the new booking
// for the profile view. Both are best effort; the booking already
// exists server-side.
func (s *Session) afterSuccess(ctx context.Context, draft *domain.Draft, user *session.User, result *domain.BookingResult) {
	now := time.Now()

	if s.deps.Events != nil {
		event := events.BookingCreatedEvent{
			BookingID:     result.ID,
			BookingNumber: result.BookingNumber,
			UserID:        user.ID,
			UserEmail:     user.Email,
			UserName:      user.Name(),
			TempleName:    draft.TempleName,
			VisitDate:     draft.VisitDate,
			TimeSlot:      draft.TimeSlot,
			TotalMembers:  len(draft.Members),
			CreatedAt:     now,
		}
		if err := s.deps.Events.Publish(ctx, events.BookingCreated, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking created event",
				"error", err, "booking_id", result.ID)
		}
	}

	if s.deps.Recorder != nil {
		s.deps.Recorder.RememberActive(ctx, user.ID, &domain.BookingRecord{
			ID:            result.ID,
			BookingNumber: result.BookingNumber,
			VisitDate:     draft.VisitDate,
			TimeSlot:      draft.TimeSlot,
			Temple:        draft.TempleName,
			Status:        domain.BookingConfirmed,
			CreatedAt:     now,
		})
	}
}

// validateDraft enforces the submission rules in their significant
// order: names, then emails, then temple, date, slot, roster, user.
// The first failing class short-circuits the rest; email failures are
// also written back onto the offending members.
func (s *Session) validateDraft(draft *domain.Draft, user *session.User, primaryEmail string) error {
	for _, m := range draft.Members {
		if utils.NormalizeString(m.Name) == "" {
			return &domain.ValidationError{
				Field:         "name",
				MemberLocalID: m.LocalID,
				Message:       msgNameRequired,
			}
		}
	}

	if err := s.validateEmails(draft.Members, primaryEmail); err != nil {
		return err
	}

	if draft.TempleID <= 0 {
		return domain.NewValidationError("temple", msgTempleRequired)
	}

	if draft.VisitDate == "" {
		return domain.NewValidationError("visitDate", msgDateRequired)
	}
	if !visitDateInWindow(draft.VisitDate, time.Now()) {
		return domain.NewValidationError("visitDate", msgDateOutOfRange)
	}

	if draft.TimeSlot == "" {
		return domain.NewValidationError("timeSlot", msgSlotRequired)
	}

	if len(draft.Members) == 0 {
		return domain.NewValidationError("members", msgNoMembers)
	}

	if user.ID == 0 {
		return domain.NewValidationError("user", msgUserRequired)
	}

	return nil
}

// validateEmails checks every non-primary member: required, syntactic,
// unique against the primary user's email and all other members. All
// failures are attached to their members; the returned error
// references the first offender in roster order.
func (s *Session) validateEmails(members []domain.Member, primaryEmail string) error {
	seen := make(map[string]bool, len(members)+1)
	if primaryEmail != "" {
		seen[primaryEmail] = true
	}

	memberErrors := make(map[string]string)
	var firstErr *domain.ValidationError

	for i, m := range members {
		if i == 0 {
			continue // primary member uses the account email
		}

		email := utils.NormalizeEmail(m.Email)
		var msg string
		switch {
		case email == "":
			msg = msgEmailRequired
		case !utils.IsValidEmail(email):
			msg = msgEmailInvalid
		case seen[email]:
			msg = msgEmailDuplicate
		default:
			seen[email] = true
		}

		memberErrors[m.LocalID] = msg
		if msg != "" && firstErr == nil {
			firstErr = &domain.ValidationError{
				Field:         "email",
				MemberLocalID: m.LocalID,
				Message:       msg,
			}
		}
	}

	if firstErr == nil {
		return nil
	}

	s.mu.Lock()
	for localID, msg := range memberErrors {
		s.roster.SetEmailError(localID, msg)
	}
	s.mu.Unlock()

	return firstErr
}

// visitDateInWindow accepts ISO dates from today through three months
// out, inclusive.
func visitDateInWindow(date string, now time.Time) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	latest := today.AddDate(0, domain.MaxAdvanceMonths, 0)
	return !d.Before(today) && !d.After(latest)
}

// buildRequest flattens the draft into the booking API payload. The
// primary member carries the account's email; optional fields go out
// as nulls.
func buildRequest(draft *domain.Draft, user *session.User, primaryEmail string, now time.Time) *domain.CreateBookingRequest {
	entries := make([]domain.BookingMemberEntry, 0, len(draft.Members))
	for i, m := range draft.Members {
		email := utils.NormalizeEmail(m.Email)
		if i == 0 {
			email = primaryEmail
		}

		entries = append(entries, domain.BookingMemberEntry{
			Name:       utils.NormalizeString(m.Name),
			Age:        m.Age,
			Gender:     m.Gender,
			Email:      optional(email),
			Aadhaar:    optional(m.Aadhaar),
			IsVerified: m.IsVerified,
		})
	}

	return &domain.CreateBookingRequest{
		BookingNumber: domain.GenerateBookingNumber(now),
		TempleID:      draft.TempleID,
		TempleName:    draft.TempleName,
		BookingDate:   draft.VisitDate,
		TimeSlot:      draft.TimeSlot,
		TotalMembers:  len(draft.Members),
		UserID:        user.ID,
		Members:       entries,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
