// Package roster manages the ordered list of visit participants for
// one booking session. Index 0 is the primary member, bound to the
// authenticated user's identity. Operations never fail hard; invalid
// field values surface as per-member error strings and are re-checked
// at submission.
package roster

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/internal/platform/session"
	"github.com/lumine/darshan-bookings/internal/utils"
)

const (
	msgEmailInvalid     = "Invalid email format"
	msgEmailUsedPrimary = "This email is already used by the primary member"
	msgEmailUsedByOther = "This email is already used by another member"
)

type Roster struct {
	members      []domain.Member
	primaryEmail string // normalized, from the session's user record

	// epoch increments on every reset so in-flight async results
	// against the previous roster can be recognized and dropped.
	epoch uint64
}

// New seeds the roster with the primary member taken from the current
// user record. A nil user yields a blank primary entry, matching the
// behavior when the session record is unreadable.
func New(user *session.User) *Roster {
	r := &Roster{}
	r.seed(user)
	return r
}

func (r *Roster) seed(user *session.User) {
	primary := blankMember()
	if user != nil {
		primary.Name = user.Name()
		r.primaryEmail = utils.NormalizeEmail(user.Email)
	} else {
		r.primaryEmail = ""
	}
	r.members = []domain.Member{primary}
}

func blankMember() domain.Member {
	return domain.Member{LocalID: uuid.New().String()}
}

// Reset discards all members and reseeds the primary entry. The epoch
// bump invalidates any verification still in flight.
func (r *Roster) Reset(user *session.User) {
	r.epoch++
	r.seed(user)
}

func (r *Roster) Epoch() uint64 {
	return r.epoch
}

func (r *Roster) PrimaryEmail() string {
	return r.primaryEmail
}

func (r *Roster) Len() int {
	return len(r.members)
}

// Members returns a copy; callers cannot mutate roster state through
// it.
func (r *Roster) Members() []domain.Member {
	out := make([]domain.Member, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Roster) Get(localID string) (domain.Member, bool) {
	for _, m := range r.members {
		if m.LocalID == localID {
			return m, true
		}
	}
	return domain.Member{}, false
}

// Add appends a blank member and returns it. No upper bound is
// enforced here; any party-size limit belongs to the booking API.
func (r *Roster) Add() domain.Member {
	m := blankMember()
	r.members = append(r.members, m)
	return m
}

// Remove deletes a member by local id. Removal is refused while only
// one member remains; that guard is advisory and re-validated at
// submission.
func (r *Roster) Remove(localID string) bool {
	if len(r.members) <= 1 {
		return false
	}
	for i, m := range r.members {
		if m.LocalID == localID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// Update merges a single field into a member. Email edits re-run the
// full format and uniqueness check and set or clear the member's
// EmailError. Unknown fields are ignored.
func (r *Roster) Update(localID, field, value string) bool {
	idx := r.indexOf(localID)
	if idx < 0 {
		return false
	}

	m := &r.members[idx]
	switch field {
	case "name":
		m.Name = utils.NormalizeString(value)
	case "age":
		m.Age = parseAge(value)
	case "gender":
		if g, ok := domain.ParseGender(value); ok {
			m.Gender = &g
		} else {
			m.Gender = nil
		}
	case "email":
		m.Email = utils.NormalizeString(value)
		m.EmailError = r.emailError(localID, m.Email)
	case "aadhaar":
		m.Aadhaar = utils.NormalizeString(value)
	default:
		return false
	}
	return true
}

// SetVerified flips a member to verified. Only the verification side
// effect calls this, and only a well-formed aadhaar qualifies.
func (r *Roster) SetVerified(localID string) bool {
	idx := r.indexOf(localID)
	if idx < 0 {
		return false
	}
	if !r.members[idx].HasValidAadhaar() {
		return false
	}
	r.members[idx].IsVerified = true
	return true
}

// SetEmailError attaches a submission-time validation message to a
// member; empty clears it.
func (r *Roster) SetEmailError(localID, msg string) {
	if idx := r.indexOf(localID); idx >= 0 {
		r.members[idx].EmailError = msg
	}
}

func (r *Roster) indexOf(localID string) int {
	for i, m := range r.members {
		if m.LocalID == localID {
			return i
		}
	}
	return -1
}

// emailError validates a candidate email for one member against format
// rules, the primary user's email, and every other member. Empty
// string means no error; an empty email is not an error here (the
// required check belongs to submission).
func (r *Roster) emailError(localID, email string) string {
	normalized := utils.NormalizeEmail(email)
	if normalized == "" {
		return ""
	}
	if !utils.IsValidEmail(normalized) {
		return msgEmailInvalid
	}
	if r.primaryEmail != "" && normalized == r.primaryEmail {
		return msgEmailUsedPrimary
	}
	for _, other := range r.members {
		if other.LocalID == localID {
			continue
		}
		if other.Email != "" && utils.NormalizeEmail(other.Email) == normalized {
			return msgEmailUsedByOther
		}
	}
	return ""
}

func parseAge(value string) *int {
	trimmed := utils.NormalizeString(value)
	if trimmed == "" {
		return nil
	}
	age, err := strconv.Atoi(trimmed)
	if err != nil || age < domain.MinAge || age > domain.MaxAge {
		return nil
	}
	return &age
}
