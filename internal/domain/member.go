package domain

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func ParseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(s), true
	default:
		return "", false
	}
}

// Member is one visit participant. The entry at index 0 of a roster is
// the primary member, bound to the authenticated user; its email comes
// from the session record, not from the member itself.
type Member struct {
	LocalID    string  `json:"localId"`
	Name       string  `json:"name"`
	Age        *int    `json:"age,omitempty"`
	Gender     *Gender `json:"gender,omitempty"`
	Email      string  `json:"email,omitempty"`
	Aadhaar    string  `json:"aadhaar,omitempty"`
	IsVerified bool    `json:"isVerified"`

	// EmailError carries the last validation result for the email
	// field; empty means no error. It is advisory until submission.
	EmailError string `json:"emailError,omitempty"`
}

const (
	MinAge        = 1
	MaxAge        = 120
	AadhaarDigits = 12
)

// HasValidAadhaar reports whether the aadhaar value is exactly twelve
// digits, the only shape the verification stub accepts.
func (m *Member) HasValidAadhaar() bool {
	if len(m.Aadhaar) != AadhaarDigits {
		return false
	}
	for _, r := range m.Aadhaar {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
