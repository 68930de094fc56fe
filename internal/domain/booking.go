package domain

import (
	"fmt"
	"math/rand"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// CanonicalTimeSlots are the six fixed two-hour windows offered
// regardless of backend data availability.
var CanonicalTimeSlots = []string{
	"06:00 AM - 08:00 AM",
	"08:00 AM - 10:00 AM",
	"10:00 AM - 12:00 PM",
	"12:00 PM - 02:00 PM",
	"02:00 PM - 04:00 PM",
	"04:00 PM - 06:00 PM",
}

func IsCanonicalTimeSlot(slot string) bool {
	for _, s := range CanonicalTimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// MaxAdvanceMonths bounds how far ahead a visit date may lie.
const MaxAdvanceMonths = 3

const bookingNumberPrefix = "LUM"

// GenerateBookingNumber builds a human-readable booking code: prefix,
// compact date, 4-digit random suffix. Collisions are accepted; the
// server-assigned id is the real key.
func GenerateBookingNumber(now time.Time) string {
	return fmt.Sprintf("%s%s%04d", bookingNumberPrefix, now.Format("20060102"), rand.Intn(10000))
}

// Draft is the in-progress booking assembled across the wizard steps.
type Draft struct {
	TempleID   int64    `json:"templeId"`
	TempleName string   `json:"templeName"`
	VisitDate  string   `json:"visitDate"` // ISO date, yyyy-mm-dd
	TimeSlot   string   `json:"timeSlot"`
	Members    []Member `json:"members"`
}

// BookingResult is what the wizard exposes after a successful submit.
type BookingResult struct {
	ID            int64  `json:"id"`
	BookingNumber string `json:"bookingNumber"`
}

// CreateBookingRequest is the body for POST /bookings on the booking
// API.
type CreateBookingRequest struct {
	BookingNumber string                `json:"bookingNumber"`
	TempleID      int64                 `json:"templeId"`
	TempleName    string                `json:"templeName"`
	BookingDate   string                `json:"bookingDate"`
	TimeSlot      string                `json:"timeSlot"`
	TotalMembers  int                   `json:"totalMembers"`
	UserID        int64                 `json:"userId"`
	Members       []BookingMemberEntry `json:"members"`
}

// BookingMemberEntry is a member flattened for the wire; optional
// fields are nullable.
type BookingMemberEntry struct {
	Name       string  `json:"name"`
	Age        *int    `json:"age"`
	Gender     *Gender `json:"gender"`
	Email      *string `json:"email"`
	Aadhaar    *string `json:"aadhaar"`
	IsVerified bool    `json:"isVerified"`
}

// BookingRecord is a booking as returned by the history endpoint,
// normalized from the several field spellings the backend has used
// over time.
type BookingRecord struct {
	ID            int64                `json:"id"`
	BookingNumber string               `json:"bookingNumber"`
	VisitDate     string               `json:"visitDate"`
	TimeSlot      string               `json:"timeSlot"`
	Temple        string               `json:"temple"`
	Members       []BookingMemberEntry `json:"members"`
	Status        BookingStatus        `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
}
