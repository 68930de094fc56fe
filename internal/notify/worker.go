// Package notify turns booking events into confirmation email. It
// runs off the event bus so the booking flow never waits on delivery.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/lumine/darshan-bookings/internal/platform/mailer"
	"github.com/lumine/darshan-bookings/pkg/events"
	"github.com/lumine/darshan-bookings/pkg/logger"
)

type Worker struct {
	bus    events.Subscriber
	mailer mailer.Mailer
}

func NewWorker(bus events.Subscriber, m mailer.Mailer) *Worker {
	return &Worker{bus: bus, mailer: m}
}

// Start subscribes to booking.created in a queue group so only one
// worker instance mails each booking.
func (w *Worker) Start() error {
	return w.bus.QueueSubscribe(events.BookingCreated, "notify", w.handleBookingCreated)
}

func (w *Worker) handleBookingCreated(msg *events.Message) {
	var event events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Malformed booking created event", "error", err)
		return
	}
	if event.UserEmail == "" {
		logger.Warn("Booking created event without email, skipping confirmation",
			"booking_id", event.BookingID)
		return
	}

	subject := fmt.Sprintf("Darshan booking confirmed - %s", event.BookingNumber)
	text := fmt.Sprintf(
		"Namaste %s,\n\nYour darshan booking is confirmed.\n\nBooking number: %s\nTemple: %s\nDate: %s\nTime slot: %s\nMembers: %d\n\nPlease carry a valid ID for every member.",
		event.UserName, event.BookingNumber, event.TempleName,
		event.VisitDate, event.TimeSlot, event.TotalMembers,
	)

	if _, err := w.mailer.Send(event.UserEmail, event.UserName, subject, text, ""); err != nil {
		logger.Error("Failed to send booking confirmation",
			"error", err, "booking_id", event.BookingID, "recipient", event.UserEmail)
		return
	}

	logger.Info("Booking confirmation sent",
		"booking_id", event.BookingID, "recipient", event.UserEmail)
}
