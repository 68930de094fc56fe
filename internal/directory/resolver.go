package directory

import (
	"strconv"
	"strings"

	"github.com/lumine/darshan-bookings/internal/domain"
)

// Resolver maps a raw temple selection to a stable id and display
// name. Names are treated as possibly-ambiguous aliases; the id is
// ground truth.
type Resolver struct {
	temples []domain.Temple
}

func NewResolver(temples []domain.Temple) *Resolver {
	return &Resolver{temples: temples}
}

// SetTemples replaces the directory snapshot, typically when a fetch
// that raced the first selection finally lands.
func (r *Resolver) SetTemples(temples []domain.Temple) {
	r.temples = temples
}

func (r *Resolver) Temples() []domain.Temple {
	return r.temples
}

// placeholder labels that must never be trusted as a temple name
func isPlaceholderLabel(label string) bool {
	trimmed := strings.TrimSpace(label)
	return trimmed == "" || strings.EqualFold(trimmed, "Select a temple")
}

// Resolve turns a raw selection value and the label the user saw into
// (templeID, templeName). The label wins when present: it reflects
// exactly what was shown. Otherwise the directory is searched by id.
// An id that resolves to no known temple keeps the id with an empty
// name, to be backfilled once the directory arrives. Zero or
// unparsable ids mean "unselected".
func (r *Resolver) Resolve(rawValue, label string) (int64, string) {
	id := coerceID(rawValue)
	if id <= 0 {
		return 0, ""
	}

	if !isPlaceholderLabel(label) {
		return id, strings.TrimSpace(label)
	}

	if name, ok := r.lookupName(id); ok {
		return id, name
	}

	return id, ""
}

// Backfill resolves a previously-selected id whose name is still
// empty. Returns the name unchanged if the id still isn't known.
func (r *Resolver) Backfill(id int64, name string) string {
	if name != "" || id <= 0 {
		return name
	}
	if found, ok := r.lookupName(id); ok {
		return found
	}
	return name
}

func (r *Resolver) lookupName(id int64) (string, bool) {
	for _, t := range r.temples {
		if t.ID == id {
			return t.Name, true
		}
	}
	return "", false
}

// coerceID tolerates both numeric and string-typed selection values.
func coerceID(raw string) int64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		// historical clients sent floats
		f, ferr := strconv.ParseFloat(trimmed, 64)
		if ferr != nil {
			return 0
		}
		id = int64(f)
	}
	return id
}
