package predictions

import "github.com/lumine/darshan-bookings/internal/domain"

// Recommended partitions the canonical time slots using a dynamic
// crowd threshold. With no predictions at all, every slot is returned
// unfiltered. With a flat distribution (max == min) every slot is
// recommended. Otherwise the threshold sits halfway up the observed
// value range and only slots at or below it are kept; a slot with no
// prediction entry is always kept. Thresholding by value rather than
// by rank lets one overloaded slot drop out without suppressing
// merely-average ones.
func Recommended(preds map[string]float64) []string {
	slots := domain.CanonicalTimeSlots

	if len(preds) == 0 {
		return append([]string(nil), slots...)
	}

	var min, max float64
	first := true
	for _, count := range preds {
		if first {
			min, max = count, count
			first = false
			continue
		}
		if count < min {
			min = count
		}
		if count > max {
			max = count
		}
	}

	threshold := max
	if max > min {
		threshold = min + (max-min)*0.5
	}

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		count, known := preds[slot]
		if !known || count <= threshold {
			out = append(out, slot)
		}
	}
	return out
}
