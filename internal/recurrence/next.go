package recurrence

import (
	"fmt"

	"github.com/benvon/pimtask/internal/temporal"
	"github.com/teambition/rrule-go"
)

// Occurrence is one concrete start/due pair of a series. Either side may be zero.
type Occurrence struct {
	Start temporal.Value
	Due   temporal.Value
}

// Anchor returns the instant the series is computed from: start, else due
func (o Occurrence) Anchor() temporal.Value {
	if !o.Start.IsZero() {
		return o.Start
	}
	return o.Due
}

// Next computes the occurrence following completed. The start/due
// displacement of completed is carried over unchanged. ok is false when
// there is no anchor or the series has ended: count exhausted, or the next
// anchor is not strictly before Until.
func Next(rule Rule, completed Occurrence) (next Occurrence, ok bool, err error) {
	anchor := completed.Anchor()
	if anchor.IsZero() {
		return Occurrence{}, false, nil
	}
	if rule.Count == 1 {
		return Occurrence{}, false, nil
	}

	opt, err := rule.options(anchor.Time())
	if err != nil {
		return Occurrence{}, false, err
	}
	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return Occurrence{}, false, fmt.Errorf("failed to build recurrence: %w", err)
	}

	after := rr.After(anchor.Time(), false)
	if after.IsZero() {
		return Occurrence{}, false, nil
	}

	nextAnchor := temporal.Timed(after)
	if anchor.IsDate() {
		nextAnchor = temporal.DateOf(after)
	}

	if rule.Until != nil && !rule.Until.IsZero() && nextAnchor.Compare(*rule.Until) >= 0 {
		return Occurrence{}, false, nil
	}

	switch {
	case !completed.Start.IsZero() && !completed.Due.IsZero():
		next.Start = nextAnchor
		next.Due = nextAnchor.Shift(completed.Due.Sub(completed.Start))
	case !completed.Start.IsZero():
		next.Start = nextAnchor
	default:
		next.Due = nextAnchor
	}
	return next, true, nil
}
