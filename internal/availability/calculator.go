// Package availability computes bookable start times for a staff
// member from their weekly working hours and the bookings that still
// occupy their day.  The calculator is a pure function over its
// inputs: it performs no I/O and is safe to call concurrently.
package availability

import (
    "errors"
    "sort"
    "time"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// ErrOutsideLookahead is returned when the requested date is in the
// past or beyond the configured lookahead window.  Callers should
// treat it as an input error, not as an empty result.
var ErrOutsideLookahead = errors.New("date outside booking lookahead window")

// Request carries the inputs for one slot computation.  Windows must
// belong to the staff member in question; Busy must contain every
// interval that still blocks the slot (CONFIRMED bookings plus
// PENDING_PAYMENT holds that have not expired).
type Request struct {
    Date        time.Time             // target calendar day (UTC)
    Duration    time.Duration         // service duration
    Granularity time.Duration         // spacing between candidate starts
    Windows     []model.AvailabilityWindow
    Busy        []model.BusyInterval
}

// Slots returns the ordered, deduplicated start times at which a
// service of the given duration can begin on the requested date.
// now and lookaheadDays bound the acceptable date range: a date
// before today or more than lookaheadDays ahead yields
// ErrOutsideLookahead.  A candidate start is emitted only when the
// whole [start, start+duration) interval fits inside a working-hours
// window and intersects no busy interval.
func Slots(now time.Time, lookaheadDays int, req Request) ([]time.Time, error) {
    if req.Duration <= 0 || req.Granularity <= 0 {
        return nil, errors.New("duration and granularity must be positive")
    }
    day := truncateToDay(req.Date.UTC())
    today := truncateToDay(now.UTC())
    if day.Before(today) || day.After(today.AddDate(0, 0, lookaheadDays)) {
        return nil, ErrOutsideLookahead
    }

    var out []time.Time
    seen := make(map[int64]struct{})
    for _, w := range req.Windows {
        if w.Weekday != day.Weekday() {
            continue
        }
        winStart := day.Add(time.Duration(w.StartMinute) * time.Minute)
        winEnd := day.Add(time.Duration(w.EndMinute) * time.Minute)
        // The end of the appointment must also fall within the window,
        // so the last viable start is winEnd - duration.
        for start := winStart; !start.Add(req.Duration).After(winEnd); start = start.Add(req.Granularity) {
            if !start.After(now) {
                continue // never offer a start time in the past
            }
            if overlapsAny(start, start.Add(req.Duration), req.Busy) {
                continue
            }
            if _, dup := seen[start.Unix()]; dup {
                continue
            }
            seen[start.Unix()] = struct{}{}
            out = append(out, start)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
    return out, nil
}

// overlapsAny reports whether [start, end) intersects any busy
// interval.  Intervals are half-open, so back-to-back appointments
// (end == busy.Start) do not conflict.
func overlapsAny(start, end time.Time, busy []model.BusyInterval) bool {
    for _, b := range busy {
        if start.Before(b.End) && b.Start.Before(end) {
            return true
        }
    }
    return false
}

func truncateToDay(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
