package availability

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// Monday 2026-03-02. now is the preceding Sunday evening so that every
// slot on the target day is in the future.
var (
    testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
    testNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
)

func window(start, end uint16) model.AvailabilityWindow {
    return model.AvailabilityWindow{StaffID: 1, Weekday: time.Monday, StartMinute: start, EndMinute: end}
}

func busy(h1, m1, h2, m2 int) model.BusyInterval {
    return model.BusyInterval{
        Start: testDay.Add(time.Duration(h1)*time.Hour + time.Duration(m1)*time.Minute),
        End:   testDay.Add(time.Duration(h2)*time.Hour + time.Duration(m2)*time.Minute),
    }
}

func TestSlotsBasicWindow(t *testing.T) {
    got, err := Slots(testNow, 30, Request{
        Date:        testDay,
        Duration:    30 * time.Minute,
        Granularity: 15 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 10*60)}, // 09:00-10:00
    })
    require.NoError(t, err)
    // 09:00, 09:15, 09:30 fit; 09:45 would end at 10:15, past the window.
    require.Len(t, got, 3)
    assert.Equal(t, testDay.Add(9*time.Hour), got[0])
    assert.Equal(t, testDay.Add(9*time.Hour+30*time.Minute), got[2])
}

func TestSlotsExcludesBusyOverlap(t *testing.T) {
    got, err := Slots(testNow, 30, Request{
        Date:        testDay,
        Duration:    30 * time.Minute,
        Granularity: 30 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 11*60)},
        Busy:        []model.BusyInterval{busy(9, 30, 10, 0)},
    })
    require.NoError(t, err)
    // 09:00 and the two slots after the busy block survive; 09:30 is taken.
    require.Len(t, got, 3)
    assert.Equal(t, testDay.Add(9*time.Hour), got[0])
    assert.Equal(t, testDay.Add(10*time.Hour), got[1])
    assert.Equal(t, testDay.Add(10*time.Hour+30*time.Minute), got[2])
}

func TestSlotsBackToBackNotConflicting(t *testing.T) {
    // Half-open intervals: a booking ending at 10:00 does not block a
    // slot starting at 10:00.
    got, err := Slots(testNow, 30, Request{
        Date:        testDay,
        Duration:    60 * time.Minute,
        Granularity: 60 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 11*60)},
        Busy:        []model.BusyInterval{busy(9, 0, 10, 0)},
    })
    require.NoError(t, err)
    require.Len(t, got, 1)
    assert.Equal(t, testDay.Add(10*time.Hour), got[0])
}

func TestSlotsDurationDoesNotFit(t *testing.T) {
    got, err := Slots(testNow, 30, Request{
        Date:        testDay,
        Duration:    90 * time.Minute,
        Granularity: 15 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 10*60)},
    })
    require.NoError(t, err)
    assert.Empty(t, got)
}

func TestSlotsMultipleWindowsSortedDeduped(t *testing.T) {
    got, err := Slots(testNow, 30, Request{
        Date:        testDay,
        Duration:    30 * time.Minute,
        Granularity: 30 * time.Minute,
        Windows: []model.AvailabilityWindow{
            window(14*60, 15*60),
            window(9*60, 10*60),
        },
    })
    require.NoError(t, err)
    require.Len(t, got, 4)
    for i := 1; i < len(got); i++ {
        assert.True(t, got[i-1].Before(got[i]), "slots must be ordered")
    }
}

func TestSlotsOutsideLookahead(t *testing.T) {
    _, err := Slots(testNow, 30, Request{
        Date:        testDay.AddDate(0, 0, 45),
        Duration:    30 * time.Minute,
        Granularity: 15 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 17*60)},
    })
    assert.ErrorIs(t, err, ErrOutsideLookahead)

    _, err = Slots(testNow, 30, Request{
        Date:        testDay.AddDate(0, 0, -10),
        Duration:    30 * time.Minute,
        Granularity: 15 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 17*60)},
    })
    assert.ErrorIs(t, err, ErrOutsideLookahead)
}

func TestSlotsSkipsPastStartTimes(t *testing.T) {
    // Asking for today's slots mid-morning must not offer starts that
    // have already passed.
    now := testDay.Add(9*time.Hour + 20*time.Minute)
    got, err := Slots(now, 30, Request{
        Date:        testDay,
        Duration:    30 * time.Minute,
        Granularity: 30 * time.Minute,
        Windows:     []model.AvailabilityWindow{window(9*60, 11*60)},
    })
    require.NoError(t, err)
    require.Len(t, got, 2)
    assert.Equal(t, testDay.Add(9*time.Hour+30*time.Minute), got[0])
    assert.Equal(t, testDay.Add(10*time.Hour), got[1])
}

func TestSlotsWrongWeekdayIgnored(t *testing.T) {
    got, err := Slots(testNow, 30, Request{
        Date:        testDay,
        Duration:    30 * time.Minute,
        Granularity: 15 * time.Minute,
        Windows: []model.AvailabilityWindow{
            {StaffID: 1, Weekday: time.Tuesday, StartMinute: 9 * 60, EndMinute: 17 * 60},
        },
    })
    require.NoError(t, err)
    assert.Empty(t, got)
}
