package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, date, start, end string) Slot {
	t.Helper()
	s, err := ParseSlot(date, start, end)
	require.NoError(t, err)
	return s
}

func TestParseSlot(t *testing.T) {
	t.Run("accepts HH:MM and HH:MM:SS", func(t *testing.T) {
		a := mustSlot(t, "2024-06-01", "10:00", "11:30")
		b := mustSlot(t, "2024-06-01", "10:00:00", "11:30:00")
		assert.Equal(t, a.Start, b.Start)
		assert.Equal(t, a.End, b.End)
		assert.Equal(t, "10:00:00", a.StartSQL())
		assert.Equal(t, "11:30:00", a.EndSQL())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseSlot("june first", "10:00", "11:00")
		assert.ErrorIs(t, err, ErrBadSlot)
		_, err = ParseSlot("2024-06-01", "25:00", "26:00")
		assert.ErrorIs(t, err, ErrBadSlot)
	})

	t.Run("rejects empty and inverted ranges", func(t *testing.T) {
		_, err := ParseSlot("2024-06-01", "10:00", "10:00")
		assert.ErrorIs(t, err, ErrEmptySlot)
		_, err = ParseSlot("2024-06-01", "11:00", "10:00")
		assert.ErrorIs(t, err, ErrEmptySlot)
	})

	t.Run("rejects cross-midnight ranges", func(t *testing.T) {
		// 23:00 -> 01:00 parses as an inverted same-day range, which the
		// engine refuses instead of silently pricing a two-hour slot.
		_, err := ParseSlot("2024-06-01", "23:00", "01:00")
		assert.ErrorIs(t, err, ErrEmptySlot)
	})
}

func TestSlotOverlaps(t *testing.T) {
	cases := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"partial overlap at tail", "18:00", "19:00", "18:30", "19:30", true},
		{"adjacent slots do not overlap", "18:00", "19:00", "19:00", "20:00", false},
		{"contained interval", "10:00", "14:00", "11:00", "12:00", true},
		{"identical interval", "10:00", "11:00", "10:00", "11:00", true},
		{"disjoint", "08:00", "09:00", "12:00", "13:00", false},
		{"touching at start", "09:00", "10:00", "08:00", "09:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mustSlot(t, "2024-06-01", tc.aStart, tc.aEnd)
			b := mustSlot(t, "2024-06-01", tc.bStart, tc.bEnd)
			assert.Equal(t, tc.want, a.Overlaps(b))
			assert.Equal(t, tc.want, b.Overlaps(a), "overlap must be symmetric")
		})
	}

	t.Run("different dates never overlap", func(t *testing.T) {
		a := mustSlot(t, "2024-06-01", "10:00", "11:00")
		b := mustSlot(t, "2024-06-02", "10:00", "11:00")
		assert.False(t, a.Overlaps(b))
	})
}

func TestSlotPricing(t *testing.T) {
	t.Run("90 minutes at 200000 per hour", func(t *testing.T) {
		s := mustSlot(t, "2024-06-01", "10:00", "11:30")
		assert.InDelta(t, 1.5, s.Hours(), 1e-9)
		assert.InDelta(t, 300000, s.Price(200000), 1e-6)
	})

	t.Run("whole hours", func(t *testing.T) {
		s := mustSlot(t, "2024-06-01", "08:00", "10:00")
		assert.InDelta(t, 2.0, s.Hours(), 1e-9)
		assert.InDelta(t, 150.0, s.Price(75), 1e-9)
	})

	t.Run("quarter hour granularity keeps full precision", func(t *testing.T) {
		s := mustSlot(t, "2024-06-01", "09:00", "09:45")
		assert.InDelta(t, 0.75, s.Hours(), 1e-9)
		assert.InDelta(t, 93.75, s.Price(125), 1e-9)
	})
}

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.True(t, BookingCancelled.Terminal())
	assert.True(t, BookingCompleted.Terminal())
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingStatus("unknown").Valid())
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentPending.CanTransition(PaymentPaid))
	assert.True(t, PaymentPaid.CanTransition(PaymentRefunded))
	assert.False(t, PaymentPending.CanTransition(PaymentRefunded))
	assert.False(t, PaymentRefunded.CanTransition(PaymentPending))
	assert.False(t, PaymentStatus("void").Valid())
}
