// Package availability decides whether a selected date range collides with
// days already held by other bookings of the same item.
package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// DateLayout is the calendar-day format used for booked dates.
const DateLayout = "2006-01-02"

// maxSpanDays bounds how far a single stored booking is expanded.
const maxSpanDays = 366

// DateSet is a read-only snapshot of booked calendar days.
type DateSet map[string]struct{}

// NewDateSet builds a set from ISO strings. Only the first ten characters of each
// entry are kept; blank entries are ignored.
func NewDateSet(dates []string) DateSet {
	set := make(DateSet, len(dates))
	for _, raw := range dates {
		d := strings.TrimSpace(raw)
		if len(d) > len(DateLayout) {
			d = d[:len(DateLayout)]
		}
		if d == "" {
			continue
		}
		set[d] = struct{}{}
	}
	return set
}

// Has reports whether day is booked.
func (s DateSet) Has(day time.Time) bool {
	_, ok := s[FormatDate(day)]
	return ok
}

// Sorted returns the booked days in ascending order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string (or the date prefix of an ISO timestamp) as a UTC day.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if len(v) > len(DateLayout) {
		v = v[:len(DateLayout)]
	}
	day, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return day, nil
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ConflictError names the first booked day inside a selected range.
type ConflictError struct {
	Date string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("selected dates include an already booked date: %s", e.Date)
}

// ValidateRange walks every day in [start, endExclusive) and returns a
// *ConflictError for the first booked one. At most maxSpanDays days are walked.
func ValidateRange(start, endExclusive time.Time, booked DateSet) error {
	if len(booked) == 0 {
		return nil
	}
	end := Day(endExclusive)
	if limit := Day(start).AddDate(0, 0, maxSpanDays); end.After(limit) {
		end = limit
	}
	for day := Day(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		if booked.Has(day) {
			return &ConflictError{Date: FormatDate(day)}
		}
	}
	return nil
}

// RangeFor converts a booking's start and derived end into the half-open span of
// days it occupies. Cars hold the nights in [start, end); transport holds [start, end]
// inclusive. Tours never block dates and report ok=false.
func RangeFor(itemType enums.ItemType, start time.Time, end *time.Time) (from, toExclusive time.Time, ok bool) {
	if !itemType.HasDateConflicts() || end == nil {
		return time.Time{}, time.Time{}, false
	}
	from = Day(start)
	switch itemType {
	case enums.ItemTypeCar:
		toExclusive = Day(*end)
	case enums.ItemTypeTransport:
		toExclusive = Day(*end).AddDate(0, 0, 1)
	}
	if !from.Before(toExclusive) {
		return time.Time{}, time.Time{}, false
	}
	return from, toExclusive, true
}

// Expand lists the days a booking occupies under RangeFor.
func Expand(itemType enums.ItemType, start time.Time, end *time.Time) []string {
	from, to, ok := RangeFor(itemType, start, end)
	if !ok {
		return nil
	}
	if limit := from.AddDate(0, 0, maxSpanDays); to.After(limit) {
		to = limit
	}
	var days []string
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		days = append(days, FormatDate(day))
	}
	return days
}

// CheckSelection validates the range the quote derived for sel. A missing start
// date passes here and is reported by field validation instead.
func CheckSelection(itemType enums.ItemType, sel quote.Selection, q quote.Quote, booked DateSet) error {
	if sel.StartDate == nil {
		return nil
	}
	from, to, ok := RangeFor(itemType, *sel.StartDate, q.EndDate)
	if !ok {
		return nil
	}
	return ValidateRange(from, to, booked)
}
