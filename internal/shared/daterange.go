package shared

import (
	"fmt"
	"time"
)

// DateRange bounds a report or ledger query. Nil ends are unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Unbounded reports whether no bound is set.
func (r DateRange) Unbounded() bool {
	return r.From == nil && r.To == nil
}

const dateLayout = "2006-01-02"

// ParseDateRange interprets the three accepted query shapes: an explicit
// from/to pair, a single date expanded to that UTC day, or month+year
// expanded to the calendar month. All parameters empty yields an unbounded
// range.
func ParseDateRange(from, to, date, month, year string) (DateRange, error) {
	switch {
	case from != "" || to != "":
		var r DateRange
		if from != "" {
			t, err := time.ParseInLocation(dateLayout, from, time.UTC)
			if err != nil {
				return DateRange{}, fmt.Errorf("%w: invalid from date %q", ErrValidation, from)
			}
			r.From = &t
		}
		if to != "" {
			t, err := time.ParseInLocation(dateLayout, to, time.UTC)
			if err != nil {
				return DateRange{}, fmt.Errorf("%w: invalid to date %q", ErrValidation, to)
			}
			end := endOfDay(t)
			r.To = &end
		}
		return r, nil
	case date != "":
		t, err := time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: invalid date %q", ErrValidation, date)
		}
		end := endOfDay(t)
		return DateRange{From: &t, To: &end}, nil
	case month != "" || year != "":
		if month == "" || year == "" {
			return DateRange{}, fmt.Errorf("%w: month and year must be provided together", ErrValidation)
		}
		t, err := time.ParseInLocation("1-2006", month+"-"+year, time.UTC)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: invalid month/year %q/%q", ErrValidation, month, year)
		}
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := endOfDay(start.AddDate(0, 1, -1))
		return DateRange{From: &start, To: &end}, nil
	default:
		return DateRange{}, nil
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}
