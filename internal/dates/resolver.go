// Package dates resolves relative and absolute date expressions used as filter
// literals and bulk due dates.
package dates

import (
	"strconv"
	"strings"
	"time"

	"github.com/solatis/sieve/internal/types"
)

/*
 * Natural-language date resolution.
 *
 * Resolves expressions relative to "today" as reported by an injectable clock,
 * so the same query text yields the same date within one day and tests can pin
 * the calendar.
 *
 * Supported forms (input is trimmed and lower-cased first):
 *   - today, tomorrow, yesterday
 *   - in N day(s) / week(s) / month(s)   (a month is 30 days)
 *   - monday..sunday and short names, optionally prefixed with "next "
 *   - next week                          (the coming Monday)
 *   - dec 15, december 15                (rolls to next year once passed)
 *   - 2024-12-15                         (ISO)
 *   - 12/15, 12/15/2024, 12/15/24        (US; two-digit years are 20YY)
 *   - any of the above prefixed with "by " marks a deadline
 *
 * Weekday rule: a bare weekday is the next occurrence strictly after today;
 * "next <weekday>" always adds a further week on top of that offset.
 */

// Result is a resolved date expression.
type Result struct {
	Date     types.Date
	Deadline bool // input carried a "by " prefix
}

// Resolver resolves date expressions relative to Now.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver using the local wall clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt creates a resolver whose clock is fixed at now.
func NewResolverAt(now time.Time) *Resolver {
	return &Resolver{now: func() time.Time { return now }}
}

// Today returns the resolver's current calendar date.
func (r *Resolver) Today() types.Date {
	return types.DateOf(r.now())
}

// ResolveDate returns the calendar date for text, or false if text is not a date.
func (r *Resolver) ResolveDate(text string) (types.Date, bool) {
	res, ok := r.Parse(text)
	return res.Date, ok
}

// Parse resolves text and reports whether it carried a deadline prefix.
func (r *Resolver) Parse(text string) (Result, bool) {
	input := strings.ToLower(strings.TrimSpace(text))
	deadline := false
	if rest, ok := strings.CutPrefix(input, "by "); ok {
		input = rest
		deadline = true
	}

	d, ok := resolve(strings.TrimSpace(input), r.Today())
	if !ok {
		return Result{}, false
	}
	return Result{Date: d, Deadline: deadline}, true
}

// resolve tries each supported form in order.
func resolve(input string, today types.Date) (types.Date, bool) {
	switch input {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDays(1), true
	case "yesterday":
		return today.AddDays(-1), true
	case "next week":
		days := (int(time.Monday) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDays(days), true
	}

	if d, ok := resolveOffset(input, today); ok {
		return d, true
	}
	if d, ok := resolveWeekday(input, today); ok {
		return d, true
	}
	if d, ok := resolveMonthDay(input, today); ok {
		return d, true
	}
	if d, err := types.ParseDate(input); err == nil {
		return d, true
	}
	return resolveUSDate(input, today)
}

// resolveOffset handles "in N days|weeks|months".
func resolveOffset(input string, today types.Date) (types.Date, bool) {
	parts := strings.Fields(input)
	if len(parts) < 3 || parts[0] != "in" {
		return types.Date{}, false
	}
	amount, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.Date{}, false
	}

	switch strings.TrimRight(parts[2], "s") {
	case "day":
		return today.AddDays(amount), true
	case "week":
		return today.AddDays(amount * 7), true
	case "month":
		return today.AddDays(amount * 30), true
	default:
		return types.Date{}, false
	}
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

func resolveWeekday(input string, today types.Date) (types.Date, bool) {
	name, next := strings.CutPrefix(input, "next ")
	target, ok := weekdays[name]
	if !ok {
		return types.Date{}, false
	}

	days := (int(target) - int(today.Weekday()) + 7) % 7
	if days == 0 || next {
		days += 7
	}
	return today.AddDays(days), true
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

func resolveMonthDay(input string, today types.Date) (types.Date, bool) {
	parts := strings.Fields(input)
	if len(parts) != 2 {
		return types.Date{}, false
	}
	month, ok := months[parts[0]]
	if !ok {
		return types.Date{}, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.Date{}, false
	}
	return upcoming(month, day, today)
}

// resolveUSDate handles MM/DD and MM/DD/YYYY.
func resolveUSDate(input string, today types.Date) (types.Date, bool) {
	parts := strings.Split(input, "/")
	if len(parts) != 2 && len(parts) != 3 {
		return types.Date{}, false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.Date{}, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.Date{}, false
	}

	if len(parts) == 2 {
		return upcoming(time.Month(month), day, today)
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return types.Date{}, false
	}
	if year < 100 {
		year += 2000
	}
	return validDate(year, time.Month(month), day)
}

// upcoming returns month/day in the current year, or next year if already passed.
func upcoming(month time.Month, day int, today types.Date) (types.Date, bool) {
	d, ok := validDate(today.Year, month, day)
	if !ok {
		return types.Date{}, false
	}
	if d.Before(today) {
		return validDate(today.Year+1, month, day)
	}
	return d, true
}

// validDate rejects out-of-range components instead of normalizing them.
func validDate(year int, month time.Month, day int) (types.Date, bool) {
	d := types.NewDate(year, month, day)
	if d.Year != year || d.Month != month || d.Day != day {
		return types.Date{}, false
	}
	return d, true
}
