// Package core implements the contribution scoring engine: period
// resolution, source aggregation, merge/score calculation and the
// orchestration that ties them to the score store.
package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/huangsam/devscore/schema"
)

// ErrInvalidPeriod indicates a period key that does not resolve under its
// granularity's grammar. Callers skip the key and log; they never treat this
// as fatal.
var ErrInvalidPeriod = errors.New("invalid period")

var (
	weeklyKeyPattern  = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
	monthlyKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

// ResolvePeriod maps a (granularity, period key) pair to an inclusive
// [start, end] calendar range at UTC midnight. It is a pure function: the
// same inputs always yield the same range or the same failure.
func ResolvePeriod(granularity schema.Granularity, key string) (schema.Period, error) {
	switch granularity {
	case schema.Daily:
		d, err := time.ParseInLocation("2006-01-02", key, time.UTC)
		if err != nil {
			return schema.Period{}, fmt.Errorf("%w: daily key %q is not a date", ErrInvalidPeriod, key)
		}
		return schema.Period{Granularity: granularity, Key: key, Start: d, End: d}, nil

	case schema.Weekly:
		m := weeklyKeyPattern.FindStringSubmatch(key)
		if m == nil {
			return schema.Period{}, fmt.Errorf("%w: weekly key %q does not match YYYY-Www", ErrInvalidPeriod, key)
		}
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > isoWeeksInYear(year) {
			return schema.Period{}, fmt.Errorf("%w: ISO year %d has no week %d", ErrInvalidPeriod, year, week)
		}
		start := isoWeekMonday(year, week)
		return schema.Period{Granularity: granularity, Key: key, Start: start, End: start.AddDate(0, 0, 6)}, nil

	case schema.Monthly:
		m := monthlyKeyPattern.FindStringSubmatch(key)
		if m == nil {
			return schema.Period{}, fmt.Errorf("%w: monthly key %q does not match YYYY-MM", ErrInvalidPeriod, key)
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return schema.Period{}, fmt.Errorf("%w: %q is not a calendar month", ErrInvalidPeriod, key)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1) // last day of month, leap-year aware
		return schema.Period{Granularity: granularity, Key: key, Start: start, End: end}, nil

	default:
		return schema.Period{}, fmt.Errorf("%w: unknown granularity %q", ErrInvalidPeriod, granularity)
	}
}

// LatestPeriodKeys returns the period keys an external scheduler should
// recompute for a granularity: the most recently completed period followed by
// the current in-progress period. Computing both keeps the closed period
// finalized while the live period shows partial numbers.
func LatestPeriodKeys(granularity schema.Granularity, now time.Time) ([]string, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch granularity {
	case schema.Daily:
		yesterday := today.AddDate(0, 0, -1)
		return []string{yesterday.Format("2006-01-02"), today.Format("2006-01-02")}, nil

	case schema.Weekly:
		prevYear, prevWeek := today.AddDate(0, 0, -7).ISOWeek()
		curYear, curWeek := today.ISOWeek()
		return []string{
			fmt.Sprintf("%04d-W%02d", prevYear, prevWeek),
			fmt.Sprintf("%04d-W%02d", curYear, curWeek),
		}, nil

	case schema.Monthly:
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		prevMonth := firstOfMonth.AddDate(0, 0, -1)
		return []string{prevMonth.Format("2006-01"), today.Format("2006-01")}, nil

	default:
		return nil, fmt.Errorf("%w: unknown granularity %q", ErrInvalidPeriod, granularity)
	}
}

// isoWeekMonday returns the Monday of the given ISO-8601 week at UTC
// midnight. January 4th is always inside ISO week 1 of its year.
func isoWeekMonday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	daysSinceMonday := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -daysSinceMonday)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// isoWeeksInYear returns 52 or 53 per the ISO-8601 long-year rule: a year has
// 53 weeks when it starts on a Thursday, or when the preceding year starts on
// a Wednesday in a leap year.
func isoWeeksInYear(year int) int {
	p := func(y int) int {
		return (y + y/4 - y/100 + y/400) % 7
	}
	if p(year) == 4 || p(year-1) == 3 {
		return 53
	}
	return 52
}
