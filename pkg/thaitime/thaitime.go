// Package thaitime converts between absolute instants and the Buddhist-Era
// calendar strings used for every persisted and displayed expiry timestamp.
// The stored form is "DD/MM/YYYY HH:mm" where YYYY is the Gregorian year + 543.
package thaitime

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// beOffset is the difference between a Buddhist-Era year and a Gregorian year.
const beOffset = 543

// beThreshold is the heuristic cutoff: a year above this is assumed to be
// Buddhist Era, anything at or below is treated as already Gregorian. Legacy
// rows written before the BE migration carry Gregorian years and must still
// parse.
const beThreshold = 2500

// expiryPattern accepts "DD/MM/YYYY HH:mm" and the date-only legacy form
// "DD/MM/YYYY".
var expiryPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?: (\d{1,2}):(\d{2}))?$`)

// ParseError reports an expiry string that matches no known format. Callers
// must reject the surrounding operation rather than proceed with a broken
// timestamp.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("thaitime: cannot parse %q: %s", e.Input, e.Reason)
}

// Format renders an instant as a Buddhist-Era expiry string, minute
// resolution.
func Format(t time.Time) string {
	t = t.In(time.Local)
	return fmt.Sprintf("%02d/%02d/%04d %02d:%02d",
		t.Day(), int(t.Month()), t.Year()+beOffset, t.Hour(), t.Minute())
}

// Parse converts an expiry string back into an instant. Years above 2500 are
// Buddhist Era and converted by subtracting 543; lower years are taken as
// Gregorian so that legacy rows keep parsing. A string matching no known
// pattern returns a *ParseError.
func Parse(s string) (time.Time, error) {
	m := expiryPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, &ParseError{Input: s, Reason: "unknown format"}
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	// Date-only rows are issued end-of-day.
	hour, minute := 23, 59
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}

	if year > beThreshold {
		year -= beOffset
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
	// time.Date normalizes overflow (e.g. 32/01 becomes 01/02); a shifted
	// component means the input was not a real calendar date.
	if t.Day() != day || int(t.Month()) != month || t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, &ParseError{Input: s, Reason: "invalid calendar date"}
	}
	return t, nil
}

// IsParseError reports whether err is a codec parse failure.
func IsParseError(err error) bool {
	_, ok := err.(*ParseError)
	return ok
}
