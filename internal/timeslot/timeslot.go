// Package timeslot holds the fixed weekly slot catalog: 5 school days of 7
// periods each, addressed by codes of the form MON_P1 .. FRI_P7. The
// catalog is built once at init and is read-only afterwards, so it is safe
// to share between goroutines without locking.
package timeslot

import (
	"fmt"
	"strings"
	"time"
)

// Day tokens in timetable order. The offset of a token in this slice is
// also its offset in days from the week's Monday.
var dayTokens = []string{"MON", "TUE", "WED", "THU", "FRI"}

var dayNames = map[string]string{
	"MON": "Monday",
	"TUE": "Tuesday",
	"WED": "Wednesday",
	"THU": "Thursday",
	"FRI": "Friday",
}

type periodTime struct {
	startHour, startMin int
	endHour, endMin     int
}

// Bell schedule. Index 0 is unused so that periods[n] is period n.
var periods = [8]periodTime{
	1: {9, 5, 9, 55},
	2: {9, 55, 10, 45},
	3: {11, 5, 11, 55},
	4: {11, 55, 12, 45},
	5: {13, 45, 14, 35},
	6: {14, 35, 15, 25},
	7: {15, 25, 16, 15},
}

var (
	codes  []string          // all 35 codes in timetable order
	labels map[string]string // code -> display label
)

func init() {
	labels = make(map[string]string, len(dayTokens)*7)
	for _, day := range dayTokens {
		for n := 1; n <= 7; n++ {
			p := periods[n]
			code := fmt.Sprintf("%s_P%d", day, n)
			codes = append(codes, code)
			labels[code] = fmt.Sprintf("%s P%d (%02d:%02d-%02d:%02d)",
				dayNames[day], n, p.startHour, p.startMin, p.endHour, p.endMin)
		}
	}
}

// Codes returns all 35 slot codes in timetable order. The returned slice
// is a copy and may be modified by the caller.
func Codes() []string {
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}

// Label returns the display label for a known code. Unknown codes are
// returned unchanged so that callers can render stale or foreign codes
// without special-casing.
func Label(code string) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return code
}

// IsValid reports whether code is one of the 35 canonical slot codes.
func IsValid(code string) bool {
	_, ok := labels[code]
	return ok
}

// FilterValid returns the valid subset of codes, deduplicated, in input
// order. A nil or empty input yields an empty result.
func FilterValid(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, code := range in {
		if IsValid(code) && !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// EndTime returns the exact end timestamp of the slot within the week
// starting at weekStart (a Monday). The second return value is false when
// the code is not strictly of the form <DAY>_P<period> with a known day
// token and a period between 1 and 7.
func EndTime(weekStart time.Time, code string) (time.Time, bool) {
	day, period, ok := parse(code)
	if !ok {
		return time.Time{}, false
	}
	p := periods[period]
	d := weekStart.AddDate(0, 0, day)
	end := time.Date(d.Year(), d.Month(), d.Day(), p.endHour, p.endMin, 0, 0, weekStart.Location())
	return end, true
}

// parse splits a code strictly as <DAY>_P<period>, returning the day
// offset from Monday and the period number.
func parse(code string) (dayOffset, period int, ok bool) {
	day, rest, found := strings.Cut(code, "_")
	if !found || len(rest) != 2 || rest[0] != 'P' {
		return 0, 0, false
	}
	if rest[1] < '1' || rest[1] > '7' {
		return 0, 0, false
	}
	for i, token := range dayTokens {
		if token == day {
			return i, int(rest[1] - '0'), true
		}
	}
	return 0, 0, false
}
