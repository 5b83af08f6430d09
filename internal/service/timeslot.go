package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

var hhmmRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidHHMM reports whether s is a 24h clock time such as "9:30" or "21:00".
func ValidHHMM(s string) bool { return hhmmRe.MatchString(s) }

// NormalizeHHMM returns s zero padded ("9:30" -> "09:30").  Padded values
// compare correctly as strings, which the storage layer relies on.
func NormalizeHHMM(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !ValidHHMM(s) {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, m, _ := strings.Cut(s, ":")
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

func minutesOf(hhmm string) int {
	h, m, _ := strings.Cut(hhmm, ":")
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	return hh*60 + mm
}

// SlotDuration returns the length of [start, end) in hours rounded to two
// decimals.  Both values must already be valid HH:MM strings.
func SlotDuration(start, end string) float64 {
	return round2(float64(minutesOf(end)-minutesOf(start)) / 60)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// normalizeRange validates and pads a start/end pair; end must be after
// start.
func normalizeRange(start, end string, fe fieldErrors, prefix string) (string, string) {
	s, err := NormalizeHHMM(start)
	if err != nil {
		fe.add(prefix+"startTime", "must be HH:MM")
	}
	e, err2 := NormalizeHHMM(end)
	if err2 != nil {
		fe.add(prefix+"endTime", "must be HH:MM")
	}
	if err == nil && err2 == nil && minutesOf(e) <= minutesOf(s) {
		fe.add(prefix+"endTime", "must be after startTime")
	}
	return s, e
}

// SlotView is a catalog slot as shown to clients, with its derived
// duration.
type SlotView struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Duration  float64 `json:"duration"`
}

// NewSlotView derives the view of a catalog slot.
func NewSlotView(ts model.TimeSlot) SlotView {
	return SlotView{ID: ts.ID, Name: ts.Name, StartTime: ts.StartTime, EndTime: ts.EndTime, Duration: SlotDuration(ts.StartTime, ts.EndTime)}
}

// DateOnly drops the time of day, keeping the calendar date of t in its
// own location, and returns it as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOnly(t), nil
}
