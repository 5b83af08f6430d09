package config

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// BookingConfig tunes the availability and scheduling engine.
type BookingConfig struct {
	// CrossCheckSchedules makes bookings and event schedules block each
	// other on the same (screen, date, slot).  Off by default.
	CrossCheckSchedules bool
	// CompletionJob marks past confirmed bookings as completed once a day.
	CompletionJob   bool
	CompletionJobAt string // "HH:MM" in Location
	Location        *time.Location
}

// LoadBookingConfig reads CROSS_CHECK_SCHEDULES, COMPLETION_JOB_ENABLED,
// COMPLETION_JOB_AT and APP_TIMEZONE.
func LoadBookingConfig() BookingConfig {
	tz := envStr("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.WithError(err).Warnf("unknown APP_TIMEZONE %q, using UTC", tz)
		loc = time.UTC
	}
	return BookingConfig{
		CrossCheckSchedules: envBool("CROSS_CHECK_SCHEDULES", false),
		CompletionJob:       envBool("COMPLETION_JOB_ENABLED", true),
		CompletionJobAt:     envStr("COMPLETION_JOB_AT", "00:05"),
		Location:            loc,
	}
}
