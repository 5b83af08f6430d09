// Package jobs runs the periodic maintenance tasks of the booking engine.
package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-booking/internal/config"
)

// Completer is implemented by service.BookingService.
type Completer interface {
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

// CompletionTask returns the job body: mark confirmed bookings dated
// before today (in loc) as completed.
func CompletionTask(c Completer, loc *time.Location, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := c.CompletePast(ctx, time.Now().In(loc))
		if err != nil {
			log.WithError(err).Error("jobs: completing past bookings failed")
			return
		}
		log.WithField("completed", n).Info("jobs: past bookings completed")
	}
}

// parseAt turns "HH:MM" into gocron's at-time.
func parseAt(s string) (gocron.AtTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	hh, err1 := strconv.ParseUint(h, 10, 8)
	mm, err2 := strconv.ParseUint(m, 10, 8)
	if !ok || err1 != nil || err2 != nil || hh > 23 || mm > 59 {
		return nil, fmt.Errorf("invalid job time %q, expected HH:MM", s)
	}
	return gocron.NewAtTime(uint(hh), uint(mm), 0), nil
}

// StartScheduler starts a gocron scheduler running the daily completion
// job at cfg.CompletionJobAt in cfg.Location.  The caller must Shutdown the
// returned scheduler.
func StartScheduler(cfg config.BookingConfig, c Completer) (gocron.Scheduler, error) {
	at, err := parseAt(cfg.CompletionJobAt)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	if _, err := s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(at)),
		gocron.NewTask(CompletionTask(c, loc, time.Minute)),
		gocron.WithName("complete-past-bookings"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	log.WithField("at", cfg.CompletionJobAt).WithField("tz", loc.String()).Info("jobs: completion scheduler started")
	return s, nil
}
