package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/handler"
	"github.com/iliyamo/theatre-booking/internal/jobs"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/notify"
	"github.com/iliyamo/theatre-booking/internal/queue"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/router"
	"github.com/iliyamo/theatre-booking/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("could not read .env")
	}
	cfg := config.Load()
	if cfg.Env == "prod" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	bcfg := config.LoadBookingConfig()
	ncfg := config.LoadNotifyConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}
	users := repository.NewUserRepo(db)
	seedAdmin(ctx, cfg, users)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	screens := repository.NewScreenRepo(db)
	slots := repository.NewTimeSlotRepo(db)
	bookings := repository.NewBookingRepo(db)
	schedules := repository.NewScheduleRepo(db)

	bookingSvc := service.NewBookingService(bookings, screens, schedules,
		service.WithNotifier(queue.NewPublisher(ncfg.AMQPURL, ncfg.Queue)),
		service.WithScheduleCrossCheck(bcfg.CrossCheckSchedules),
	)
	availabilitySvc := service.NewAvailabilityService(screens, slots, bookings)
	scheduleSvc := service.NewScheduleService(schedules, screens, slots, bookings, bcfg.CrossCheckSchedules)
	slotSvc := service.NewTimeSlotService(slots)

	if ncfg.ConsumerOn {
		consumer := queue.NewConsumer(ncfg.AMQPURL, ncfg.Queue, notify.NewMailer(ncfg))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("notification consumer stopped")
			}
		}()
	}

	if bcfg.CompletionJob {
		sched, err := jobs.StartScheduler(bcfg, bookingSvc)
		if err != nil {
			log.WithError(err).Fatal("completion job setup failed")
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.WithError(err).Warn("scheduler shutdown")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
				"rid":     v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Bookings:     handler.NewBookingHandler(bookingSvc),
		Schedules:    handler.NewScheduleHandler(scheduleSvc),
		TimeSlots:    handler.NewTimeSlotHandler(slotSvc),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		DB:        db,
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// seedAdmin creates the bootstrap super admin when configured.  An
// existing user with the same name or e-mail is left alone.
func seedAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo) {
	if cfg.SeedAdminUsername == "" {
		return
	}
	if cfg.SeedAdminPassword == "" {
		log.Warn("SEED_ADMIN_USERNAME set without SEED_ADMIN_PASSWORD, skipping seed")
		return
	}
	u := &model.User{
		Username: cfg.SeedAdminUsername,
		Email:    cfg.SeedAdminEmail,
		Role:     model.RoleSuperAdmin,
		IsActive: true,
	}
	id, err := users.Create(ctx, u, cfg.SeedAdminPassword, cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrUserExists):
		return
	case err != nil:
		log.WithError(err).Fatal("seed admin failed")
	}
	log.WithFields(log.Fields{"id": id, "username": u.Username}).Info("seeded super admin")
}
