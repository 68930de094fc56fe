package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/lumine/darshan-bookings/internal/directory"
	"github.com/lumine/darshan-bookings/internal/history"
	"github.com/lumine/darshan-bookings/internal/http/handlers"
	dmw "github.com/lumine/darshan-bookings/internal/http/middleware"
	"github.com/lumine/darshan-bookings/internal/notify"
	"github.com/lumine/darshan-bookings/internal/platform/bookingapi"
	"github.com/lumine/darshan-bookings/internal/platform/mailer"
	"github.com/lumine/darshan-bookings/internal/platform/session"
	"github.com/lumine/darshan-bookings/internal/predictions"
	"github.com/lumine/darshan-bookings/internal/verify"
	"github.com/lumine/darshan-bookings/internal/wizard"
	"github.com/lumine/darshan-bookings/pkg/config"
	"github.com/lumine/darshan-bookings/pkg/events"
	"github.com/lumine/darshan-bookings/pkg/logger"
	mw "github.com/lumine/darshan-bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Redis holds session records, the active-booking cache, and rate
	// limit windows
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Upstream clients
	directoryClient := directory.NewClient(cfg.Upstreams.BookingAPIURL, cfg.Upstreams.RequestTimeout)
	predictionClient := predictions.NewClient(cfg.Upstreams.PredictionURL, cfg.Upstreams.RequestTimeout)
	bookingClient := bookingapi.NewClient(cfg.Upstreams.BookingAPIURL, cfg.Upstreams.RequestTimeout)

	// Platform services
	sessionStore := session.NewStore(rdb, cfg.Auth.UserRecordTTL)
	historyService := history.NewService(bookingClient, sessionStore, cfg.Upstreams.ActiveCacheTTL)

	wizards := wizard.NewManager(wizard.Deps{
		Temples:     directoryClient,
		Predictions: predictionClient,
		Creator:     bookingClient,
		Events:      eventBus,
		Verifier:    &verify.StubVerifier{Latency: cfg.Upstreams.VerifyLatency},
		Recorder:    historyService,
	})

	// Confirmation mail worker, fed by the event bus
	var m mailer.Mailer
	if cfg.Email.DevMode {
		m = &mailer.DevMailer{}
	} else {
		m = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	if err := notify.NewWorker(eventBus, m).Start(); err != nil {
		logger.Error("Failed to start notify worker", "error", err)
		os.Exit(1)
	}

	h := handlers.New(wizards, historyService, directoryClient)
	requireUser := dmw.RequireUser(sessionStore, cfg.Auth.JWTSecret)
	submitLimiter := dmw.NewRateLimiter(rdb, dmw.RateLimitConfig{
		Requests: cfg.RateLimit.SubmitRequests,
		Window:   cfg.RateLimit.SubmitWindow,
		KeyFunc:  dmw.UserKey("submit"),
	})

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("darshan-api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/temples", h.GetTemples)

		r.Route("/booking/session", func(r chi.Router) {
			r.Post("/", h.StartSession)
			r.Get("/", h.GetSession)
			r.Post("/next", h.NextStep)
			r.Post("/prev", h.PrevStep)
			r.Put("/slot", h.UpdateSlot)
			r.Get("/slots", h.GetSlots)
			r.Post("/reset", h.ResetSession)
			r.With(submitLimiter.Middleware()).Post("/submit", h.Submit)

			r.Route("/members", func(r chi.Router) {
				r.Post("/", h.AddMember)
				r.Patch("/{localId}", h.UpdateMember)
				r.Delete("/{localId}", h.RemoveMember)
				r.Post("/{localId}/verify-aadhaar", h.VerifyAadhaar)
			})
		})

		r.Get("/bookings", h.ListBookings)
		r.Get("/bookings/active", h.ActiveBooking)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down darshan API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Darshan API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting darshan API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Darshan API error", "error", err)
		os.Exit(1)
	}
}
