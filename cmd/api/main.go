package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"missedcall/internal/audit"
	"missedcall/internal/auth"
	"missedcall/internal/availability"
	"missedcall/internal/booking"
	"missedcall/internal/calls"
	"missedcall/internal/catalog"
	"missedcall/internal/config"
	"missedcall/internal/gatewaycreds"
	"missedcall/internal/httpapi"
	"missedcall/internal/intake"
	"missedcall/internal/messaging"
	"missedcall/internal/platform"
	"missedcall/internal/reporting"
	"missedcall/internal/telemetry"
	"missedcall/internal/telephony"
	"missedcall/internal/tenant"
	"missedcall/internal/verification"
	"missedcall/internal/voice"
	"missedcall/migrations"
	"missedcall/pkg/logger"
	"missedcall/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// serializableAttempts bounds booking retries on serialization failures.
const serializableAttempts = 3

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(rootCtx, stop, cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, log *slog.Logger) error {
	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return err
	}

	if cfg.DB.AutoMigrate {
		version, err := platform.RunMigrations(migrations.FS, cfg.MigrateURL())
		if err != nil {
			return err
		}
		log.Info("migrations applied", "version", version)
	}

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		return err
	}
	defer rdb.Close()

	registry := telemetry.NewMetricsRegistry()

	// Repositories
	tenants := tenant.NewPostgresRepo(db)
	catalogRepo := catalog.NewPostgresRepo(db)
	appointments := booking.NewPostgresRepo(db)
	callRepo := calls.NewPostgresRepo(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	resolver := tenant.NewResolver(tenants)

	// Platform sender credentials: platform_settings first, env as fallback.
	credStore := gatewaycreds.NewPostgresStore(db)
	credCache := gatewaycreds.NewCache(gatewaycreds.StoreLoader(credStore, gatewaycreds.Credentials{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.FromNumber,
	}), cfg.Twilio.CredentialsCacheTTL)

	dispatcher := messaging.NewDispatcher(messaging.Deps{
		Gateway:           telephony.NewTwilioSMSGateway(),
		Tenants:           tenants,
		Platform:          credCache,
		Logs:              messaging.NewPostgresRepo(db),
		StatusCallbackURL: cfg.App.PublicBaseURL + smsStatusPath,
		SentTotal:         telemetry.SMSTotal,
		CallbacksTotal:    telemetry.SMSStatusCallbacksTotal,
	})

	verifier := &verification.Service{
		Repo:      verification.NewPostgresRepo(db),
		Limiter:   verification.NewRedisLimiter(rdb, cfg.OTP.RateLimit, cfg.OTP.RateWindow),
		Messenger: dispatcher,
		TTL:       cfg.OTP.TTL,
		Requests:  telemetry.VerificationRequestsTotal,
	}

	bookingSvc := booking.NewService(booking.Deps{
		Catalog:   catalogRepo,
		Hours:     tenants,
		Repo:      appointments,
		Tx:        booking.NewPostgresTransactor(db, serializableAttempts),
		Messenger: dispatcher,
		Audit:     auditSvc,
		Location:  cfg.Location(),
		Outcomes:  telemetry.BookingOutcomesTotal,
	})
	availabilitySvc := availability.NewService(tenants, appointments, cfg.Scheduling.SlotIntervalMinutes)

	engine := &intake.Engine{
		Resolver:      resolver,
		Tenants:       tenants,
		Calls:         callRepo,
		Messenger:     dispatcher,
		Links:         intake.Links{BaseURL: cfg.App.PublicBaseURL},
		GatherTimeout: cfg.Scheduling.IVRGatherTimeout,
		Outcomes:      telemetry.CallsTotal,
	}

	greetingAudio, err := newGreetingAudio(ctx, cfg, tenants, log)
	if err != nil {
		return err
	}

	deps := routeDeps{
		Auth: authManager,
		Public: httpapi.Public{
			Tenants:      resolver,
			Catalog:      catalogRepo,
			Availability: availabilitySvc,
			Verification: verifier,
			Booking:      bookingSvc,
		},
		Staff: httpapi.Staff{
			Tenants:      tenants,
			Settings:     tenant.NewSettings(tenants, auditSvc, greetingAudio),
			Calls:        calls.NewService(callRepo, auditSvc),
			Booking:      bookingSvc,
			Availability: availabilitySvc,
			Reporting:    reporting.NewService(reporting.NewPostgresRepo(db)),
			Credentials:  gatewaycreds.Updater{Store: credStore, Cache: credCache},
			Audit:        auditSvc,
			Location:     cfg.Location(),
		},
		Twilio: telephony.TwilioWebhookHandler{
			Intake:        engine,
			Statuses:      dispatcher,
			PublicBaseURL: cfg.App.PublicBaseURL,
			GatherPath:    gatherPath,
		},
		TwilioSignatures: cfg.Twilio.ValidateSignatures,
		TwilioTokens:     telephony.WebhookTokens(credCache, tenants),
		PublicBaseURL:    cfg.App.PublicBaseURL,
		Registry:         registry,
		Ready: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, telemetry.ObserveRequest))
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "timezone", cfg.App.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	return nil
}

// newGreetingAudio wires IVR greeting pre-generation when TTS and S3 are configured.
// Without them the greeting text is spoken by the gateway's own TTS.
func newGreetingAudio(ctx context.Context, cfg config.Config, tenants voice.TenantAudio, log *slog.Logger) (tenant.GreetingAudio, error) {
	if !cfg.Audio.Enabled() {
		log.Info("ivr audio pre-generation disabled")
		return nil, nil
	}
	store, err := voice.NewS3Store(ctx, voice.S3StoreConfig{
		Bucket:        cfg.Audio.S3Bucket,
		Region:        cfg.Audio.S3Region,
		Endpoint:      cfg.Audio.S3Endpoint,
		PublicBaseURL: cfg.Audio.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	pregen := &voice.Pregenerator{
		Synth:   voice.NewHTTPSynthesizer(cfg.Audio.TTSEndpoint, cfg.Audio.TTSAPIKey),
		Store:   store,
		Tenants: tenants,
		Total:   telemetry.AudioPregenerationTotal,
	}
	return func(ctx context.Context, tenantID, text string) {
		// the result channel is buffered; nobody waits on it
		_ = pregen.Submit(ctx, tenantID, text)
	}, nil
}
