package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fuel-otp/internal/application/otp"
	"github.com/fuel-otp/internal/config"
	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/infrastructure/dynamo"
	"github.com/fuel-otp/internal/infrastructure/email"
	"github.com/fuel-otp/internal/infrastructure/memory"
	"github.com/fuel-otp/internal/infrastructure/redis"
	"github.com/fuel-otp/internal/infrastructure/sns"
	"github.com/fuel-otp/internal/infrastructure/whatsapp"
	"github.com/fuel-otp/internal/pkg/clock"
	transporthttp "github.com/fuel-otp/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if cfg.IsDevelopment() {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("otp store unavailable", "backend", cfg.OTPStore, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	provider := email.NewProvider(cfg)
	if provider == nil && !cfg.SimulateEmail() {
		slog.Warn("no email provider configured, email OTP sends will fail")
	}
	mailer := email.NewMailer(cfg, provider)

	// SNS SMS sender (optional, the SMS channel reports not configured without it).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		smsSender = sender
	} else {
		slog.Warn("SNS sender not available", "err", err)
	}

	svc := otp.NewService(otp.ServiceDeps{
		Store:           store,
		Mailer:          mailer,
		SMSSender:       smsSender,
		Gateway:         whatsapp.NewClient(cfg.WhatsAppGatewayURL, cfg.ProviderTimeout),
		TTL:             cfg.OTPTTL,
		ProviderTimeout: cfg.ProviderTimeout,
		CountryCode:     cfg.PhoneCountryCode,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{OTP: svc}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.OTPStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

// newStore builds the OTP store selected by OTP_STORE. The returned func
// releases its resources.
func newStore(ctx context.Context, cfg *config.Config) (domain.OTPStore, func(), error) {
	clk := clock.New()
	switch cfg.OTPStore {
	case config.StoreRedis:
		rdb, err := redis.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewOTPStore(rdb, cfg.OTPTTL, clk), func() { _ = rdb.Close() }, nil
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTableOTP)
		return dynamo.NewOTPStore(client, cfg.DynamoTableOTP, cfg.OTPTTL, clk), func() {}, nil
	case config.StoreMemory, "":
		store := memory.NewOTPStore(cfg.OTPTTL, clk)
		go store.Run(ctx, cfg.OTPSweepInterval)
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown OTP_STORE %q", cfg.OTPStore)
	}
}
