package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/fuel-otp/internal/config"
	"github.com/fuel-otp/internal/transport/http/handler"
	appmiddleware "github.com/fuel-otp/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router. ctx bounds the rate
// limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	dev := cfg.IsDevelopment()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(appmiddleware.Recover(dev))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 1 request/second, burst of 5, per client IP on every endpoint that sends a code.
	sendRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(1), 5)

	healthH := handler.NewHealthHandler()
	emailH := handler.NewEmailOTPHandler(deps.OTP, dev)
	smsH := handler.NewSMSOTPHandler(deps.OTP, dev)
	waH := handler.NewWhatsAppHandler(deps.OTP, dev)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/email", func(r chi.Router) {
		r.With(sendRL.Limit).Post("/send", emailH.Send)
		r.Post("/verify", emailH.Verify)
		r.With(sendRL.Limit).Get("/test", emailH.Test)
	})
	r.Route("/sms", func(r chi.Router) {
		r.With(sendRL.Limit).Post("/send", smsH.Send)
		r.Post("/verify", smsH.Verify)
	})
	r.Route("/whatsapp", func(r chi.Router) {
		r.With(sendRL.Limit).Post("/send", waH.Send)
		r.Post("/verify", waH.Verify)
	})

	return r
}
