// Package web carries the HTTP glue around the payment core: the bank
// callback endpoint, the admin API, and the operational routes. The core
// packages never import it.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"bank-gateways-hub/internal/gateway"
)

type Server struct {
	gateways map[string]*gateway.PaymentGateway
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(gateways map[string]*gateway.PaymentGateway, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{gateways: gateways, auth: auth, log: logger}
}

// Router builds the full route table. Callbacks accept both GET and POST
// because the banks disagree on how they send the payer back.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/gateways/callback/{bank}", s.callbackHandler())
	r.Post("/gateways/callback/{bank}", s.callbackHandler())

	r.Post("/admin/login", s.loginHandler())
	r.Post("/admin/logout", s.logoutHandler())
	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)
		r.Post("/admin/transactions/{bank}/{reference}/inquiry", s.inquiryHandler())
		r.Post("/admin/transactions/{bank}/{reference}/reverse", s.reverseHandler())
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
