package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"bank-gateways-hub/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTraceID      ctxKey = "trace_id"
	ctxTrackingCode ctxKey = "tracking_code"
	ctxBank         ctxKey = "bank"
)

// With attaches common context fields such as trace_id, bank and
// tracking_code when present on ctx.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTraceID); v != nil {
		l = l.Str("trace_id", v.(string))
	}
	if v := ctx.Value(ctxTrackingCode); v != nil {
		l = l.Str("tracking_code", v.(string))
	}
	if v := ctx.Value(ctxBank); v != nil {
		l = l.Str("bank", v.(string))
	}
	logger := l.Logger()
	return &logger
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}

func WithTrackingCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ctxTrackingCode, code)
}

func WithBank(ctx context.Context, bank string) context.Context {
	return context.WithValue(ctx, ctxBank, bank)
}
