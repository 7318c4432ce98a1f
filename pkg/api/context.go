package api

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	ctxKeyRequestLogger ctxKey = iota
	ctxKeyUsername
)

func requestLogger(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKeyRequestLogger).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

func requestUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ctxKeyUsername).(string)
	return username, ok
}
