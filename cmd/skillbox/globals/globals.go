package globals

import (
	"context"

	"skillbox/internal/components/chrono"
	"skillbox/internal/components/restyutil"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/config"
)

type keyType struct{}

var key keyType

type Value struct {
	Config config.Config
	Time   chrono.TimeAPI
	Tel    telemetry.API
	// Dump is nil unless --dump-http is given.
	Dump restyutil.InstrumentOutput
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key).(*Value)
}
