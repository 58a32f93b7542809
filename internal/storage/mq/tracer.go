package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// kotelHooks traces produce and fetch calls and records client metrics
// through the global OpenTelemetry providers.
func kotelHooks() []kgo.Hook {
	k := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer()),
		kotel.WithMeter(kotel.NewMeter()),
	)
	return k.Hooks()
}
