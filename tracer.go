package jwtguard

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of jwtguard spans.
const TracerName = "github.com/jwtdemo/jwtguard"

// Tracer returns the jwtguard tracer of tp, for core.WithTracer. A nil tp
// uses the global provider.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(TracerName)
}
