// Package observability carries logging, tracing and metrics as one value
// that is passed explicitly to every component.
package observability

import (
	"context"
	"time"

	apperrors "dompet/internal/errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observer struct {
	Log     zerolog.Logger
	Tracer  trace.Tracer
	Metrics MetricsCollector
}

// Noop returns an observer that discards everything.
func Noop() Observer {
	return Observer{
		Log:     zerolog.Nop(),
		Tracer:  noop.NewTracerProvider().Tracer("noop"),
		Metrics: &NoopMetricsCollector{},
	}
}

// WithDefaults fills any unset member with its no-op variant.
func (o Observer) WithDefaults() Observer {
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetricsCollector{}
	}
	return o
}

// Component returns a copy whose logger is tagged with the component name.
func (o Observer) Component(name string) Observer {
	o.Log = o.Log.With().Str("component", name).Logger()
	return o
}

// Operation tracks one traced, logged and measured unit of work.
type Operation struct {
	obs       Observer
	span      trace.Span
	component string
	name      string
	started   time.Time
	log       zerolog.Logger
}

// Begin starts a span named component.operation.
func (o Observer) Begin(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := o.Tracer.Start(ctx, component+"."+operation, trace.WithAttributes(attrs...))

	lc := o.Log.With().Str("operation", operation)
	for _, a := range attrs {
		lc = lc.Str(string(a.Key), a.Value.Emit())
	}
	log := lc.Logger()
	log.Debug().Msg("operation started")

	return ctx, &Operation{
		obs:       o,
		span:      span,
		component: component,
		name:      operation,
		started:   time.Now(),
		log:       log,
	}
}

// Log returns the operation scoped logger.
func (op *Operation) Log() *zerolog.Logger {
	return &op.log
}

// Step records a named saga step on the span.
func (op *Operation) Step(name string, attrs ...attribute.KeyValue) {
	op.span.AddEvent(name, trace.WithAttributes(attrs...))
	op.log.Debug().Str("step", name).Msg("saga step")
}

func (op *Operation) Succeed() {
	op.span.SetStatus(codes.Ok, "")
	op.span.End()
	op.obs.Metrics.RecordOperation(op.component, op.name, "success", time.Since(op.started))
	op.log.Info().Dur("elapsed", time.Since(op.started)).Msg("operation succeeded")
}

// Fail ends the operation with err and returns err unchanged.
func (op *Operation) Fail(err error) error {
	kind := apperrors.KindOf(err)

	op.span.RecordError(err)
	op.span.SetStatus(codes.Error, err.Error())
	op.span.End()
	op.obs.Metrics.RecordOperation(op.component, op.name, string(kind), time.Since(op.started))

	ev := op.log.Warn()
	if kind == apperrors.KindDownstream {
		ev = op.log.Error()
	}
	ev.Err(err).Str("kind", string(kind)).Dur("elapsed", time.Since(op.started)).Msg("operation failed")
	return err
}
