// Package dtrace contains thin wrappers around OpenTelemetry tracing,
// so that other packages only reference dtrace.
package dtrace

import (
	"fmt"

	otelattr "go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	otpnoop "go.opentelemetry.io/otel/trace/noop"
)

type TracerProvider = oteltrace.TracerProvider

type Tracer = oteltrace.Tracer

type Span = oteltrace.Span

type KeyValueAttr = otelattr.KeyValue

// NopTracerProvider returns the otel no-op tracer provider.
// This is intended to use as a fallback when a nil tracer provider is given.
func NopTracerProvider() TracerProvider {
	return otpnoop.NewTracerProvider()
}

// TracerOrNop returns a tracer named name from tp,
// or from the no-op provider if tp is nil.
func TracerOrNop(tp TracerProvider, name string) Tracer {
	if tp == nil {
		tp = NopTracerProvider()
	}
	return tp.Tracer(name)
}

// WithAttributes is an alias to [oteltrace.WithAttributes]
// to allow consumers to only reference the dtrace package.
func WithAttributes(attrs ...KeyValueAttr) oteltrace.SpanStartEventOption {
	return oteltrace.WithAttributes(attrs...)
}

// LazyValueAttr returns an attribute that uses fmt.Sprintf("%v", val)
// but only evaluates the Sprintf call if the span is sampled.
func LazyValueAttr(key string, val any) KeyValueAttr {
	return otelattr.Stringer(key, lazyValue{val: val})
}

type lazyValue struct {
	val any
}

func (v lazyValue) String() string {
	return fmt.Sprintf("%v", v.val)
}

// RevisionAttr returns an attribute for an observable revision.
func RevisionAttr(rev uint64) KeyValueAttr {
	return otelattr.Int64("discro.revision", int64(rev))
}

// SpanError sets the given span to error status,
// with detail from err.Error().
func SpanError(span oteltrace.Span, err error) {
	span.SetStatus(otelcodes.Error, err.Error())
}

// ErrorAttr returns an attribute with the key "err"
// and the lazily evaluated value of err's Error() method.
func ErrorAttr(err error) KeyValueAttr {
	return otelattr.Stringer("err", errStringer{err: err})
}

type errStringer struct {
	err error
}

func (e errStringer) String() string {
	return e.err.Error()
}
