package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "github.com/spine-examples/todo-list/api"
	requestSpanName    = "todo.api.request"
	requestEventName   = "todo.request.completed"
	requestEventDomain = "todo.api"
	observabilityEvent = "observability.event"
	attrPrefix         = "todo.request."
)

// requestMetrics records the timings of one API request on an OpenTelemetry
// span and emits a single structured log entry when the request completes.
type requestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	route         string
	start         time.Time
	authDuration  time.Duration
	fetchDuration time.Duration
	commands      int
	duplicates    int
	errorStage    string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*requestMetrics, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", route)),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
	}, spanCtx
}

func (m *requestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *requestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *requestMetrics) SetCommands(count int) {
	if count < 0 {
		count = 0
	}
	m.commands = count
}

func (m *requestMetrics) SetDuplicates(count int) {
	if count < 0 {
		count = 0
	}
	m.duplicates = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the span and writes the observability event.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	defer m.span.End()

	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64(attrPrefix+"total_ms", durationToMillis(time.Since(m.start))),
	}
	if m.authDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrPrefix+"auth_ms", durationToMillis(m.authDuration)))
	}
	if m.fetchDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrPrefix+"fetch_ms", durationToMillis(m.fetchDuration)))
	}
	if m.commands > 0 {
		attrs = append(attrs, attribute.Int(attrPrefix+"commands", m.commands))
	}
	if m.duplicates > 0 {
		attrs = append(attrs, attribute.Int(attrPrefix+"duplicates", m.duplicates))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrPrefix+"error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	severityText, severityNumber := severityForStatus(status, err)

	m.span.SetAttributes(attrs...)
	switch {
	case err != nil:
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	case status >= http.StatusInternalServerError:
		m.span.SetStatus(codes.Error, http.StatusText(status))
	default:
		m.span.SetStatus(codes.Ok, "")
	}

	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", requestEventName),
		attribute.String("event.domain", requestEventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}, attrs...)
	m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrMap,
	}
	if sc := m.span.SpanContext(); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}

	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error(observabilityEvent)
	case "WARN":
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}
}

// severityForStatus maps a response to OpenTelemetry log severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
