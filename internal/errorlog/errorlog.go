// Package errorlog is where server failures, panics and browser error
// reports end up. Every report is logged; client reports are also stored and
// optionally forwarded to a webhook.
package errorlog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mileusna/useragent"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"

	"studiosite/internal/storage"
	"studiosite/internal/telemetry"
)

const (
	maxMessageLen = 5000
	maxFieldLen   = 20000
)

var ErrInvalidReport = errors.New("missing required fields: message and timestamp")

// Reporter receives everything worth investigating.
type Reporter interface {
	// LogError records a server-side failure.
	LogError(ctx context.Context, err error, attrs ...any)
	// LogCustomError records a condition that is not a Go error.
	LogCustomError(ctx context.Context, message string, attrs ...any)
	// ReportClientError stores a report sent by a browser.
	ReportClientError(ctx context.Context, report ClientReport, origin Origin) (*storage.ClientError, error)
}

// ClientReport is the JSON body posted by the browser error boundary.
type ClientReport struct {
	Message           string         `json:"message"`
	Stack             string         `json:"stack,omitempty"`
	Digest            string         `json:"digest,omitempty"`
	URL               string         `json:"url,omitempty"`
	UserAgent         string         `json:"userAgent,omitempty"`
	Timestamp         string         `json:"timestamp"`
	UserID            string         `json:"userId,omitempty"`
	SessionID         string         `json:"sessionId,omitempty"`
	BuildID           string         `json:"buildId,omitempty"`
	Component         string         `json:"component,omitempty"`
	Props             map[string]any `json:"props,omitempty"`
	AdditionalContext map[string]any `json:"additionalContext,omitempty"`
}

// Origin is what the server knows about the request carrying a report.
type Origin struct {
	IP           string
	UserAgent    string
	Referer      string
	ForwardedFor string
}

// Sink persists client reports.
type Sink interface {
	CreateClientError(ctx context.Context, e *storage.ClientError) (*storage.ClientError, error)
}

type Logger struct {
	logger  *slog.Logger
	sink    Sink
	webhook *webhook
	hashKey []byte
	metrics *telemetry.Metrics
	now     func() time.Time
}

var _ Reporter = (*Logger)(nil)

type Option func(*Logger)

// WithWebhook forwards every client report to url. token, when set, is sent
// as a bearer token.
func WithWebhook(url, token string) Option {
	return func(l *Logger) {
		if url != "" {
			l.webhook = newWebhook(url, token)
		}
	}
}

// WithIPHashKey keys the hash applied to client IPs before storage.
func WithIPHashKey(key string) Option {
	return func(l *Logger) {
		k := []byte(key)
		if len(k) > blake2b.Size {
			sum := blake2b.Sum256(k)
			k = sum[:]
		}
		l.hashKey = k
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// New returns a Reporter writing to logger. sink may be nil, reports are then
// only logged.
func New(logger *slog.Logger, sink Sink, opts ...Option) *Logger {
	l := &Logger{
		logger:  logger,
		sink:    sink,
		metrics: telemetry.NoopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) LogError(ctx context.Context, err error, attrs ...any) {
	if err == nil {
		return
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
	}
	l.logger.ErrorContext(ctx, err.Error(), append(l.traceAttrs(ctx), attrs...)...)
}

func (l *Logger) LogCustomError(ctx context.Context, message string, attrs ...any) {
	l.logger.ErrorContext(ctx, message, append(l.traceAttrs(ctx), attrs...)...)
}

func (l *Logger) ReportClientError(ctx context.Context, report ClientReport, origin Origin) (*storage.ClientError, error) {
	report.Message = strings.TrimSpace(report.Message)
	report.Timestamp = strings.TrimSpace(report.Timestamp)
	if report.Message == "" || report.Timestamp == "" {
		return nil, ErrInvalidReport
	}

	serverTS := l.now().UTC()
	rec := &storage.ClientError{
		Message:         truncate(report.Message, maxMessageLen),
		Stack:           optional(truncate(report.Stack, maxFieldLen)),
		Digest:          optional(report.Digest),
		URL:             optional(report.URL),
		Component:       optional(report.Component),
		ClientTimestamp: report.Timestamp,
		ServerTimestamp: serverTS,
	}

	ua := report.UserAgent
	if ua == "" {
		ua = origin.UserAgent
	}
	if ua != "" {
		rec.UserAgent = &ua
		browser, os := describeAgent(ua)
		rec.Browser = optional(browser)
		rec.OS = optional(os)
	}
	if origin.IP != "" {
		rec.IPHash = optional(l.hashIP(origin.IP))
	}

	extra := map[string]any{}
	for k, v := range map[string]any{
		"userId":            report.UserID,
		"sessionId":         report.SessionID,
		"buildId":           report.BuildID,
		"referer":           origin.Referer,
		"props":             report.Props,
		"additionalContext": report.AdditionalContext,
	} {
		if !isEmpty(v) {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		b, err := json.Marshal(extra)
		if err != nil {
			l.logger.WarnContext(ctx, "client error context dropped", "err", err)
		} else {
			rec.Context = b
		}
	}

	l.metrics.ClientErrorsTotal.Add(ctx, 1)
	l.logger.ErrorContext(ctx, "client error received",
		"message", rec.Message,
		"component", report.Component,
		"url", report.URL,
		"digest", report.Digest,
		"browser", deref(rec.Browser),
	)

	stored := rec
	if l.sink != nil {
		var err error
		stored, err = l.sink.CreateClientError(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("storing client error: %w", err)
		}
	}

	if l.webhook != nil {
		if err := l.webhook.send(ctx, enriched(report, rec, origin)); err != nil {
			// forwarding is best effort
			l.logger.WarnContext(ctx, "failed to send to webhook", "err", err)
		}
	}

	return stored, nil
}

func (l *Logger) traceAttrs(ctx context.Context) []any {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []any{"trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String()}
}

func (l *Logger) hashIP(ip string) string {
	h, err := blake2b.New256(l.hashKey)
	if err != nil {
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

func describeAgent(s string) (browser, os string) {
	ua := useragent.Parse(s)
	browser = strings.TrimSpace(ua.Name + " " + ua.Version)
	os = strings.TrimSpace(ua.OS + " " + ua.OSVersion)
	return browser, os
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	}
	return false
}
