package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"studiosite/internal/errorlog"
	"studiosite/internal/storage"
)

const (
	queueSize   = 25
	webpQuality = 75
)

var ErrQueueFull = errors.New("image processor queue full")

type Job struct {
	SourceKey  string
	ID         string
	Width      int
	ParentSpan trace.SpanContext
}

// VariantKey is the cache key of the WebP rendition of id at width.
func VariantKey(id string, width int) string {
	return fmt.Sprintf("%s_%d.webp", id, width)
}

// Processor generates WebP variants on a fixed pool of workers. Sources are
// read from one store and variants written to another.
type Processor struct {
	jobs     chan Job
	wg       sync.WaitGroup
	logger   *slog.Logger
	reporter errorlog.Reporter
	inFlight sync.Map
	sources  storage.Provider
	cache    storage.Provider
	tracer   trace.Tracer
}

// NewProcessor starts workers that run until ctx is canceled.
func NewProcessor(ctx context.Context, sources, cache storage.Provider, workers int, reporter errorlog.Reporter, logger *slog.Logger) *Processor {
	p := &Processor{
		jobs:     make(chan Job, queueSize),
		logger:   logger,
		reporter: reporter,
		sources:  sources,
		cache:    cache,
		tracer:   otel.Tracer("studiosite/assets/processor"),
	}
	for i := range max(workers, 1) {
		p.wg.Go(func() {
			p.worker(ctx, i)
		})
	}

	go func() {
		<-ctx.Done()
		p.logger.Info("image processor received shutdown signal")
		p.wg.Wait()
		p.logger.Info("image processor shutdown complete")
	}()

	return p
}

// Wait blocks until every worker has exited.
func (p *Processor) Wait() { p.wg.Wait() }

func (p *Processor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.run(ctx, id, job)
		}
	}
}

func (p *Processor) run(ctx context.Context, worker int, job Job) {
	defer p.inFlight.Delete(VariantKey(job.ID, job.Width))
	defer errorlog.Recover(ctx, p.reporter, "webp-worker")
	p.ProcessJob(ctx, worker, job)
}

// Cached reports whether the variant for id and width exists.
func (p *Processor) Cached(ctx context.Context, id string, width int) bool {
	return p.cache.Exists(ctx, VariantKey(id, width))
}

// OpenVariant opens a cached variant.
func (p *Processor) OpenVariant(ctx context.Context, id string, width int) (io.ReadCloser, error) {
	return p.cache.Open(ctx, VariantKey(id, width))
}

func (p *Processor) ProcessJob(ctx context.Context, worker int, job Job) {
	ctx, span := p.tracer.Start(ctx, "ProcessJob",
		trace.WithAttributes(
			attribute.String("image.id", job.ID),
			attribute.Int("image.width", job.Width),
		),
		trace.WithLinks(trace.Link{SpanContext: job.ParentSpan}),
	)
	defer span.End()

	destKey := VariantKey(job.ID, job.Width)
	p.logger.Debug("worker processing image variant", "worker_id", worker, "uuid", job.ID, "variant", job.Width)

	if p.cache.Exists(ctx, destKey) || ctx.Err() != nil {
		return
	}

	reader, err := p.sources.Open(ctx, job.SourceKey)
	if err != nil {
		span.SetStatus(codes.Error, "source missing")
		p.logger.Error("failed to open source", "key", job.SourceKey, "err", err)
		return
	}
	defer reader.Close()

	_, cpuSpan := p.tracer.Start(ctx, "GenerateVariant.CPU")
	out, err := generateVariant(ctx, reader, job.Width)
	cpuSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, "variant failed")
		p.logger.Error("variant failed", "worker", worker, "key", job.SourceKey, "variant", job.Width, "err", err)
		return
	}

	if err := p.cache.Save(ctx, destKey, out); err != nil {
		p.logger.Error("failed to store variant", "key", destKey, "err", err)
	}
}

// Enqueue schedules a job unless the same variant is already queued. It
// never blocks: a full queue is reported as ErrQueueFull.
func (p *Processor) Enqueue(ctx context.Context, job Job) error {
	key := VariantKey(job.ID, job.Width)
	if _, loaded := p.inFlight.LoadOrStore(key, struct{}{}); loaded {
		return nil
	}

	select {
	case <-ctx.Done():
		p.inFlight.Delete(key)
		return ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.inFlight.Delete(key)
		return ErrQueueFull
	}
}

func generateVariant(ctx context.Context, r io.Reader, width int) (io.ReadSeeker, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	img = resizeImage(img, width)

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// resizeImage scales down to maxWidth keeping the aspect ratio. Smaller
// images are returned unchanged.
func resizeImage(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	if b.Dx() <= maxWidth {
		return source
	}

	newHeight := max((b.Dy()*maxWidth)/b.Dx(), 1)
	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.BiLinear.Scale(dest, dest.Bounds(), source, b, draw.Over, nil)
	return dest
}
