package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/cms"
)

type SlideService struct {
	reader cms.Reader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewSlideService(reader cms.Reader, logger *slog.Logger) *SlideService {
	return &SlideService{reader: reader, logger: logger, tracer: otel.Tracer(tracerName)}
}

// GetAll returns every active slide in display order. Slides are never paginated.
func (s *SlideService) GetAll(ctx context.Context) ([]Slide, error) {
	ctx, span := s.tracer.Start(ctx, "SlideService.GetAll")
	defer span.End()
	return s.load(ctx, false)
}

// GetActive is GetAll; inactive slides are already filtered there.
func (s *SlideService) GetActive(ctx context.Context) ([]Slide, error) {
	return s.GetAll(ctx)
}

// GetAllIncludingInactive returns every slide in display order, for previews.
func (s *SlideService) GetAllIncludingInactive(ctx context.Context) ([]Slide, error) {
	ctx, span := s.tracer.Start(ctx, "SlideService.GetAllIncludingInactive")
	defer span.End()
	return s.load(ctx, true)
}

func (s *SlideService) load(ctx context.Context, inactive bool) ([]Slide, error) {
	entries, err := s.reader.All(ctx, cms.Slides)
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		return nil, fetchError("failed to fetch slides", err)
	}

	slides := make([]Slide, 0, len(entries))
	for _, e := range entries {
		slide := normalizeSlide(e)
		if slide.IsActive || inactive {
			slides = append(slides, slide)
		}
	}
	sortByInt(slides, func(s Slide) int { return s.Order })

	return slides, nil
}
