package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/cms"
)

type MediaService struct {
	reader cms.Reader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewMediaService(reader cms.Reader, logger *slog.Logger) *MediaService {
	return &MediaService{reader: reader, logger: logger, tracer: otel.Tracer(tracerName)}
}

// GetAll returns media ordered by name.
func (s *MediaService) GetAll(ctx context.Context, opts ListOptions) (ListResult[Media], error) {
	ctx, span := s.tracer.Start(ctx, "MediaService.GetAll")
	defer span.End()

	entries, err := s.reader.All(ctx, cms.Media)
	if err != nil {
		span.RecordError(err)
		return ListResult[Media]{}, fetchError("failed to fetch media", err)
	}

	items := make([]Media, 0, len(entries))
	for _, e := range entries {
		items = append(items, normalizeMedia(e))
	}
	sortByText(items, func(m Media) string { return m.Name })

	return paginate(items, opts), nil
}

func (s *MediaService) GetBySlug(ctx context.Context, slug string) (Media, error) {
	ctx, span := s.tracer.Start(ctx, "MediaService.GetBySlug", trace.WithAttributes(attribute.String("content.slug", slug)))
	defer span.End()

	e, err := s.reader.Read(ctx, cms.Media, slug)
	if err != nil {
		return Media{}, readError("media", slug, err)
	}
	return normalizeMedia(e), nil
}

func (s *MediaService) GetByCategory(ctx context.Context, category MediaCategory) ([]Media, error) {
	res, err := s.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]Media, 0, len(res.Items))
	for _, m := range res.Items {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out, nil
}
