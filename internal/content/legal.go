package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/cms"
)

type LegalService struct {
	reader cms.Reader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewLegalService(reader cms.Reader, logger *slog.Logger) *LegalService {
	return &LegalService{reader: reader, logger: logger, tracer: otel.Tracer(tracerName)}
}

// GetAll returns legal documents, most recently updated first.
func (s *LegalService) GetAll(ctx context.Context, opts ListOptions) (ListResult[Legal], error) {
	ctx, span := s.tracer.Start(ctx, "LegalService.GetAll")
	defer span.End()

	entries, err := s.reader.All(ctx, cms.Legal)
	if err != nil {
		span.RecordError(err)
		return ListResult[Legal]{}, fetchError("failed to fetch legal documents", err)
	}

	docs := make([]Legal, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, normalizeLegal(ctx, e, s.logger))
	}
	sortByDate(docs, func(l Legal) string { return l.LastUpdated })

	return paginate(docs, opts), nil
}

func (s *LegalService) GetBySlug(ctx context.Context, slug string) (Legal, error) {
	ctx, span := s.tracer.Start(ctx, "LegalService.GetBySlug", trace.WithAttributes(attribute.String("content.slug", slug)))
	defer span.End()

	e, err := s.reader.Read(ctx, cms.Legal, slug)
	if err != nil {
		return Legal{}, readError("legal document", slug, err)
	}
	return normalizeLegal(ctx, e, s.logger), nil
}
