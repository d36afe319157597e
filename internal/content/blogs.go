package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/cms"
)

const tracerName = "studiosite/content"

type BlogService struct {
	reader cms.Reader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewBlogService(reader cms.Reader, logger *slog.Logger) *BlogService {
	return &BlogService{reader: reader, logger: logger, tracer: otel.Tracer(tracerName)}
}

// GetAll returns blogs newest first.
func (s *BlogService) GetAll(ctx context.Context, opts ListOptions) (ListResult[Blog], error) {
	ctx, span := s.tracer.Start(ctx, "BlogService.GetAll")
	defer span.End()

	entries, err := s.reader.All(ctx, cms.Blogs)
	if err != nil {
		span.RecordError(err)
		return ListResult[Blog]{}, fetchError("failed to fetch blogs", err)
	}

	blogs := make([]Blog, 0, len(entries))
	for _, e := range entries {
		blogs = append(blogs, normalizeBlog(ctx, e, s.logger))
	}
	sortByDate(blogs, func(b Blog) string { return b.PublishedAt })

	return paginate(blogs, opts), nil
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string) (Blog, error) {
	ctx, span := s.tracer.Start(ctx, "BlogService.GetBySlug", trace.WithAttributes(attribute.String("content.slug", slug)))
	defer span.End()

	e, err := s.reader.Read(ctx, cms.Blogs, slug)
	if err != nil {
		return Blog{}, readError("blog", slug, err)
	}
	return normalizeBlog(ctx, e, s.logger), nil
}

// GetRecent returns the newest n blogs; n <= 0 means 3.
func (s *BlogService) GetRecent(ctx context.Context, n int) ([]Blog, error) {
	if n <= 0 {
		n = 3
	}
	res, err := s.GetAll(ctx, ListOptions{Limit: n})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
