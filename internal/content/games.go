package content

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/cms"
)

type GameService struct {
	reader cms.Reader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewGameService(reader cms.Reader, logger *slog.Logger) *GameService {
	return &GameService{reader: reader, logger: logger, tracer: otel.Tracer(tracerName)}
}

// GetAll returns games ordered by title.
func (s *GameService) GetAll(ctx context.Context, opts ListOptions) (ListResult[Game], error) {
	ctx, span := s.tracer.Start(ctx, "GameService.GetAll")
	defer span.End()

	entries, err := s.reader.All(ctx, cms.Games)
	if err != nil {
		span.RecordError(err)
		return ListResult[Game]{}, fetchError("failed to fetch games", err)
	}

	games := make([]Game, 0, len(entries))
	for _, e := range entries {
		games = append(games, normalizeGame(ctx, e, s.logger))
	}
	sortByText(games, func(g Game) string { return g.Title })

	return paginate(games, opts), nil
}

func (s *GameService) GetBySlug(ctx context.Context, slug string) (Game, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.GetBySlug", trace.WithAttributes(attribute.String("content.slug", slug)))
	defer span.End()

	e, err := s.reader.Read(ctx, cms.Games, slug)
	if err != nil {
		return Game{}, readError("game", slug, err)
	}
	return normalizeGame(ctx, e, s.logger), nil
}

// GetFeatured returns the first n games; n <= 0 means 6.
func (s *GameService) GetFeatured(ctx context.Context, n int) ([]Game, error) {
	if n <= 0 {
		n = 6
	}
	res, err := s.GetAll(ctx, ListOptions{Limit: n})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GetByGenre returns games whose genre list contains genre, case-insensitively.
func (s *GameService) GetByGenre(ctx context.Context, genre string) ([]Game, error) {
	res, err := s.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(genre))
	out := make([]Game, 0, len(res.Items))
	for _, g := range res.Items {
		if strings.Contains(strings.ToLower(g.Genres), want) {
			out = append(out, g)
		}
	}
	return out, nil
}
