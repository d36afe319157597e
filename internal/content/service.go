package content

import (
	"log/slog"

	"studiosite/internal/cms"
)

// Service groups the per-collection services. Cross-collection queries
// (search, filters, aggregates) hang off it.
type Service struct {
	Blogs  *BlogService
	Games  *GameService
	Jobs   *JobService
	Slides *SlideService
	Media  *MediaService
	Legal  *LegalService
}

func New(reader cms.Reader, logger *slog.Logger) *Service {
	return &Service{
		Blogs:  NewBlogService(reader, logger),
		Games:  NewGameService(reader, logger),
		Jobs:   NewJobService(reader, logger),
		Slides: NewSlideService(reader, logger),
		Media:  NewMediaService(reader, logger),
		Legal:  NewLegalService(reader, logger),
	}
}
