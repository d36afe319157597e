package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/cms"
)

type JobService struct {
	reader cms.Reader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewJobService(reader cms.Reader, logger *slog.Logger) *JobService {
	return &JobService{reader: reader, logger: logger, tracer: otel.Tracer(tracerName)}
}

// GetAll returns active jobs, most recently posted first.
func (s *JobService) GetAll(ctx context.Context, opts ListOptions) (ListResult[Job], error) {
	ctx, span := s.tracer.Start(ctx, "JobService.GetAll")
	defer span.End()

	entries, err := s.reader.All(ctx, cms.Jobs)
	if err != nil {
		span.RecordError(err)
		return ListResult[Job]{}, fetchError("failed to fetch jobs", err)
	}

	jobs := make([]Job, 0, len(entries))
	for _, e := range entries {
		job := normalizeJob(ctx, e, s.logger)
		if job.IsActive {
			jobs = append(jobs, job)
		}
	}
	sortByDate(jobs, func(j Job) string { return j.PostedAt })

	return paginate(jobs, opts), nil
}

// GetBySlug returns the job whether or not it is active.
func (s *JobService) GetBySlug(ctx context.Context, slug string) (Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.GetBySlug", trace.WithAttributes(attribute.String("content.slug", slug)))
	defer span.End()

	e, err := s.reader.Read(ctx, cms.Jobs, slug)
	if err != nil {
		return Job{}, readError("job", slug, err)
	}
	return normalizeJob(ctx, e, s.logger), nil
}

func (s *JobService) GetByType(ctx context.Context, jobType JobType) ([]Job, error) {
	res, err := s.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]Job, 0, len(res.Items))
	for _, j := range res.Items {
		if j.JobType == jobType {
			out = append(out, j)
		}
	}
	return out, nil
}
