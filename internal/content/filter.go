package content

import (
	"context"
	"slices"
	"strings"
	"time"
)

// GameFilter values are OR-combined within a field and AND-combined across fields.
// Empty fields do not constrain.
type GameFilter struct {
	Genres    []string
	Platforms []string
	ArtStyles []string
}

type JobFilter struct {
	JobTypes  []JobType
	Locations []string
	// Remote, when set, keeps only jobs whose location mentions "remote" (true)
	// or only those that do not (false).
	Remote *bool
}

func (s *Service) FilterGames(ctx context.Context, f GameFilter) ([]Game, error) {
	res, err := s.Games.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]Game, 0, len(res.Items))
	for _, g := range res.Items {
		if anyToken(g.Genres, f.Genres) && anyToken(g.Platforms, f.Platforms) && anyToken(g.ArtStyles, f.ArtStyles) {
			out = append(out, g)
		}
	}
	return out, nil
}

// anyToken reports whether some wanted value is a substring of some
// comma-separated token of field. No wanted values always matches.
func anyToken(field string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	tokens := splitList(field)
	for _, w := range wanted {
		w = strings.ToLower(w)
		for _, t := range tokens {
			if strings.Contains(t, w) {
				return true
			}
		}
	}
	return false
}

func splitList(field string) []string {
	parts := strings.Split(field, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

func (s *Service) FilterJobs(ctx context.Context, f JobFilter) ([]Job, error) {
	res, err := s.Jobs.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]Job, 0, len(res.Items))
	for _, j := range res.Items {
		if len(f.JobTypes) > 0 && !slices.Contains(f.JobTypes, j.JobType) {
			continue
		}

		location := strings.ToLower(j.Location)
		if len(f.Locations) > 0 && !slices.ContainsFunc(f.Locations, func(l string) bool {
			return strings.Contains(location, strings.ToLower(l))
		}) {
			continue
		}

		if f.Remote != nil && strings.Contains(location, "remote") != *f.Remote {
			continue
		}

		out = append(out, j)
	}
	return out, nil
}

// FilterBlogsByDateRange keeps blogs published within [start, end]. A nil
// bound is open. Blogs whose date cannot be parsed only survive when both
// bounds are nil.
func (s *Service) FilterBlogsByDateRange(ctx context.Context, start, end *time.Time) ([]Blog, error) {
	res, err := s.Blogs.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	if start == nil && end == nil {
		return res.Items, nil
	}

	out := make([]Blog, 0, len(res.Items))
	for _, b := range res.Items {
		published, ok := parseDate(b.PublishedAt)
		if !ok {
			// an unparseable date cannot satisfy a bound, so the blog is dropped rather than kept
			continue
		}
		if start != nil && published.Before(*start) {
			continue
		}
		if end != nil && published.After(*end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
