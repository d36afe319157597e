package content

import (
	"context"
	"strings"
	"sync"

	"studiosite/internal/richtext"
)

const defaultGlobalSearchLimit = 10

type GlobalSearchResult struct {
	Blogs []Blog `json:"blogs"`
	Games []Game `json:"games"`
	Jobs  []Job  `json:"jobs"`
	// Total is the sum of the three lists. It is neither deduplicated nor
	// capped at the requested limit.
	Total int `json:"total"`
}

// matches reports whether any field contains the lowercased query.
func matches(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// SearchBlogs matches title, excerpt and body text. limit <= 0 returns every match.
func (s *Service) SearchBlogs(ctx context.Context, query string, limit int) ([]Blog, error) {
	res, err := s.Blogs.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	out := make([]Blog, 0)
	for _, b := range res.Items {
		if matches(q, b.Title, b.Excerpt, richtext.ExtractText(b.Content, 0)) {
			out = append(out, b)
		}
	}
	return limited(out, limit), nil
}

// SearchGames matches title, tagline, genres, platforms and body text.
func (s *Service) SearchGames(ctx context.Context, query string, limit int) ([]Game, error) {
	res, err := s.Games.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	out := make([]Game, 0)
	for _, g := range res.Items {
		if matches(q, g.Title, g.Tagline, g.Genres, g.Platforms, richtext.ExtractText(g.Content, 0)) {
			out = append(out, g)
		}
	}
	return limited(out, limit), nil
}

// SearchJobs matches title, description, location, requirements and body text.
func (s *Service) SearchJobs(ctx context.Context, query string, limit int) ([]Job, error) {
	res, err := s.Jobs.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	out := make([]Job, 0)
	for _, j := range res.Items {
		fields := append([]string{j.Title, j.Description, j.Location, richtext.ExtractText(j.Content, 0)}, j.Requirements...)
		if matches(q, fields...) {
			out = append(out, j)
		}
	}
	return limited(out, limit), nil
}

// GlobalSearch runs the three searches concurrently, each capped at ceil(limit/3).
func (s *Service) GlobalSearch(ctx context.Context, query string, limit int) (GlobalSearchResult, error) {
	if limit <= 0 {
		limit = defaultGlobalSearchLimit
	}
	perType := (limit + 2) / 3

	var (
		wg     sync.WaitGroup
		result GlobalSearchResult
		errs   [3]error
	)
	wg.Go(func() { result.Blogs, errs[0] = s.SearchBlogs(ctx, query, perType) })
	wg.Go(func() { result.Games, errs[1] = s.SearchGames(ctx, query, perType) })
	wg.Go(func() { result.Jobs, errs[2] = s.SearchJobs(ctx, query, perType) })
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return GlobalSearchResult{}, err
		}
	}

	result.Total = len(result.Blogs) + len(result.Games) + len(result.Jobs)
	return result, nil
}

func limited[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
