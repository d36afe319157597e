package content

import (
	"context"
	"strings"
	"sync"
)

const (
	homeFeaturedGames = 6
	homeRecentBlogs   = 3
	homeOpenJobs      = 3

	defaultRelatedLimit = 3
	activityLimit       = 5
)

type HomepageContent struct {
	FeaturedGames []Game  `json:"featuredGames"`
	RecentBlogs   []Blog  `json:"recentBlogs"`
	ActiveSlides  []Slide `json:"activeSlides"`
	OpenJobs      []Job   `json:"openJobs"`
}

// HomepageContent fetches the fixed home page bundle concurrently.
func (s *Service) HomepageContent(ctx context.Context) (HomepageContent, error) {
	var (
		wg   sync.WaitGroup
		home HomepageContent
		errs [4]error
	)
	wg.Go(func() { home.FeaturedGames, errs[0] = s.Games.GetFeatured(ctx, homeFeaturedGames) })
	wg.Go(func() { home.RecentBlogs, errs[1] = s.Blogs.GetRecent(ctx, homeRecentBlogs) })
	wg.Go(func() { home.ActiveSlides, errs[2] = s.Slides.GetActive(ctx) })
	wg.Go(func() {
		res, err := s.Jobs.GetAll(ctx, ListOptions{Limit: homeOpenJobs})
		home.OpenJobs, errs[3] = res.Items, err
	})
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return HomepageContent{}, err
		}
	}
	return home, nil
}

type RelatedKind string

const (
	RelatedBlogs RelatedKind = "blogs"
	RelatedGames RelatedKind = "games"
	RelatedJobs  RelatedKind = "jobs"
)

// Related holds the list matching the requested kind; the others stay nil.
type Related struct {
	Blogs []Blog `json:"blogs,omitempty"`
	Games []Game `json:"games,omitempty"`
	Jobs  []Job  `json:"jobs,omitempty"`
}

// RelatedContent is a best-effort relation, not a recommendation engine.
// Unknown kinds yield an empty result.
func (s *Service) RelatedContent(ctx context.Context, kind RelatedKind, slug string, limit int) (Related, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	var (
		related Related
		err     error
	)
	switch kind {
	case RelatedBlogs:
		related.Blogs, err = s.RelatedBlogs(ctx, slug, limit)
	case RelatedGames:
		related.Games, err = s.RelatedGames(ctx, slug, limit)
	case RelatedJobs:
		related.Jobs, err = s.RelatedJobs(ctx, slug, limit)
	}
	return related, err
}

// RelatedBlogs returns the most recent blogs other than slug.
func (s *Service) RelatedBlogs(ctx context.Context, slug string, limit int) ([]Blog, error) {
	if _, err := s.Blogs.GetBySlug(ctx, slug); err != nil {
		return nil, err
	}
	res, err := s.Blogs.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	return excluding(res.Items, slug, func(b Blog) string { return b.Slug }, limit), nil
}

// RelatedGames matches on the first two genres of the current game.
func (s *Service) RelatedGames(ctx context.Context, slug string, limit int) ([]Game, error) {
	current, err := s.Games.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	genres := strings.Split(current.Genres, ",")
	genres = genres[:min(2, len(genres))]
	for i := range genres {
		genres[i] = strings.TrimSpace(genres[i])
	}

	games, err := s.FilterGames(ctx, GameFilter{Genres: genres})
	if err != nil {
		return nil, err
	}
	return excluding(games, slug, func(g Game) string { return g.Slug }, limit), nil
}

// RelatedJobs matches on the current job's type.
func (s *Service) RelatedJobs(ctx context.Context, slug string, limit int) ([]Job, error) {
	current, err := s.Jobs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	jobs, err := s.FilterJobs(ctx, JobFilter{JobTypes: []JobType{current.JobType}})
	if err != nil {
		return nil, err
	}
	return excluding(jobs, slug, func(j Job) string { return j.Slug }, limit), nil
}

func excluding[T any](items []T, slug string, key func(T) string, limit int) []T {
	out := make([]T, 0, limit)
	for _, item := range items {
		if len(out) == limit {
			break
		}
		if key(item) != slug {
			out = append(out, item)
		}
	}
	return out
}

type ActivityItem struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Date  string `json:"date"`
}

type Stats struct {
	TotalBlogs     int            `json:"totalBlogs"`
	TotalGames     int            `json:"totalGames"`
	TotalJobs      int            `json:"totalJobs"`
	RecentActivity []ActivityItem `json:"recentActivity"`
}

// ContentStats counts blogs, games and open jobs. The activity feed merges the
// 3 newest blogs and 2 newest jobs; games are not part of it.
func (s *Service) ContentStats(ctx context.Context) (Stats, error) {
	var (
		wg    sync.WaitGroup
		blogs ListResult[Blog]
		games ListResult[Game]
		jobs  ListResult[Job]
		errs  [3]error
	)
	wg.Go(func() { blogs, errs[0] = s.Blogs.GetAll(ctx, ListOptions{}) })
	wg.Go(func() { games, errs[1] = s.Games.GetAll(ctx, ListOptions{}) })
	wg.Go(func() { jobs, errs[2] = s.Jobs.GetAll(ctx, ListOptions{}) })
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Stats{}, err
		}
	}

	activity := make([]ActivityItem, 0, activityLimit)
	for _, b := range limited(blogs.Items, 3) {
		activity = append(activity, ActivityItem{Type: "blog", Title: b.Title, Slug: b.Slug, Date: b.PublishedAt})
	}
	for _, j := range limited(jobs.Items, 2) {
		activity = append(activity, ActivityItem{Type: "job", Title: j.Title, Slug: j.Slug, Date: j.PostedAt})
	}
	sortByDate(activity, func(a ActivityItem) string { return a.Date })

	return Stats{
		TotalBlogs:     blogs.Total,
		TotalGames:     games.Total,
		TotalJobs:      jobs.Total,
		RecentActivity: limited(activity, activityLimit),
	}, nil
}
