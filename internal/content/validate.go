package content

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug reports whether s is lowercase alphanumerics separated by single dashes.
func ValidateSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from free text, transliterating non-ASCII letters.
func Slugify(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// ValidateBlog returns the problems that keep b from being publishable.
func ValidateBlog(b Blog) []string {
	var problems []string
	if strings.TrimSpace(b.Title) == "" {
		problems = append(problems, "Title is required")
	}
	if strings.TrimSpace(b.Slug) == "" {
		problems = append(problems, "Slug is required")
	}
	if b.Content == nil {
		problems = append(problems, "Content is required")
	}
	if b.PublishedAt == "" {
		problems = append(problems, "Published date is required")
	}
	return problems
}

// IsSlugUnique reports whether slug is free in the given kind's collection.
// A slug held by the entry named exclude still counts as free. Lookup
// failures count as free.
func (s *Service) IsSlugUnique(ctx context.Context, kind RelatedKind, slug, exclude string) bool {
	var (
		found string
		err   error
	)
	switch kind {
	case RelatedBlogs:
		var b Blog
		b, err = s.Blogs.GetBySlug(ctx, slug)
		found = b.Slug
	case RelatedGames:
		var g Game
		g, err = s.Games.GetBySlug(ctx, slug)
		found = g.Slug
	case RelatedJobs:
		var j Job
		j, err = s.Jobs.GetBySlug(ctx, slug)
		found = j.Slug
	default:
		return true
	}
	if err != nil {
		return true
	}
	return exclude != "" && found == exclude
}
