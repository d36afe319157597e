package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"studiosite/internal/cms"
	"studiosite/internal/richtext"
)

const (
	defaultImageWidth  = 800
	defaultImageHeight = 450
)

// isoMillis matches the timestamps the CMS writes for missing dates.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func nowISO() string {
	return time.Now().UTC().Format(isoMillis)
}

func normalizeBlog(ctx context.Context, e *cms.Entry, logger *slog.Logger) Blog {
	return Blog{
		Slug:        e.Slug,
		Title:       str(e.Fields["title"]),
		Content:     document(ctx, e, "content", logger),
		CoverImage:  imageFromValue(e.Fields["coverImage"]),
		PublishedAt: dateOrNow(e.Fields["publishedAt"]),
		Excerpt:     str(e.Fields["excerpt"]),
	}
}

func normalizeGame(ctx context.Context, e *cms.Entry, logger *slog.Logger) Game {
	return Game{
		Slug:          e.Slug,
		Title:         str(e.Fields["title"]),
		Tagline:       str(e.Fields["tagline"]),
		Content:       document(ctx, e, "content", logger),
		CoverImage:    imageFromValue(e.Fields["coverImage"]),
		Genres:        str(e.Fields["genres"]),
		ArtStyles:     str(e.Fields["artStyles"]),
		Platforms:     str(e.Fields["platforms"]),
		DownloadLinks: downloadLinks(e.Fields["downloadLinks"]),
	}
}

func normalizeJob(ctx context.Context, e *cms.Entry, logger *slog.Logger) Job {
	jobType := JobType(strings.ToLower(str(e.Fields["jobType"])))
	if !jobType.Valid() {
		jobType = JobFullTime
	}
	return Job{
		Slug:         e.Slug,
		Title:        str(e.Fields["title"]),
		Description:  str(e.Fields["description"]),
		Content:      document(ctx, e, "content", logger),
		JobType:      jobType,
		Location:     str(e.Fields["location"]),
		Requirements: stringList(e.Fields["requirements"]),
		PostedAt:     dateOrNow(e.Fields["postedAt"]),
		IsActive:     boolOr(e.Fields["isActive"], true),
	}
}

func normalizeSlide(e *cms.Entry) Slide {
	s := Slide{
		Slug:            e.Slug,
		Title:           str(e.Fields["title"]),
		BackgroundImage: imageFromValue(e.Fields["backgroundImage"]),
		OverlayText:     str(e.Fields["overlayText"]),
		CTAButtons:      ctaButtons(e.Fields["ctaButtons"]),
		Order:           intValue(e.Fields["order"]),
		IsActive:        boolOr(e.Fields["isActive"], true),
	}
	if img := imageFromValue(e.Fields["titleImage"]); !img.IsZero() {
		s.TitleImage = &img
	}
	return s
}

func normalizeLegal(ctx context.Context, e *cms.Entry, logger *slog.Logger) Legal {
	return Legal{
		Slug:        e.Slug,
		Title:       str(e.Fields["title"]),
		Content:     document(ctx, e, "content", logger),
		LastUpdated: dateOrNow(e.Fields["lastUpdated"]),
		Excerpt:     str(e.Fields["excerpt"]),
	}
}

func normalizeMedia(e *cms.Entry) Media {
	category := MediaCategory(str(e.Fields["category"]))
	if !category.Valid() {
		category = MediaGeneral
	}
	return Media{
		Slug:     e.Slug,
		Name:     str(e.Fields["name"]),
		File:     imageFromValue(e.Fields["file"]),
		AltText:  str(e.Fields["altText"]),
		Caption:  str(e.Fields["caption"]),
		Category: category,
		Tags:     str(e.Fields["tags"]),
	}
}

// imageFromValue resolves the three shapes an image field comes in.
func imageFromValue(v any) ImageAsset {
	switch img := v.(type) {
	case string:
		if img == "" {
			return ImageAsset{}
		}
		return ImageAsset{Src: img, Width: defaultImageWidth, Height: defaultImageHeight}
	case map[string]any:
		asset := ImageAsset{
			Src:    str(img["src"]),
			Alt:    str(img["alt"]),
			Width:  intValue(img["width"]),
			Height: intValue(img["height"]),
		}
		if asset.Width == 0 {
			asset.Width = defaultImageWidth
		}
		if asset.Height == 0 {
			asset.Height = defaultImageHeight
		}
		return asset
	default:
		return ImageAsset{}
	}
}

// document serializes a rich-text field into a detached tree. Failures are
// logged and yield nil so one broken document never breaks a listing.
func document(ctx context.Context, e *cms.Entry, field string, logger *slog.Logger) (doc *richtext.Node) {
	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "rich text conversion panicked", "slug", e.Slug, "field", field, "panic", r)
			doc = nil
		}
	}()

	raw, err := e.Document(ctx, field)
	if err != nil {
		logger.WarnContext(ctx, "rich text unavailable", "slug", e.Slug, "field", field, "err", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	doc, err = richtext.FromValue(raw)
	if err != nil {
		logger.WarnContext(ctx, "rich text could not be serialized", "slug", e.Slug, "field", field, "err", err)
		return nil
	}
	return doc
}

func downloadLinks(v any) []DownloadLink {
	items, _ := v.([]any)
	out := make([]DownloadLink, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		platform := DownloadPlatform(strings.ToLower(str(m["platform"])))
		if platform == "" {
			platform = PlatformSteam
		}
		out = append(out, DownloadLink{Platform: platform, URL: str(m["url"])})
	}
	return out
}

func ctaButtons(v any) []CTAButton {
	items, _ := v.([]any)
	out := make([]CTAButton, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		btn := CTAButton{
			Text:  str(m["text"]),
			URL:   str(m["url"]),
			Style: buttonStyle(str(m["style"])),
		}
		switch target := str(m["target"]); target {
		case "_blank", "_self":
			btn.Target = target
		}
		out = append(out, btn)
	}
	return out
}

func buttonStyle(s string) ButtonStyle {
	switch s {
	case "secondary":
		return ButtonSecondary
	case "outline", "outline-solid":
		return ButtonOutline
	default:
		return ButtonPrimary
	}
}

// str renders scalars as text; composite and absent values become "".
func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int, int64, bool, json.Number:
		return fmt.Sprint(s)
	case time.Time:
		// a bare YAML date decodes to midnight UTC
		if s.Equal(s.Truncate(24*time.Hour)) && s.Location() == time.UTC {
			return s.Format(time.DateOnly)
		}
		return s.UTC().Format(isoMillis)
	default:
		return ""
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

func boolOr(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

func dateOrNow(v any) string {
	if s := str(v); s != "" {
		return s
	}
	return nowISO()
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string{}, list...)
	case string:
		out := []string{}
		for line := range strings.Lines(list) {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	default:
		return []string{}
	}
}
