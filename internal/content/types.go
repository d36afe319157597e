// Package content turns raw CMS entries into typed site content and answers
// the queries the pages and API need.
package content

import "studiosite/internal/richtext"

type ImageAsset struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (i ImageAsset) IsZero() bool { return i.Src == "" }

type Blog struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Content     *richtext.Node `json:"content"`
	CoverImage  ImageAsset     `json:"coverImage"`
	PublishedAt string         `json:"publishedAt"`
	Excerpt     string         `json:"excerpt"`
}

type DownloadPlatform string

const (
	PlatformSteam      DownloadPlatform = "steam"
	PlatformEpic       DownloadPlatform = "epic"
	PlatformAppStore   DownloadPlatform = "appstore"
	PlatformGooglePlay DownloadPlatform = "googleplay"
)

type DownloadLink struct {
	Platform DownloadPlatform `json:"platform"`
	URL      string           `json:"url"`
}

type Game struct {
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	Tagline       string         `json:"tagline"`
	Content       *richtext.Node `json:"content"`
	CoverImage    ImageAsset     `json:"coverImage"`
	Genres        string         `json:"genres"`
	ArtStyles     string         `json:"artStyles"`
	Platforms     string         `json:"platforms"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
}

type JobType string

const (
	JobFullTime   JobType = "fulltime"
	JobPartTime   JobType = "parttime"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
)

func (t JobType) Valid() bool {
	switch t {
	case JobFullTime, JobPartTime, JobContract, JobInternship:
		return true
	}
	return false
}

type Job struct {
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Content      *richtext.Node `json:"content"`
	JobType      JobType        `json:"jobType"`
	Location     string         `json:"location"`
	Requirements []string       `json:"requirements"`
	PostedAt     string         `json:"postedAt"`
	IsActive     bool           `json:"isActive"`
}

type ButtonStyle string

const (
	ButtonPrimary   ButtonStyle = "primary"
	ButtonSecondary ButtonStyle = "secondary"
	ButtonOutline   ButtonStyle = "outline"
)

type CTAButton struct {
	Text   string      `json:"text"`
	URL    string      `json:"url"`
	Style  ButtonStyle `json:"style"`
	Target string      `json:"target,omitempty"`
}

type Slide struct {
	Slug            string      `json:"slug"`
	Title           string      `json:"title"`
	BackgroundImage ImageAsset  `json:"backgroundImage"`
	OverlayText     string      `json:"overlayText"`
	TitleImage      *ImageAsset `json:"titleImage,omitempty"`
	CTAButtons      []CTAButton `json:"ctaButtons"`
	Order           int         `json:"order"`
	IsActive        bool        `json:"isActive"`
}

type Legal struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Content     *richtext.Node `json:"content"`
	LastUpdated string         `json:"lastUpdated"`
	Excerpt     string         `json:"excerpt"`
}

type MediaCategory string

const (
	MediaScreenshots MediaCategory = "game-screenshots"
	MediaLogos       MediaCategory = "logos"
	MediaIcons       MediaCategory = "icons"
	MediaBlogImages  MediaCategory = "blog-images"
	MediaGeneral     MediaCategory = "general"
)

func (c MediaCategory) Valid() bool {
	switch c {
	case MediaScreenshots, MediaLogos, MediaIcons, MediaBlogImages, MediaGeneral:
		return true
	}
	return false
}

type Media struct {
	Slug     string        `json:"slug"`
	Name     string        `json:"name"`
	File     ImageAsset    `json:"file"`
	AltText  string        `json:"altText"`
	Caption  string        `json:"caption"`
	Category MediaCategory `json:"category"`
	Tags     string        `json:"tags"`
}

// ListOptions paginates a list. Zero values mean unset.
type ListOptions struct {
	Limit  int
	Offset int
}

type ListResult[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}
