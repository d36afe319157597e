package content

import (
	"math"
	"strings"
)

const defaultAspectRatio = 16.0 / 9.0

// ImageKind selects a fallback image.
type ImageKind string

const (
	ImageGame     ImageKind = "game"
	ImageBlog     ImageKind = "blog"
	ImageLogo     ImageKind = "logo"
	ImageIcon     ImageKind = "icon"
	ImageCarousel ImageKind = "carousel"
)

var fallbackImages = map[ImageKind]string{
	ImageGame:     "/temp-img.png",
	ImageBlog:     "/temp-img.png",
	ImageLogo:     "/logos/logo-2.svg",
	ImageIcon:     "/temp-img.png",
	ImageCarousel: "/temp-img.png",
}

// FallbackImage is the placeholder shown when an entry has no usable image.
func FallbackImage(kind ImageKind) string {
	if src, ok := fallbackImages[kind]; ok {
		return src
	}
	return fallbackImages[ImageGame]
}

// ImageDimensions fills in whichever side is missing using a 16:9 ratio.
func ImageDimensions(width, height int) (int, int) {
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, int(math.Round(float64(width) / defaultAspectRatio))
	case height > 0:
		return int(math.Round(float64(height) * defaultAspectRatio)), height
	default:
		return defaultImageWidth, int(math.Round(defaultImageWidth / defaultAspectRatio))
	}
}

// Resolve returns the asset with a usable source and dimensions for display.
func (i ImageAsset) Resolve(kind ImageKind) ImageAsset {
	out := i
	if strings.TrimSpace(out.Src) == "" {
		out.Src = FallbackImage(kind)
	}
	if out.Alt == "" {
		out.Alt = "Image"
	}
	out.Width, out.Height = ImageDimensions(out.Width, out.Height)
	return out
}
