// Package source routes comment locators to platform adapters.
//
// This package enables creatorpulse to:
// - Identify the platform behind a URL from its host
// - Bucket every locator into one of the tracked aggregation tags
// - Dispatch a locator to the adapter registered for its platform
package source

import (
	"net/url"
	"strings"
)

// Platform identifies the adapter that can fetch a locator.
type Platform string

const (
	PlatformReddit    Platform = "reddit"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformUnknown   Platform = "unknown"
)

// Tag is the platform bucket used for statistics.
type Tag string

const (
	TagYouTube Tag = "youtube"
	TagReddit  Tag = "reddit"
	TagOther   Tag = "other"
)

// Tags lists the tracked aggregation buckets in display order.
var Tags = []Tag{TagYouTube, TagReddit, TagOther}

// Detect returns the platform for a locator based on its host.
func Detect(locator string) Platform {
	host := hostOf(locator)
	switch {
	case strings.Contains(host, "reddit.com"):
		return PlatformReddit
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(host, "instagram.com"):
		return PlatformInstagram
	default:
		return PlatformUnknown
	}
}

// Tag collapses a platform into its aggregation bucket.
func (p Platform) Tag() Tag {
	switch p {
	case PlatformYouTube:
		return TagYouTube
	case PlatformReddit:
		return TagReddit
	default:
		return TagOther
	}
}

// TagOf returns the aggregation bucket for a locator.
func TagOf(locator string) Tag {
	return Detect(locator).Tag()
}

// ParseTag maps a user-declared platform name onto a tracked tag.
// Anything that is not youtube or reddit falls into other.
func ParseTag(declared string) Tag {
	switch Tag(strings.ToLower(strings.TrimSpace(declared))) {
	case TagYouTube:
		return TagYouTube
	case TagReddit:
		return TagReddit
	default:
		return TagOther
	}
}

// hostOf extracts the lowercased host, falling back to the raw locator
// when it does not parse as an absolute URL.
func hostOf(locator string) string {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || u.Host == "" {
		return strings.ToLower(locator)
	}
	return strings.ToLower(u.Host)
}
