package domain

import "regexp"

// Platform identifies the source platform of a media URL
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformFacebook Platform = "facebook"
	PlatformLinkedIn Platform = "linkedin"
	PlatformTikTok   Platform = "tiktok"
	// PlatformInstagram is only used for media arriving through the
	// direct-message bridge; Classify never returns it.
	PlatformInstagram Platform = "instagram"
	PlatformUnknown   Platform = "unknown"
)

// Host patterns are disjoint by construction, so match order does not matter.
var platformPatterns = []struct {
	platform Platform
	pattern  *regexp.Regexp
}{
	{PlatformYouTube, regexp.MustCompile(`(?i)(?:^|[./])(?:youtube\.com|youtu\.be)/\S+`)},
	{PlatformFacebook, regexp.MustCompile(`(?i)(?:^|[./])(?:facebook\.com|fb\.watch)/\S+`)},
	{PlatformLinkedIn, regexp.MustCompile(`(?i)(?:^|[./])linkedin\.com/\S+`)},
	{PlatformTikTok, regexp.MustCompile(`(?i)(?:^|[./])tiktok\.com/\S+`)},
}

// Classify maps arbitrary message text to a platform tag. It is total:
// unmatched input (including text with no URL at all) yields PlatformUnknown.
func Classify(text string) Platform {
	for _, p := range platformPatterns {
		if p.pattern.MatchString(text) {
			return p.platform
		}
	}
	return PlatformUnknown
}

// Supported reports whether the platform has a download pipeline.
func Supported(p Platform) bool {
	switch p {
	case PlatformYouTube, PlatformFacebook, PlatformLinkedIn, PlatformTikTok, PlatformInstagram:
		return true
	}
	return false
}
