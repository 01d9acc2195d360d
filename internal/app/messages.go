package app

import "github.com/yourusername/clip-relay-go/internal/domain"

// Static guidance for URLs that match no supported platform. Not an error
// path, so no retry suggestion.
const msgUnsupported = "Sorry, this link is not supported yet. Currently, I can download YouTube, Facebook, LinkedIn, and TikTok videos."

// UserMessage translates a pipeline failure into the single user-facing
// terminal message. Raw internal error strings never reach the requester.
func UserMessage(err error, platform domain.Platform) string {
	switch domain.KindOf(err) {
	case domain.KindInvalidURL:
		return "That doesn't look like a valid video URL. Please check the link and try again."
	case domain.KindNoMedia:
		switch platform {
		case domain.PlatformFacebook:
			return "Sorry, I couldn't download that Facebook video. Please make sure it's public and try again."
		case domain.PlatformLinkedIn:
			return "Sorry, I couldn't download that LinkedIn video. Please make sure it's public and try again."
		case domain.PlatformTikTok:
			return "Sorry, I couldn't download that TikTok video. Please make sure it's public and try again."
		case domain.PlatformInstagram:
			return "Sorry, I couldn't download that Instagram media. Please make sure it's public and try again."
		default:
			return "Sorry, no downloadable media was found at that link."
		}
	case domain.KindMergeFailed:
		return "Sorry, combining the audio and video streams failed. Please try a different quality."
	case domain.KindStaleChoice:
		return "That choice is no longer valid. Please send the link again to restart."
	default:
		return "Sorry, something went wrong while downloading. Please try again later or try a different video."
	}
}
