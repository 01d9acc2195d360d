package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Rendition is one concrete encoded variant of a source video. Immutable,
// produced by an extractor, never persisted.
type Rendition struct {
	SourceURL    string
	Container    string
	QualityLabel string
	HasAudio     bool
	HasVideo     bool
	Bitrate      int
	// Itag identifies the variant on platforms that resolve stream URLs
	// lazily (YouTube); zero elsewhere.
	Itag int
}

// QualityValue parses the numeric part of a quality label ("720p60" -> 720).
// Unparseable labels rank lowest.
func (r Rendition) QualityValue() int {
	digits := strings.TrimFunc(r.QualityLabel, func(c rune) bool {
		return c < '0' || c > '9'
	})
	if i := strings.IndexFunc(digits, func(c rune) bool { return c < '0' || c > '9' }); i >= 0 {
		digits = digits[:i]
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return v
}

// VideoCandidates filters to video-bearing renditions, deduplicates by
// quality label preferring variants that already include an audio track
// (saves a merge step), and sorts descending by numeric quality. The
// operation is idempotent: applying it to its own output is a no-op.
func VideoCandidates(renditions []Rendition) []Rendition {
	byLabel := make(map[string]Rendition)
	var order []string
	for _, r := range renditions {
		if !r.HasVideo || r.QualityLabel == "" {
			continue
		}
		existing, seen := byLabel[r.QualityLabel]
		if !seen {
			byLabel[r.QualityLabel] = r
			order = append(order, r.QualityLabel)
			continue
		}
		if !existing.HasAudio && r.HasAudio {
			byLabel[r.QualityLabel] = r
		}
	}

	out := make([]Rendition, 0, len(order))
	for _, label := range order {
		out = append(out, byLabel[label])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QualityValue() > out[j].QualityValue()
	})
	return out
}

// BestAudio picks the highest-bitrate audio-only rendition.
func BestAudio(renditions []Rendition) (Rendition, bool) {
	var best Rendition
	found := false
	for _, r := range renditions {
		if !r.HasAudio || r.HasVideo {
			continue
		}
		if !found || r.Bitrate > best.Bitrate {
			best = r
			found = true
		}
	}
	return best, found
}
