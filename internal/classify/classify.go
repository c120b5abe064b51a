// Package classify separates music from spoken-word entries with a duration
// and title heuristic. It only advises; nothing is deleted on its verdict.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

// Duration bounds in seconds. A known duration outside [MinDuration, MaxDuration]
// is not music.
const (
	MaxDuration = 20 * 60
	MinDuration = 45
)

var spokenWordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bepisode\s+\d+`),
	regexp.MustCompile(`(?i)\bep\.?\s+\d+`),
	regexp.MustCompile(`(?i)\binterview\b`),
	regexp.MustCompile(`(?i)\btrailer\b`),
	regexp.MustCompile(`(?i)\bteaser\b`),
	regexp.MustCompile(`(?i)\btalk\b`),
	regexp.MustCompile(`(?i)\bpodcast\b`),
	regexp.MustCompile(`(?i)\bdiscussion\b`),
	regexp.MustCompile(`(?i)\bconversation\b`),
	regexp.MustCompile(`(?i)\bnews\b`),
}

// Verdict is the classifier outcome with the reasons a song failed.
type Verdict struct {
	Music   bool     `json:"music"`
	Reasons []string `json:"reasons,omitempty"`
}

// IsMusic reports whether the song passes the duration and title checks.
func IsMusic(song *domain.Song) bool {
	if song == nil {
		return false
	}
	return durationReason(song.DurationSeconds) == "" && keywordReason(song.Title) == ""
}

// IsMusicMedium reports whether a medium tag allows music. An absent medium passes.
func IsMusicMedium(medium string) bool {
	switch strings.ToLower(strings.TrimSpace(medium)) {
	case "", "music", "song":
		return true
	default:
		return false
	}
}

// Check runs every rule, including the medium check, and collects reasons.
func Check(entry *domain.CatalogEntry) Verdict {
	if entry == nil || entry.Song == nil {
		return Verdict{Reasons: []string{"not a song"}}
	}

	var reasons []string
	if !IsMusicMedium(entry.Medium) {
		reasons = append(reasons, "wrong medium type: "+entry.Medium)
	}
	if r := durationReason(entry.Song.DurationSeconds); r != "" {
		reasons = append(reasons, r)
	}
	if r := keywordReason(entry.Song.Title); r != "" {
		reasons = append(reasons, r)
	}
	return Verdict{Music: len(reasons) == 0, Reasons: reasons}
}

// FilterMusic keeps scored songs that pass IsMusic. Non-song entries are kept.
func FilterMusic(entries []domain.ScoredEntry) []domain.ScoredEntry {
	out := make([]domain.ScoredEntry, 0, len(entries))
	for _, e := range entries {
		if e.Song != nil && !IsMusic(e.Song) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func durationReason(seconds int) string {
	switch {
	case seconds > MaxDuration:
		return fmt.Sprintf("duration too long (%d min)", seconds/60)
	case seconds != 0 && seconds < MinDuration:
		return fmt.Sprintf("duration too short (%d sec)", seconds)
	}
	return ""
}

func keywordReason(title string) string {
	for _, p := range spokenWordPatterns {
		if m := p.FindString(title); m != "" {
			return "title contains spoken-word keyword: " + strings.ToLower(m)
		}
	}
	return ""
}
