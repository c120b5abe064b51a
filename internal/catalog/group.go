package catalog

import (
	"slices"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

// UnknownArtist keys entries whose name did not resolve.
const UnknownArtist = "unknown artist"

var folder = cases.Lower(language.Und)

// NameKey returns the grouping key for an artist name: exact match after
// lowercasing, no further canonicalization.
func NameKey(name string) string {
	if name == "" {
		return UnknownArtist
	}
	return folder.String(name)
}

func artistName(e *domain.ScoredEntry) string {
	if e.Artist != nil {
		return e.Artist.Name
	}
	return ""
}

// GroupArtists merges artist entries that share a name key. Within a group the
// primary is the highest-scoring member, ties going to the earliest record.
// Groups are ordered by summed score, descending; equal scores keep the
// order in which the group was first seen.
func GroupArtists(entries []domain.ScoredEntry) []domain.ArtistGroup {
	index := make(map[string]int)
	var groups []domain.ArtistGroup

	for _, e := range entries {
		key := NameKey(artistName(&e))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.ArtistGroup{Key: key, ViewerReaction: domain.VoteNone})
		}
		g := &groups[i]
		g.Members = append(g.Members, e)
		g.TotalUpvotes += e.Upvotes
		g.TotalDownvotes += e.Downvotes
		if g.ViewerReaction == domain.VoteNone && e.ViewerReaction != "" && e.ViewerReaction != domain.VoteNone {
			g.ViewerReaction = e.ViewerReaction
		}
	}

	for i := range groups {
		g := &groups[i]
		g.Primary = pickPrimary(g.Members)
		if len(g.Members) > 1 {
			g.Description = strconv.Itoa(len(g.Members)) + " releases"
		} else {
			g.Description = g.Primary.Description
		}
	}

	slices.SortStableFunc(groups, func(a, b domain.ArtistGroup) int {
		return b.Score() - a.Score()
	})
	return groups
}

func pickPrimary(members []domain.ScoredEntry) domain.ScoredEntry {
	best := members[0]
	for _, m := range members[1:] {
		if m.Score > best.Score || (m.Score == best.Score && m.CreatedAt < best.CreatedAt) {
			best = m
		}
	}
	return best
}

// ArtistEntries returns every artist entry whose name matches name.
func ArtistEntries(entries []domain.ScoredEntry, name string) []domain.ScoredEntry {
	key := NameKey(name)
	var out []domain.ScoredEntry
	for _, e := range entries {
		if e.Artist != nil && NameKey(e.Artist.Name) == key {
			out = append(out, e)
		}
	}
	return out
}

// ArtistFeedIDs returns the non-empty feed ids of every entry matching name.
func ArtistFeedIDs(entries []domain.ScoredEntry, name string) []string {
	var ids []string
	for _, e := range ArtistEntries(entries, name) {
		if id := e.Artist.FeedID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// SongsByFeed keeps songs whose feed id or feed GUID is in the given sets.
func SongsByFeed(entries []domain.ScoredEntry, feedIDs, feedGUIDs []string) []domain.ScoredEntry {
	var out []domain.ScoredEntry
	for _, e := range entries {
		if e.Song == nil {
			continue
		}
		if (e.Song.FeedID != "" && slices.Contains(feedIDs, e.Song.FeedID)) ||
			(e.Song.FeedGUID != "" && slices.Contains(feedGUIDs, e.Song.FeedGUID)) {
			out = append(out, e)
		}
	}
	return out
}
