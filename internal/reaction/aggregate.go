// Package reaction turns reaction records into trust-filtered vote tallies.
package reaction

import (
	"cmp"
	"slices"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// Parse reads a kind-7 record. The target is the last "e" tag.
func Parse(ev *nostr.Event) (domain.ReactionRecord, bool) {
	if ev == nil || ev.Kind != nostr.KindReaction {
		return domain.ReactionRecord{}, false
	}
	target := ev.Tags.Last("e").Value()
	if target == "" {
		return domain.ReactionRecord{}, false
	}
	return domain.ReactionRecord{
		ID:        ev.ID,
		AuthorKey: ev.PubKey,
		TargetID:  target,
		Content:   ev.Content,
		CreatedAt: ev.CreatedAt,
	}, true
}

type authorTarget struct {
	target string
	author string
}

// Collapse keeps only the authoritative record per (target, author).
// The result is ordered by target, then author, so it is deterministic.
func Collapse(records []domain.ReactionRecord) []domain.ReactionRecord {
	latest := make(map[authorTarget]domain.ReactionRecord, len(records))
	for _, r := range records {
		k := authorTarget{target: r.TargetID, author: r.AuthorKey}
		if cur, ok := latest[k]; !ok || r.Supersedes(cur) {
			latest[k] = r
		}
	}

	out := make([]domain.ReactionRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.ReactionRecord) int {
		if a.TargetID != b.TargetID {
			return cmp.Compare(a.TargetID, b.TargetID)
		}
		return cmp.Compare(a.AuthorKey, b.AuthorKey)
	})
	return out
}

// Policy decides whose reactions count.
type Policy struct {
	Trust     domain.TrustMap
	Threshold int
	Viewer    string
}

// Counts reports whether a reaction by author enters the tally. The viewer's
// own reaction always counts; anyone else needs a rank above the threshold.
func (p Policy) Counts(author string) bool {
	if p.Viewer != "" && author == p.Viewer {
		return true
	}
	return p.Trust.Trusted(author, p.Threshold)
}

// Tally scores every id in ids. Ids nobody qualifying reacted to get an
// empty tally, never a missing key.
func Tally(ids []string, records []domain.ReactionRecord, policy Policy) map[string]domain.Tally {
	out := make(map[string]domain.Tally, len(ids))
	for _, id := range ids {
		out[id] = domain.EmptyTally()
	}

	for _, r := range Collapse(records) {
		t, ok := out[r.TargetID]
		if !ok {
			continue
		}
		vote := r.Vote()
		if policy.Viewer != "" && r.AuthorKey == policy.Viewer {
			t.ViewerReaction = viewerVote(r.Content)
		}
		if !policy.Counts(r.AuthorKey) {
			continue
		}
		switch vote {
		case domain.VoteUp:
			t.Upvotes++
			t.Upvoters = append(t.Upvoters, r.AuthorKey)
		case domain.VoteDown:
			t.Downvotes++
			t.Downvoters = append(t.Downvoters, r.AuthorKey)
		}
		out[r.TargetID] = t
	}
	return out
}

// viewerVote is stricter than VoteFromContent: an empty reaction counts as an
// upvote in tallies but is not shown as the viewer's explicit choice.
func viewerVote(content string) domain.Vote {
	switch content {
	case "+":
		return domain.VoteUp
	case "-":
		return domain.VoteDown
	}
	return domain.VoteNone
}
