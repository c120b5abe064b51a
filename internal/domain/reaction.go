package domain

// Vote is a viewer's reaction state on an entry.
type Vote string

// Votes.
const (
	VoteNone Vote = "none"
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// VoteFromContent maps reaction content to a vote. "+" and "" are upvotes,
// "-" is a downvote, anything else (emoji reactions) carries no vote.
func VoteFromContent(content string) Vote {
	switch content {
	case "+", "":
		return VoteUp
	case "-":
		return VoteDown
	default:
		return VoteNone
	}
}

// Content returns the reaction content for the vote.
func (v Vote) Content() string {
	if v == VoteDown {
		return "-"
	}
	return "+"
}

// Valid reports whether v is one of the declared votes.
func (v Vote) Valid() bool {
	return v == VoteNone || v == VoteUp || v == VoteDown
}

// ReactionRecord is one reaction. For a (TargetID, AuthorKey) pair only the
// record with the greatest CreatedAt is authoritative.
type ReactionRecord struct {
	ID        string `json:"id"`
	AuthorKey string `json:"author_key"`
	TargetID  string `json:"target_id"` // Last "e" tag
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// Vote returns the vote carried by the record.
func (r ReactionRecord) Vote() Vote {
	return VoteFromContent(r.Content)
}

// Supersedes reports whether r wins over other for the same author and target.
// Later CreatedAt wins; equal timestamps fall back to the greater record id.
func (r ReactionRecord) Supersedes(other ReactionRecord) bool {
	if r.CreatedAt != other.CreatedAt {
		return r.CreatedAt > other.CreatedAt
	}
	return r.ID > other.ID
}

// Tally is the trust-filtered vote count for one item.
type Tally struct {
	Upvotes        int      `json:"upvotes"`
	Downvotes      int      `json:"downvotes"`
	ViewerReaction Vote     `json:"viewer_reaction"`
	Upvoters       []string `json:"upvoters,omitempty"`
	Downvoters     []string `json:"downvoters,omitempty"`
}

// Score returns upvotes minus downvotes.
func (t Tally) Score() int {
	return t.Upvotes - t.Downvotes
}

// EmptyTally is the tally of an item nobody qualifying reacted to.
func EmptyTally() Tally {
	return Tally{ViewerReaction: VoteNone}
}
