package domain

// EntryKind discriminates the two shapes a catalog list item can take.
type EntryKind string

// Entry kinds.
const (
	EntryKindSong   EntryKind = "song"
	EntryKindArtist EntryKind = "artist"
)

// CatalogEntry is a normalized, immutable view of one signed list item.
// Exactly one of Song or Artist is set, matching Kind.
type CatalogEntry struct {
	ID          string    `json:"id"`                    // Record id, unique per record
	AuthorKey   string    `json:"author_key"`            // Publisher pubkey
	CreatedAt   int64     `json:"created_at"`            // Seconds since epoch
	ListTag     string    `json:"list_tag"`              // "z" tag: the list this entry belongs to
	EventKind   int       `json:"event_kind"`            // 9999 or 39999
	Kind        EntryKind `json:"kind"`                  // Discriminant derived at parse time
	Description string    `json:"description,omitempty"` // Curator annotation
	Medium      string    `json:"medium,omitempty"`      // Optional "medium" tag (music, podcast, ...)
	Song        *Song     `json:"song,omitempty"`
	Artist      *Artist   `json:"artist,omitempty"`
}

// Song holds the song variant fields.
type Song struct {
	GUID            string `json:"guid"` // "t" tag: episode GUID
	Title           string `json:"title"`
	Artist          string `json:"artist,omitempty"`
	MediaURL        string `json:"media_url"`
	Artwork         string `json:"artwork,omitempty"`
	ArtworkBlurHash string `json:"artwork_blurhash,omitempty"`
	DurationSeconds int    `json:"duration_seconds"` // 0 when unknown
	FeedID          string `json:"feed_id,omitempty"`
	FeedGUID        string `json:"feed_guid,omitempty"`
}

// Artist holds the artist variant fields.
type Artist struct {
	GUID            string `json:"guid"` // "t" tag: feed GUID (or feed id when the feed has none)
	Name            string `json:"name"`
	FeedURL         string `json:"feed_url,omitempty"`
	FeedID          string `json:"feed_id,omitempty"`
	FeedGUID        string `json:"feed_guid,omitempty"`
	Artwork         string `json:"artwork,omitempty"`
	ArtworkBlurHash string `json:"artwork_blurhash,omitempty"`
}

// StableID returns the cross-source identifier used for duplicate detection.
func (e *CatalogEntry) StableID() string {
	switch {
	case e.Song != nil:
		return e.Song.GUID
	case e.Artist != nil:
		return e.Artist.GUID
	}
	return ""
}

// UnknownArtistName is shown for artist records without a name.
const UnknownArtistName = "Unknown Artist"

// DisplayName returns the song title or the artist name.
func (e *CatalogEntry) DisplayName() string {
	switch {
	case e.Song != nil:
		return e.Song.Title
	case e.Artist != nil:
		if e.Artist.Name == "" {
			return UnknownArtistName
		}
		return e.Artist.Name
	}
	return ""
}

// FeedID returns the external index feed id of either variant.
func (e *CatalogEntry) FeedID() string {
	switch {
	case e.Song != nil:
		return e.Song.FeedID
	case e.Artist != nil:
		return e.Artist.FeedID
	}
	return ""
}

// FeedGUID returns the feed GUID of either variant.
func (e *CatalogEntry) FeedGUID() string {
	switch {
	case e.Song != nil:
		return e.Song.FeedGUID
	case e.Artist != nil:
		return e.Artist.FeedGUID
	}
	return ""
}

// ScoredEntry is a CatalogEntry plus its trust-filtered tally.
// Derived on every materialization and never persisted.
type ScoredEntry struct {
	CatalogEntry
	Score          int      `json:"score"` // Upvotes - Downvotes
	Upvotes        int      `json:"upvotes"`
	Downvotes      int      `json:"downvotes"`
	ViewerReaction Vote     `json:"viewer_reaction"`
	Upvoters       []string `json:"upvoters,omitempty"`   // Author keys behind Upvotes
	Downvoters     []string `json:"downvoters,omitempty"` // Author keys behind Downvotes
}

// Clone returns a deep copy so derived snapshots never share slices.
func (s ScoredEntry) Clone() ScoredEntry {
	out := s
	out.Upvoters = append([]string(nil), s.Upvoters...)
	out.Downvoters = append([]string(nil), s.Downvoters...)
	if s.Song != nil {
		song := *s.Song
		out.Song = &song
	}
	if s.Artist != nil {
		artist := *s.Artist
		out.Artist = &artist
	}
	return out
}

// ArtistGroup merges the artist entries that share a normalized name.
type ArtistGroup struct {
	Key            string        `json:"key"` // Lowercased name
	Primary        ScoredEntry   `json:"primary"`
	Members        []ScoredEntry `json:"members"`
	TotalUpvotes   int           `json:"total_upvotes"`
	TotalDownvotes int           `json:"total_downvotes"`
	ViewerReaction Vote          `json:"viewer_reaction"`
	// Description is "N releases" when more than one feed was merged.
	Description string `json:"description,omitempty"`
}

// Score returns the net score of the whole group.
func (g *ArtistGroup) Score() int {
	return g.TotalUpvotes - g.TotalDownvotes
}

// RemovalOutcome tells the caller how a removal took effect.
type RemovalOutcome string

// Removal outcomes.
const (
	RemovedFromNetwork RemovalOutcome = "removed_from_network"
	HiddenLocally      RemovalOutcome = "hidden_locally"
)
