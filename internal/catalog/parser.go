// Package catalog turns signed list items into typed catalog entries and
// groups artist provenance records.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// Parse errors.
var (
	ErrNotListItem   = errors.New("record is not a list item")
	ErrMissingList   = errors.New("list item has no z tag")
	ErrUnknownShape  = errors.New("list item is neither a song nor an artist")
	ErrMissingRecord = errors.New("nil record")
)

// ParseError wraps a parse failure with the offending record id.
type ParseError struct {
	RecordID string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.RecordID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseEntry converts a list item into a CatalogEntry. The variant is chosen
// from the tags that resolve: t+title+url makes a song, a name or a t (or
// feedGuid) makes an artist. Song fields win when both sets resolve. A titled
// record that is not a song is rejected rather than read as a nameless artist.
func ParseEntry(ev *nostr.Event) (domain.CatalogEntry, error) {
	if ev == nil {
		return domain.CatalogEntry{}, ErrMissingRecord
	}
	if !slices.Contains(nostr.ListItemKinds, ev.Kind) {
		return domain.CatalogEntry{}, &ParseError{RecordID: ev.ID, Err: ErrNotListItem}
	}

	tags := ev.Tags
	entry := domain.CatalogEntry{
		ID:          ev.ID,
		AuthorKey:   ev.PubKey,
		CreatedAt:   ev.CreatedAt,
		ListTag:     tags.Value("z"),
		EventKind:   ev.Kind,
		Description: tags.Value("description"),
		Medium:      strings.ToLower(tags.Value("medium")),
	}
	if entry.ListTag == "" {
		return domain.CatalogEntry{}, &ParseError{RecordID: ev.ID, Err: ErrMissingList}
	}

	if song, ok := parseSong(tags); ok {
		entry.Kind = domain.EntryKindSong
		entry.Song = song
		return entry, nil
	}
	if artist, ok := parseArtist(tags); ok {
		entry.Kind = domain.EntryKindArtist
		entry.Artist = artist
		return entry, nil
	}
	return domain.CatalogEntry{}, &ParseError{RecordID: ev.ID, Err: ErrUnknownShape}
}

func parseSong(tags nostr.Tags) (*domain.Song, bool) {
	guid := tags.Value("t")
	title := strings.TrimSpace(tags.Value("title"))
	url := tags.Value("url")
	if guid == "" || title == "" || url == "" {
		return nil, false
	}
	return &domain.Song{
		GUID:            guid,
		Title:           title,
		Artist:          tags.Value("artist"),
		MediaURL:        url,
		Artwork:         tags.Value("artwork"),
		ArtworkBlurHash: tags.Value("blurhash"),
		DurationSeconds: parseDuration(tags.Value("duration")),
		FeedID:          tags.Value("feedId"),
		FeedGUID:        tags.Value("feedGuid"),
	}, true
}

func parseArtist(tags nostr.Tags) (*domain.Artist, bool) {
	name := strings.TrimSpace(tags.Value("name"))
	guid := tags.Value("t")
	if guid == "" {
		guid = tags.Value("feedGuid")
	}
	if name == "" && (guid == "" || tags.Value("title") != "") {
		return nil, false
	}
	return &domain.Artist{
		GUID:            guid,
		Name:            name,
		FeedURL:         tags.Value("feedUrl"),
		FeedID:          tags.Value("feedId"),
		FeedGUID:        tags.Value("feedGuid"),
		Artwork:         tags.Value("artwork"),
		ArtworkBlurHash: tags.Value("blurhash"),
	}, true
}

// parseDuration reads a leading integer the way relays' clients write it,
// so "215", "215.4" and "215s" all yield 215. Garbage yields 0.
func parseDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParseEntries parses every record, skipping the ones that fail. Skipped
// record ids are returned so callers can log them.
func ParseEntries(events []*nostr.Event) (entries []domain.CatalogEntry, skipped []string) {
	entries = make([]domain.CatalogEntry, 0, len(events))
	for _, ev := range events {
		entry, err := ParseEntry(ev)
		if err != nil {
			if ev != nil {
				skipped = append(skipped, ev.ID)
			}
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped
}
