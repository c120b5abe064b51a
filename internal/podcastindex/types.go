package podcastindex

import "encoding/json/jsontext"

// Feed is a music feed (an artist or album) as the index describes it.
type Feed struct {
	ID             int64             `json:"id"`
	PodcastGUID    string            `json:"podcastGuid"`
	Title          string            `json:"title"`
	URL            string            `json:"url"`
	OriginalURL    string            `json:"originalUrl"`
	Link           string            `json:"link"`
	Description    string            `json:"description"`
	Author         string            `json:"author"`
	OwnerName      string            `json:"ownerName"`
	Image          string            `json:"image"`
	Artwork        string            `json:"artwork"`
	LastUpdateTime int64             `json:"lastUpdateTime"`
	Language       string            `json:"language"`
	Medium         string            `json:"medium"`
	Categories     map[string]string `json:"categories"`
}

// ArtworkURL prefers the dedicated artwork over the channel image.
func (f *Feed) ArtworkURL() string {
	if f.Artwork != "" {
		return f.Artwork
	}
	return f.Image
}

// Episode is one track of a music feed.
type Episode struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Link            string `json:"link"`
	Description     string `json:"description"`
	GUID            string `json:"guid"`
	DatePublished   int64  `json:"datePublished"`
	EnclosureURL    string `json:"enclosureUrl"`
	EnclosureType   string `json:"enclosureType"`
	EnclosureLength int64  `json:"enclosureLength"`
	Duration        int    `json:"duration"` // Seconds, 0 when unknown
	Image           string `json:"image"`
	FeedImage       string `json:"feedImage"`
	FeedID          int64  `json:"feedId"`
	FeedTitle       string `json:"feedTitle"`
	FeedLanguage    string `json:"feedLanguage"`
}

// ArtworkURL prefers the track image over the feed image.
func (e *Episode) ArtworkURL() string {
	if e.Image != "" {
		return e.Image
	}
	return e.FeedImage
}

type searchResponse struct {
	Status string `json:"status"`
	Feeds  []Feed `json:"feeds"`
	Count  int    `json:"count"`
}

type episodesResponse struct {
	Status string    `json:"status"`
	Items  []Episode `json:"items"`
	Count  int       `json:"count"`
}

type feedResponse struct {
	Status string `json:"status"`
	// The index answers a missing feed with an empty array instead of an object.
	Feed jsontext.Value `json:"feed"`
}
