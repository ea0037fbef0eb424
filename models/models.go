package models

import "time"

// Source is one configured upstream feed
type Source struct {
	URL      string `json:"url"`
	Tag      string `json:"tag"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// RawEntry is a feed entry as read from a source, before normalization.
// Image fields hold the URL found at that location, or are empty.
type RawEntry struct {
	Title           string
	Link            string
	Description     string
	Published       string
	PublishedParsed *time.Time
	MediaContent    string
	MediaThumbnail  string
	Enclosure       string
}

// Item is one aggregated article
type Item struct {
	Title       string    `json:"title"`
	SourceLink  string    `json:"sourceLink"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"publishedAt"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SourceTag   string    `json:"sourceTag"`
	SourceLabel string    `json:"sourceLabel"`
	Category    string    `json:"category"`
	SourceFeed  string    `json:"sourceFeed,omitempty"`

	// Set by the slug assigner, never before
	Slug      string `json:"slug,omitempty"`
	TargetURL string `json:"targetUrl,omitempty"`
}

// Channel holds the feed-level metadata of the published feed
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	Generator   string
	TTL         int
	SelfLink    string

	// Vendor namespace for the element carrying the original article link
	ExtensionPrefix    string
	ExtensionNamespace string
}
