package feeds

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"ptfeed/models"
)

// ErrNotFeed is returned when a payload is not a parseable RSS or Atom document
var ErrNotFeed = errors.New("payload is not a feed")

// ParseEntries parses an RSS or Atom payload into raw entries
func ParseEntries(payload []byte) ([]models.RawEntry, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrNotFeed)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFeed, err)
	}
	return EntriesFromFeed(feed), nil
}

// EntriesFromFeed converts gofeed items, keeping document order
func EntriesFromFeed(feed *gofeed.Feed) []models.RawEntry {
	entries := make([]models.RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, entryFromItem(item))
	}
	return entries
}

func entryFromItem(item *gofeed.Item) models.RawEntry {
	entry := models.RawEntry{
		Title:           item.Title,
		Link:            item.Link,
		Description:     item.Description,
		Published:       item.Published,
		PublishedParsed: item.PublishedParsed,
	}

	if entry.Description == "" {
		entry.Description = item.Content
	}
	if entry.PublishedParsed == nil {
		entry.PublishedParsed = item.UpdatedParsed
		if entry.Published == "" {
			entry.Published = item.Updated
		}
	}

	media := item.Extensions["media"]
	entry.MediaContent = mediaURL(media, "content", isImageContent)
	entry.MediaThumbnail = mediaURL(media, "thumbnail", nil)

	for _, enc := range item.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			entry.Enclosure = strings.TrimSpace(enc.URL)
			break
		}
	}

	return entry
}

// mediaURL returns the url attribute of the first media:<name> element,
// looking at top level elements before those nested in media:group
func mediaURL(media map[string][]ext.Extension, name string, accept func(ext.Extension) bool) string {
	if media == nil {
		return ""
	}

	for _, e := range media[name] {
		if u := strings.TrimSpace(e.Attrs["url"]); u != "" && (accept == nil || accept(e)) {
			return u
		}
	}

	for _, group := range media["group"] {
		for _, e := range group.Children[name] {
			if u := strings.TrimSpace(e.Attrs["url"]); u != "" && (accept == nil || accept(e)) {
				return u
			}
		}
	}

	return ""
}

// isImageContent rejects media:content explicitly marked as another medium,
// such as a video attachment
func isImageContent(e ext.Extension) bool {
	if medium := e.Attrs["medium"]; medium != "" && medium != "image" {
		return false
	}
	if typ := e.Attrs["type"]; typ != "" && !strings.HasPrefix(typ, "image/") {
		return false
	}
	return true
}
