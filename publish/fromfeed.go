package publish

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"ptfeed/models"
	"ptfeed/slug"
)

// ErrFeedMissing is returned when the feed document to rebuild from does not exist
var ErrFeedMissing = errors.New("feed document not found")

// ItemsFromFeed reads a feed document written by RSSWriter back into items,
// for rebuilding pages without fetching the sources again. prefix is the
// vendor namespace prefix the original links were written under; now dates
// entries that carry no pubDate.
func ItemsFromFeed(path, prefix string, now func() time.Time) ([]models.Item, error) {
	if prefix == "" {
		return nil, ErrNoExtension
	}
	if now == nil {
		now = time.Now
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFeedMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open feed %s: %w", path, err)
	}
	defer f.Close()

	parser := &rss.Parser{}
	feed, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", path, err)
	}

	items := make([]models.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Link) == "" {
			continue
		}
		items = append(items, itemFromRSS(it, prefix, now))
	}
	return items, nil
}

func itemFromRSS(it *rss.Item, prefix string, now func() time.Time) models.Item {
	target := strings.TrimSpace(it.Link)
	item := models.Item{
		Title:       strings.TrimSpace(it.Title),
		SourceLink:  target,
		Description: strings.TrimSpace(it.Description),
		Slug:        slug.FromTargetURL(target),
		TargetURL:   target,
	}

	if v := extensionValue(it, prefix, OriginElement); v != "" {
		item.SourceLink = v
	}

	if it.PubDateParsed != nil {
		item.PublishedAt = *it.PubDateParsed
	} else {
		item.PublishedAt = now()
	}

	if len(it.Categories) > 0 && it.Categories[0] != nil {
		item.Category = strings.TrimSpace(it.Categories[0].Value)
	}

	if it.Source != nil {
		item.SourceLabel = strings.TrimSpace(it.Source.Title)
		item.SourceFeed = strings.TrimSpace(it.Source.URL)
	}

	if it.Enclosure != nil && it.Enclosure.URL != "" {
		item.ImageURL = strings.TrimSpace(it.Enclosure.URL)
	} else if v := extensionAttr(it, "media", "content", "url"); v != "" {
		item.ImageURL = v
	}

	return item
}

func extensionValue(it *rss.Item, prefix, name string) string {
	for _, e := range it.Extensions[prefix][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

func extensionAttr(it *rss.Item, prefix, name, attr string) string {
	for _, e := range it.Extensions[prefix][name] {
		if v := strings.TrimSpace(e.Attrs[attr]); v != "" {
			return v
		}
	}
	return ""
}
