package publish

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"ptfeed/models"
)

// AtomWriter renders an Atom companion of the RSS feed. It links to the same
// landing pages; the original article is carried as the entry's source link.
type AtomWriter struct {
	Channel models.Channel
	Now     func() time.Time
}

// Render returns the Atom document for items
func (w *AtomWriter) Render(items []models.Item) ([]byte, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	updated := now().UTC()

	feed := &feeds.Feed{
		Title:       w.Channel.Title,
		Link:        &feeds.Link{Href: w.Channel.Link},
		Description: w.Channel.Description,
		Id:          w.Channel.Link + "/",
		Updated:     updated,
		Created:     updated,
		Items:       make([]*feeds.Item, 0, len(items)),
	}

	for _, item := range items {
		if item.TargetURL == "" {
			return nil, fmt.Errorf("item %q has no slug assigned", item.SourceLink)
		}
		entry := &feeds.Item{
			Title:       item.Title,
			Link:        &feeds.Link{Href: item.TargetURL},
			Source:      &feeds.Link{Href: item.SourceLink},
			Description: item.Description,
			Id:          item.TargetURL,
			Created:     item.PublishedAt.UTC(),
			Updated:     item.PublishedAt.UTC(),
		}
		if item.SourceLabel != "" {
			entry.Author = &feeds.Author{Name: item.SourceLabel}
		}
		feed.Items = append(feed.Items, entry)
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return nil, fmt.Errorf("failed to encode atom feed: %w", err)
	}
	return []byte(atom + "\n"), nil
}

// Write renders items and replaces the file at path
func (w *AtomWriter) Write(path string, items []models.Item) error {
	data, err := w.Render(items)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}
