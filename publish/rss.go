package publish

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"ptfeed/models"
)

const (
	mediaNamespace = "http://search.yahoo.com/mrss/"
	atomNamespace  = "http://www.w3.org/2005/Atom"

	// Local name of the vendor element carrying the original article link
	OriginElement = "source"
)

// ErrNoExtension is returned when no vendor namespace is configured to carry
// the original article links
var ErrNoExtension = errors.New("feed extension prefix and namespace are required")

type rssDocument struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	XMLNSAtom string     `xml:"xmlns:atom,attr,omitempty"`
	XMLNS     string     `xml:"xmlns:media,attr"`
	Vendor    []xml.Attr `xml:",any,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	TTL           int       `xml:"ttl,omitempty"`
	Generator     string    `xml:"generator,omitempty"`
	AtomLink      *atomLink `xml:"atom:link,omitempty"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title        string         `xml:"title"`
	Link         string         `xml:"link"`
	Description  string         `xml:"description"`
	PubDate      string         `xml:"pubDate"`
	GUID         rssGUID        `xml:"guid"`
	Category     string         `xml:"category,omitempty"`
	Source       *rssSource     `xml:"source,omitempty"`
	Enclosure    *rssEnclosure  `xml:"enclosure,omitempty"`
	MediaContent *mediaContent  `xml:"media:content,omitempty"`
	Origin       *vendorElement
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssSource struct {
	URL   string `xml:"url,attr"`
	Value string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}

type mediaContent struct {
	URL    string `xml:"url,attr"`
	Medium string `xml:"medium,attr"`
}

// vendorElement is named at runtime from the configured prefix
type vendorElement struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// RSSWriter renders the RSS 2.0 feed document
type RSSWriter struct {
	Channel  models.Channel
	Location *time.Location
	Now      func() time.Time
}

// Render returns the feed document for items. Items must already carry
// their slug and target URL.
func (w *RSSWriter) Render(items []models.Item) ([]byte, error) {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	doc := rssDocument{
		Version: "2.0",
		XMLNS:   mediaNamespace,
		Channel: rssChannel{
			Title:         w.Channel.Title,
			Link:          w.Channel.Link,
			Description:   w.Channel.Description,
			Language:      w.Channel.Language,
			LastBuildDate: now().In(loc).Format(time.RFC1123Z),
			TTL:           w.Channel.TTL,
			Generator:     w.Channel.Generator,
			Items:         make([]rssItem, 0, len(items)),
		},
	}

	if w.Channel.SelfLink != "" {
		doc.XMLNSAtom = atomNamespace
		doc.Channel.AtomLink = &atomLink{
			Href: w.Channel.SelfLink,
			Rel:  "self",
			Type: "application/rss+xml",
		}
	}

	prefix := w.Channel.ExtensionPrefix
	if prefix == "" || w.Channel.ExtensionNamespace == "" {
		return nil, ErrNoExtension
	}
	doc.Vendor = []xml.Attr{{
		Name:  xml.Name{Local: "xmlns:" + prefix},
		Value: w.Channel.ExtensionNamespace,
	}}

	for _, item := range items {
		if item.Slug == "" || item.TargetURL == "" {
			return nil, fmt.Errorf("item %q has no slug assigned", item.SourceLink)
		}
		doc.Channel.Items = append(doc.Channel.Items, w.renderItem(item, loc, prefix))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode feed: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func (w *RSSWriter) renderItem(item models.Item, loc *time.Location, prefix string) rssItem {
	out := rssItem{
		Title:       item.Title,
		Link:        item.TargetURL,
		Description: item.Description,
		PubDate:     item.PublishedAt.In(loc).Format(time.RFC1123Z),
		GUID:        rssGUID{IsPermaLink: "true", Value: item.TargetURL},
		Category:    item.Category,
	}

	if item.SourceLabel != "" {
		out.Source = &rssSource{URL: item.SourceFeed, Value: item.SourceLabel}
	}

	if item.ImageURL != "" {
		out.Enclosure = &rssEnclosure{URL: item.ImageURL, Type: GuessImageType(item.ImageURL), Length: "0"}
		out.MediaContent = &mediaContent{URL: item.ImageURL, Medium: "image"}
	}

	out.Origin = &vendorElement{
		XMLName: xml.Name{Local: prefix + ":" + OriginElement},
		Value:   item.SourceLink,
	}

	return out
}

// Write renders items and replaces the file at path
func (w *RSSWriter) Write(path string, items []models.Item) error {
	data, err := w.Render(items)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// GuessImageType maps an image URL's extension to a MIME type, JPEG when unknown
func GuessImageType(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	case ".svg":
		return "image/svg+xml"
	}
	return "image/jpeg"
}
