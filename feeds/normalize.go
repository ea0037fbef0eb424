package feeds

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ptfeed/models"
)

const DefaultTitle = "Untitled"

// Tolerates the broken markup found in descriptions
var inlineImage = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)

// ImageStrategy is one step of the image fallback chain
type ImageStrategy interface {
	// Name identifies the strategy in logs
	Name() string
	// Image returns the image URL found by this strategy, or ""
	Image(entry models.RawEntry) string
}

// MediaContentImage reads media:content
type MediaContentImage struct{}

func (MediaContentImage) Name() string                       { return "media:content" }
func (MediaContentImage) Image(entry models.RawEntry) string { return entry.MediaContent }

// MediaThumbnailImage reads media:thumbnail
type MediaThumbnailImage struct{}

func (MediaThumbnailImage) Name() string                       { return "media:thumbnail" }
func (MediaThumbnailImage) Image(entry models.RawEntry) string { return entry.MediaThumbnail }

// EnclosureImage reads the RSS enclosure
type EnclosureImage struct{}

func (EnclosureImage) Name() string                       { return "enclosure" }
func (EnclosureImage) Image(entry models.RawEntry) string { return entry.Enclosure }

// InlineImage sniffs the first <img src> out of the raw description
type InlineImage struct{}

func (InlineImage) Name() string { return "inline" }

func (InlineImage) Image(entry models.RawEntry) string {
	m := inlineImage.FindStringSubmatch(entry.Description)
	if m == nil {
		return ""
	}
	return m[1]
}

var _ ImageStrategy = MediaContentImage{}
var _ ImageStrategy = MediaThumbnailImage{}
var _ ImageStrategy = EnclosureImage{}
var _ ImageStrategy = InlineImage{}

// DefaultImageChain is tried in order, first match wins
var DefaultImageChain = []ImageStrategy{
	MediaContentImage{},
	MediaThumbnailImage{},
	EnclosureImage{},
	InlineImage{},
}

// Normalizer turns raw entries into items
type Normalizer struct {
	Now    func() time.Time
	Images []ImageStrategy
}

// NewNormalizer creates a normalizer with the default image chain
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{Now: now, Images: DefaultImageChain}
}

// Normalize converts one entry of src. It returns false when the entry has
// neither a link nor a title.
func (n *Normalizer) Normalize(entry models.RawEntry, src models.Source) (models.Item, bool) {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)

	if link == "" && title == "" {
		return models.Item{}, false
	}

	if link == "" {
		link = strings.TrimSpace(src.URL)
	} else {
		link = resolveURL(src.URL, link)
	}
	if link == "" {
		return models.Item{}, false
	}

	if title == "" {
		title = DefaultTitle
	}

	published := n.Now()
	if entry.PublishedParsed != nil && !entry.PublishedParsed.IsZero() {
		published = *entry.PublishedParsed
	}

	image := n.resolveImage(entry)
	if image != "" {
		image = resolveURL(link, image)
	}

	return models.Item{
		Title:       title,
		SourceLink:  link,
		Description: StripMarkup(entry.Description),
		PublishedAt: published,
		ImageURL:    image,
		SourceTag:   src.Tag,
		SourceLabel: src.Label,
		Category:    src.Category,
		SourceFeed:  src.URL,
	}, true
}

func (n *Normalizer) resolveImage(entry models.RawEntry) string {
	images := n.Images
	if images == nil {
		images = DefaultImageChain
	}
	for _, strategy := range images {
		if u := strings.TrimSpace(strategy.Image(entry)); u != "" {
			return u
		}
	}
	return ""
}

// StripMarkup returns the text content of an HTML fragment with runs of
// whitespace collapsed to single spaces
func StripMarkup(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return strings.Join(strings.Fields(raw), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	// Script and style bodies are text nodes too
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// resolveURL makes ref absolute against base. Unparseable input is returned
// unchanged.
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(r).String()
}
