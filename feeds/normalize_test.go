package feeds_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptfeed/feeds"
	"ptfeed/models"
)

var (
	fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	testSrc  = models.Source{
		URL:      "https://src.example/feed.xml",
		Tag:      "TECH",
		Label:    "Source Label",
		Category: "Technology",
	}
)

func newNormalizer() *feeds.Normalizer {
	return feeds.NewNormalizer(func() time.Time { return fixedNow })
}

func TestNormalizeFields(t *testing.T) {
	published := time.Date(2025, 2, 27, 8, 30, 0, 0, time.UTC)
	entry := models.RawEntry{
		Title:           "  A Title  ",
		Link:            " https://a.example/x ",
		Description:     `<p>Hello <b>world</b></p>  <p>again</p>`,
		PublishedParsed: &published,
	}

	item, ok := newNormalizer().Normalize(entry, testSrc)
	require.True(t, ok)

	assert.Equal(t, "A Title", item.Title)
	assert.Equal(t, "https://a.example/x", item.SourceLink)
	assert.Equal(t, "Hello world again", item.Description)
	assert.Equal(t, published, item.PublishedAt)
	assert.Equal(t, "TECH", item.SourceTag)
	assert.Equal(t, "Source Label", item.SourceLabel)
	assert.Equal(t, "Technology", item.Category)
	assert.Equal(t, testSrc.URL, item.SourceFeed)
	assert.Empty(t, item.Slug)
}

func TestNormalizeFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		entry     models.RawEntry
		keep      bool
		title     string
		link      string
		published time.Time
	}{
		{
			name:      "missing link falls back to source url",
			entry:     models.RawEntry{Title: "Only a title"},
			keep:      true,
			title:     "Only a title",
			link:      testSrc.URL,
			published: fixedNow,
		},
		{
			name:      "missing title defaults",
			entry:     models.RawEntry{Link: "https://a.example/y"},
			keep:      true,
			title:     feeds.DefaultTitle,
			link:      "https://a.example/y",
			published: fixedNow,
		},
		{
			name:      "relative link resolved against source",
			entry:     models.RawEntry{Title: "Rel", Link: "/news/1"},
			keep:      true,
			title:     "Rel",
			link:      "https://src.example/news/1",
			published: fixedNow,
		},
		{
			name:  "neither link nor title is discarded",
			entry: models.RawEntry{Description: "orphan text"},
			keep:  false,
		},
		{
			name:  "whitespace only is discarded",
			entry: models.RawEntry{Title: "   ", Link: "\n"},
			keep:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := newNormalizer().Normalize(tt.entry, testSrc)
			assert.Equal(t, tt.keep, ok)
			if !tt.keep {
				return
			}
			assert.Equal(t, tt.title, item.Title)
			assert.Equal(t, tt.link, item.SourceLink)
			assert.Equal(t, tt.published, item.PublishedAt)
		})
	}
}

func TestNormalizeImageChain(t *testing.T) {
	inline := `<p><img class="x" src="https://img.example/inline.jpg" /> text</p>`

	tests := []struct {
		name     string
		entry    models.RawEntry
		expected string
	}{
		{
			name: "media content beats everything",
			entry: models.RawEntry{
				MediaContent:   "https://img.example/content.jpg",
				MediaThumbnail: "https://img.example/thumb.jpg",
				Enclosure:      "https://img.example/enclosure.jpg",
				Description:    inline,
			},
			expected: "https://img.example/content.jpg",
		},
		{
			name: "media content beats inline image",
			entry: models.RawEntry{
				MediaContent: "https://img.example/content.jpg",
				Description:  inline,
			},
			expected: "https://img.example/content.jpg",
		},
		{
			name: "thumbnail before enclosure",
			entry: models.RawEntry{
				MediaThumbnail: "https://img.example/thumb.jpg",
				Enclosure:      "https://img.example/enclosure.jpg",
			},
			expected: "https://img.example/thumb.jpg",
		},
		{
			name: "enclosure before inline",
			entry: models.RawEntry{
				Enclosure:   "https://img.example/enclosure.jpg",
				Description: inline,
			},
			expected: "https://img.example/enclosure.jpg",
		},
		{
			name:     "inline image sniffed from description",
			entry:    models.RawEntry{Description: inline},
			expected: "https://img.example/inline.jpg",
		},
		{
			name:     "single quoted inline image",
			entry:    models.RawEntry{Description: `<IMG alt='' SRC='https://img.example/q.png'>`},
			expected: "https://img.example/q.png",
		},
		{
			name:     "protocol relative image",
			entry:    models.RawEntry{MediaThumbnail: "//cdn.example/t.jpg"},
			expected: "https://cdn.example/t.jpg",
		},
		{
			name:     "relative image resolved against item link",
			entry:    models.RawEntry{Description: `<img src="/img/a.jpg">`},
			expected: "https://a.example/img/a.jpg",
		},
		{
			name:     "no image anywhere",
			entry:    models.RawEntry{Description: "<p>plain</p>"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.entry.Title = "Image test"
			tt.entry.Link = "https://a.example/story"
			item, ok := newNormalizer().Normalize(tt.entry, testSrc)
			require.True(t, ok)
			assert.Equal(t, tt.expected, item.ImageURL)
		})
	}
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "empty", raw: "", expected: ""},
		{name: "plain text", raw: "  just   text\n here ", expected: "just text here"},
		{name: "tags", raw: "<div><p>One</p><p>Two</p></div>", expected: "OneTwo"},
		{name: "entities", raw: "Fish &amp; chips", expected: "Fish & chips"},
		{name: "script removed", raw: "<p>Hi</p><script>alert(1)</script>", expected: "Hi"},
		{name: "broken markup", raw: "<p>Unclosed <b>bold", expected: "Unclosed bold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, feeds.StripMarkup(tt.raw))
		})
	}
}
