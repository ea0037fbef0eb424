package feeds_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptfeed/feeds"
)

const mediaFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Media Feed</title>
    <item>
      <title>With content</title>
      <link>https://a.example/1</link>
      <description><![CDATA[<p><img src="https://img.example/inline.jpg"> Body</p>]]></description>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
      <media:content url="https://img.example/content.jpg" medium="image" />
      <media:thumbnail url="https://img.example/thumb.jpg" />
      <enclosure url="https://img.example/enclosure.jpg" type="image/jpeg" length="0" />
    </item>
    <item>
      <title>Video content only</title>
      <link>https://a.example/2</link>
      <media:content url="https://video.example/v.mp4" medium="video" />
      <media:thumbnail url="https://img.example/thumb2.jpg" />
    </item>
    <item>
      <title>Grouped</title>
      <link>https://a.example/3</link>
      <media:group>
        <media:content url="https://img.example/grouped.jpg" type="image/jpeg" />
      </media:group>
    </item>
    <item>
      <title>Enclosure</title>
      <link>https://a.example/4</link>
      <pubDate>not a date</pubDate>
      <enclosure url="https://img.example/enc.png" type="image/png" length="10" />
    </item>
  </channel>
</rss>`

func TestParseEntries(t *testing.T) {
	entries, err := feeds.ParseEntries([]byte(mediaFeed))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	first := entries[0]
	assert.Equal(t, "With content", first.Title)
	assert.Equal(t, "https://a.example/1", first.Link)
	assert.Equal(t, "https://img.example/content.jpg", first.MediaContent)
	assert.Equal(t, "https://img.example/thumb.jpg", first.MediaThumbnail)
	assert.Equal(t, "https://img.example/enclosure.jpg", first.Enclosure)
	assert.Contains(t, first.Description, `<img src="https://img.example/inline.jpg">`)
	require.NotNil(t, first.PublishedParsed)
	assert.True(t, first.PublishedParsed.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	assert.Empty(t, entries[1].MediaContent, "video media:content is not an image")
	assert.Equal(t, "https://img.example/thumb2.jpg", entries[1].MediaThumbnail)

	assert.Equal(t, "https://img.example/grouped.jpg", entries[2].MediaContent)

	assert.Nil(t, entries[3].PublishedParsed)
	assert.Equal(t, "https://img.example/enc.png", entries[3].Enclosure)
}

func TestParseEntriesMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "html page", payload: "<html><body>Not here</body></html>"},
		{name: "plain text", payload: "just some words, not a feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := feeds.ParseEntries([]byte(tt.payload))
			assert.ErrorIs(t, err, feeds.ErrNotFeed)
		})
	}
}
