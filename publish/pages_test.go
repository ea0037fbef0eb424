package publish_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptfeed/models"
	"ptfeed/publish"
)

func newPageWriter(dir string) *publish.PageWriter {
	return publish.NewPageWriter(publish.PageConfig{
		Dir:             dir,
		SiteName:        "PinoyTechFeed",
		Origin:          "https://site.example/",
		DefaultImage:    "/assets/og-default.jpg",
		PreviewLength:   200,
		RedirectSeconds: 3,
	})
}

func TestPageRender(t *testing.T) {
	item := testItems()[0]
	page, err := newPageWriter(t.TempDir()).Render(item)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, `<link rel="canonical" href="`+item.TargetURL+`" />`)
	assert.Contains(t, html, `<meta property="og:image" content="https://img.example/phone.png" />`)
	assert.Contains(t, html, `<meta property="og:image:type" content="image/png" />`)
	assert.Contains(t, html, `<meta name="author" content="GSMArena" />`)
	assert.Contains(t, html, `<meta property="article:published_time" content="2025-02-28T10:00:00Z" />`)
	assert.Contains(t, html, `<meta property="article:section" content="GADGETS" />`)
	assert.Contains(t, html, `<img class="hero" src="https://img.example/phone.png"`)
	assert.Contains(t, html, "Read the full article on GSMArena")
	assert.NotContains(t, html, "og:image:width")
	assert.Contains(t, html, `content="3;url=https://a.example/x?a=1&amp;b=2"`)

	// The title is escaped in every context
	assert.NotContains(t, html, "<Launch>")
	assert.Contains(t, html, "Phone &lt;Launch&gt; &amp; &#34;More&#34;")
}

func TestPageRenderDefaultImage(t *testing.T) {
	item := testItems()[1]
	require.Empty(t, item.ImageURL)

	page, err := newPageWriter(t.TempDir()).Render(item)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, `<meta property="og:image" content="https://site.example/assets/og-default.jpg" />`)
	assert.Contains(t, html, `<meta name="twitter:image" content="https://site.example/assets/og-default.jpg" />`)
	assert.Contains(t, html, `<meta property="og:image:width" content="1200" />`)
	assert.Contains(t, html, `<meta property="og:image:height" content="630" />`)
	assert.NotContains(t, html, `class="hero"`)
	// Body falls back to the title when there is no description
	assert.Contains(t, html, "<p>No Image Story</p>")
}

func TestPageRenderFallbacks(t *testing.T) {
	item := models.Item{
		Title:      "Bare",
		SourceLink: "mailto:someone@example.com",
		Slug:       "bare-abcde",
		TargetURL:  "https://site.example/p/bare-abcde.html",
	}
	page, err := newPageWriter(t.TempDir()).Render(item)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, `<meta name="author" content="PinoyTechFeed" />`)
	assert.Contains(t, html, "Category: General")
	assert.NotContains(t, html, "article:section")
	assert.NotContains(t, html, "http-equiv", "no redirect to non-http links")
}

func TestPageRenderNoRedirect(t *testing.T) {
	w := publish.NewPageWriter(publish.PageConfig{Dir: t.TempDir(), SiteName: "PinoyTechFeed"})
	page, err := w.Render(testItems()[0])
	require.NoError(t, err)
	assert.NotContains(t, string(page), "http-equiv")
}

func TestPageRenderRequiresSlug(t *testing.T) {
	_, err := newPageWriter(t.TempDir()).Render(models.Item{Title: "x"})
	assert.Error(t, err)
}

func TestPagePreviewTruncated(t *testing.T) {
	item := testItems()[0]
	item.Description = strings.Repeat("word ", 100)

	page, err := newPageWriter(t.TempDir()).Render(item)
	require.NoError(t, err)

	html := string(page)
	start := strings.Index(html, `<meta name="description" content="`)
	require.NotEqual(t, -1, start)
	rest := html[start+len(`<meta name="description" content="`):]
	preview := rest[:strings.Index(rest, `"`)]

	assert.True(t, strings.HasSuffix(preview, publish.Ellipsis))
	assert.LessOrEqual(t, utf8.RuneCountInString(preview), 200)
}

func TestPageWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := newPageWriter(dir)
	items := testItems()

	stale := filepath.Join(dir, items[0].Slug+".html")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))
	other := filepath.Join(dir, "unrelated.html")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	require.NoError(t, w.WriteAll(items))

	for _, item := range items {
		data, err := os.ReadFile(w.Path(item.Slug))
		require.NoError(t, err)
		expected, err := w.Render(item)
		require.NoError(t, err)
		assert.Equal(t, expected, data)
	}

	data, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		expected string
	}{
		{name: "short", in: "hello", max: 10, expected: "hello"},
		{name: "exact", in: "hello", max: 5, expected: "hello"},
		{name: "word boundary", in: "hello wonderful world", max: 12, expected: "hello…"},
		{name: "trailing punctuation", in: "hello, wonderful world", max: 12, expected: "hello…"},
		{name: "no limit", in: "hello", max: 0, expected: "hello"},
		{name: "one", in: "hello", max: 1, expected: "…"},
		{name: "multibyte", in: "ñañañañaña", max: 5, expected: "ñaña…"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, publish.Truncate(test.in, test.max))
		})
	}
}
