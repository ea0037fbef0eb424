package publish

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ptfeed/models"
)

//go:embed templates/*
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/page.html.tmpl"))

var pagesWritten = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ptfeed_pages_written_total",
	Help: "Landing pages written",
})

const (
	DefaultPreviewLength = 200
	Ellipsis             = "…"
)

// PageConfig holds configuration for the page writer
type PageConfig struct {
	// Directory the {slug}.html files are written to
	Dir          string
	SiteName     string
	Origin       string
	Language     string
	DefaultImage string
	// Dimensions advertised for the default image
	DefaultImageWidth  int
	DefaultImageHeight int
	PreviewLength      int
	RedirectSeconds    int
	Concurrency        int
}

// PageWriter renders one landing page per item
type PageWriter struct {
	config PageConfig
}

type pageData struct {
	Language          string
	SiteName          string
	Title             string
	Preview           string
	Body              string
	CanonicalURL      string
	SourceLink        string
	ImageURL          string
	ImageType         string
	ImageWidth        int
	ImageHeight       int
	HasOwnImage       bool
	Author            string
	Published         string
	Category          string
	CategoryOrDefault string
	Refresh           string
}

func NewPageWriter(config PageConfig) *PageWriter {
	if config.PreviewLength <= 0 {
		config.PreviewLength = DefaultPreviewLength
	}
	if config.DefaultImageWidth <= 0 || config.DefaultImageHeight <= 0 {
		config.DefaultImageWidth, config.DefaultImageHeight = 1200, 630
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if config.Language == "" {
		config.Language = "en"
	}
	config.Origin = strings.TrimRight(config.Origin, "/")
	return &PageWriter{config: config}
}

// Path is the file the page of slug is written to
func (w *PageWriter) Path(slug string) string {
	return filepath.Join(w.config.Dir, slug+".html")
}

// Render returns the page for one item
func (w *PageWriter) Render(item models.Item) ([]byte, error) {
	if item.Slug == "" || item.TargetURL == "" {
		return nil, fmt.Errorf("item %q has no slug assigned", item.SourceLink)
	}

	image := item.ImageURL
	if image == "" {
		image = w.absolute(w.config.DefaultImage)
	}

	author := item.SourceLabel
	if author == "" {
		author = w.config.SiteName
	}

	category := item.Category
	if category == "" {
		category = "General"
	}

	body := item.Description
	if body == "" {
		body = item.Title
	}

	data := pageData{
		Language:          w.config.Language,
		SiteName:          w.config.SiteName,
		Title:             item.Title,
		Preview:           Truncate(body, w.config.PreviewLength),
		Body:              body,
		CanonicalURL:      item.TargetURL,
		SourceLink:        item.SourceLink,
		ImageURL:          image,
		ImageType:         GuessImageType(image),
		HasOwnImage:       item.ImageURL != "",
		Author:            author,
		Published:         item.PublishedAt.UTC().Format(time.RFC3339),
		Category:          item.Category,
		CategoryOrDefault: category,
	}

	if !data.HasOwnImage {
		data.ImageWidth = w.config.DefaultImageWidth
		data.ImageHeight = w.config.DefaultImageHeight
	}

	if w.config.RedirectSeconds > 0 && isHTTPURL(item.SourceLink) {
		data.Refresh = strconv.Itoa(w.config.RedirectSeconds) + ";url=" + item.SourceLink
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page %s: %w", item.Slug, err)
	}
	return buf.Bytes(), nil
}

// WriteAll writes the pages of all items in parallel. Existing pages are
// overwritten; pages of items not in the list are left alone.
func (w *PageWriter) WriteAll(items []models.Item) error {
	var g errgroup.Group
	g.SetLimit(w.config.Concurrency)

	for _, item := range items {
		g.Go(func() error {
			data, err := w.Render(item)
			if err != nil {
				return err
			}
			if err := writeFile(w.Path(item.Slug), data); err != nil {
				return err
			}
			pagesWritten.Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"dir":   w.config.Dir,
		"pages": len(items),
	}).Info("Wrote pages")

	return nil
}

// absolute turns a site-relative reference into a URL on the origin
func (w *PageWriter) absolute(ref string) string {
	if ref == "" || strings.Contains(ref, "://") || w.config.Origin == "" {
		return ref
	}
	return w.config.Origin + "/" + strings.TrimLeft(ref, "/")
}

// Truncate shortens s to at most max runes including the ellipsis, cutting
// at a word boundary when one is close
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return Ellipsis
	}

	cut := runes[:max-1]
	for i := len(cut) - 1; i > len(cut)-30 && i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + Ellipsis
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
