package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"ptfeed/models"
)

const (
	DefaultOrigin          = "https://pinoytechfeed.pages.dev"
	DefaultMaxItems        = 40
	DefaultFetchTimeout    = 20 * time.Second
	DefaultUserAgent       = "PinoyTechFeed-RSSFetcher/1.0"
	DefaultPreviewLength   = 200
	DefaultRedirectSeconds = 3
)

// TomlSource represents one upstream feed from TOML
type TomlSource struct {
	URL      string `toml:"url"`
	Tag      string `toml:"tag"`
	Label    string `toml:"label"`
	Category string `toml:"category"`
}

// TomlSite holds the channel level settings
type TomlSite struct {
	Title          string `toml:"title"`
	Description    string `toml:"description"`
	Language       string `toml:"language"`
	Generator      string `toml:"generator"`
	TTL            int    `toml:"ttl"`
	Timezone       string `toml:"timezone"`
	FallbackOrigin string `toml:"fallback_origin"`
}

// TomlFetch configures how sources are fetched
type TomlFetch struct {
	Timeout     string `toml:"timeout"`
	UserAgent   string `toml:"user_agent"`
	Concurrency int    `toml:"concurrency"`
}

// TomlOutput configures where and what is written
type TomlOutput struct {
	Dir          string `toml:"dir"`
	FeedFile     string `toml:"feed_file"`
	AtomFile     string `toml:"atom_file"`
	PagesDir     string `toml:"pages_dir"`
	ManifestFile string `toml:"manifest_file"`
	Prune        bool   `toml:"prune"`
}

// TomlPages configures the generated landing pages
type TomlPages struct {
	DefaultImage    string `toml:"default_image"`
	PreviewLength   int    `toml:"preview_length"`
	RedirectSeconds int    `toml:"redirect_seconds"`
}

// TomlExtension is the vendor namespace carrying original links in the feed
type TomlExtension struct {
	Prefix    string `toml:"prefix"`
	Namespace string `toml:"namespace"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	MaxItems    int           `toml:"max_items"`
	MergePolicy string        `toml:"merge_policy"`
	Site        TomlSite      `toml:"site"`
	Fetch       TomlFetch     `toml:"fetch"`
	Output      TomlOutput    `toml:"output"`
	Pages       TomlPages     `toml:"pages"`
	Extension   TomlExtension `toml:"extension"`
	Sources     []TomlSource  `toml:"sources"`
}

// Default returns the configuration used when no file is present
func Default() *TomlConfig {
	return &TomlConfig{
		MaxItems:    DefaultMaxItems,
		MergePolicy: "last",
		Site: TomlSite{
			Title:          "PinoyTechFeed",
			Description:    "Latest gadget updates and Philippine tech news, curated by PinoyTechFeed.",
			Language:       "en",
			Generator:      "PinoyTechFeed Feed Builder",
			TTL:            30,
			Timezone:       "Asia/Manila",
			FallbackOrigin: DefaultOrigin,
		},
		Fetch: TomlFetch{
			Timeout:     DefaultFetchTimeout.String(),
			UserAgent:   DefaultUserAgent,
			Concurrency: 4,
		},
		Output: TomlOutput{
			Dir:          "public",
			FeedFile:     "feed.xml",
			AtomFile:     "atom.xml",
			PagesDir:     "p",
			ManifestFile: "map.json",
		},
		Pages: TomlPages{
			DefaultImage:    "/assets/og-default.jpg",
			PreviewLength:   DefaultPreviewLength,
			RedirectSeconds: DefaultRedirectSeconds,
		},
		Extension: TomlExtension{
			Prefix:    "ptf",
			Namespace: "https://pinoytechfeed.pages.dev/ns",
		},
		Sources: []TomlSource{
			{URL: "https://rss.app/feeds/f92kwVzjq4XUE6h3.xml", Tag: "GADGETS", Label: "GSMArena", Category: "GADGETS"},
			{URL: "https://rss.app/feeds/jvx17FqERQHCjtka.xml", Tag: "PH", Label: "GMA News", Category: "PH"},
			{URL: "https://rss.app/feeds/xoLNJ5ZwxVDYaRCl.xml", Tag: "TECH", Label: "Interesting Engineering", Category: "TECH"},
		},
	}
}

// LoadConfig reads the TOML file at path on top of the defaults.
// A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (*TomlConfig, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Sources in the file replace the defaults instead of appending to them
	defaults := config.Sources
	config.Sources = nil
	md, err := toml.Decode(string(data), config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if !md.IsDefined("sources") {
		config.Sources = defaults
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Validate checks the values the pipeline cannot work without
func (c *TomlConfig) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	for i, src := range c.Sources {
		u, err := url.Parse(src.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("sources[%d]: invalid url %q", i, src.URL)
		}
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("max_items must be positive, got %d", c.MaxItems)
	}
	switch c.MergePolicy {
	case "", "last", "newest":
	default:
		return fmt.Errorf("unknown merge_policy %q (want \"last\" or \"newest\")", c.MergePolicy)
	}
	if _, err := c.FetchTimeout(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	if c.Output.FeedFile == "" {
		return errors.New("output.feed_file is required")
	}
	if c.Extension.Prefix == "" || c.Extension.Namespace == "" {
		return errors.New("extension.prefix and extension.namespace are required to carry the original article links")
	}
	if u, err := url.Parse(c.Extension.Namespace); err != nil || !u.IsAbs() {
		return fmt.Errorf("extension.namespace must be an absolute URI, got %q", c.Extension.Namespace)
	}
	if c.Pages.PreviewLength < 0 {
		return fmt.Errorf("pages.preview_length must not be negative, got %d", c.Pages.PreviewLength)
	}
	return nil
}

// FetchTimeout parses the per-fetch timeout
func (c *TomlConfig) FetchTimeout() (time.Duration, error) {
	if c.Fetch.Timeout == "" {
		return DefaultFetchTimeout, nil
	}
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 0, fmt.Errorf("fetch.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("fetch.timeout must be positive, got %s", d)
	}
	return d, nil
}

// Location returns the timezone feed dates are rendered in, UTC if unknown
func (c *TomlConfig) Location() *time.Location {
	if c.Site.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ModelSources converts the configured sources, keeping their order
func (c *TomlConfig) ModelSources() []models.Source {
	sources := make([]models.Source, len(c.Sources))
	for i, src := range c.Sources {
		sources[i] = models.Source{
			URL:      src.URL,
			Tag:      src.Tag,
			Label:    src.Label,
			Category: src.Category,
		}
	}
	return sources
}

// Channel builds the channel metadata for a resolved origin
func (c *TomlConfig) Channel(origin string) models.Channel {
	ch := models.Channel{
		Title:              c.Site.Title,
		Link:               origin,
		Description:        c.Site.Description,
		Language:           c.Site.Language,
		Generator:          c.Site.Generator,
		TTL:                c.Site.TTL,
		ExtensionPrefix:    c.Extension.Prefix,
		ExtensionNamespace: c.Extension.Namespace,
	}
	if c.Output.FeedFile != "" {
		ch.SelfLink = origin + "/" + c.Output.FeedFile
	}
	return ch
}
