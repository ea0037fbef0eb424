// Package slug derives the stable page identifiers of items.
//
// A slug is the transliterated title followed by a short fingerprint of the
// item's source link, e.g. "5g-now-in-manila-3f9a2". The same title and link
// always produce the same slug, so pages keep their address across runs.
package slug

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ptfeed/models"
)

const (
	// Placeholder for titles without any usable character
	Placeholder = "post"

	FingerprintLength = 5
	MaxBaseLength     = 60
)

// Letters that do not decompose into an ASCII base plus combining marks
var ligatures = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o", "đ", "d", "Đ", "d", "ł", "l", "Ł", "l",
	"þ", "th", "Þ", "th", "ı", "i",
)

// Base returns the title reduced to lowercase ASCII letters, digits and
// single hyphens, without leading or trailing hyphens
func Base(title string) string {
	s := ligatures.Replace(strings.TrimSpace(title))

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	base := truncate(b.String(), MaxBaseLength)
	if base == "" {
		return Placeholder
	}
	return base
}

// truncate cuts s to at most max bytes, preferring a hyphen boundary
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if s[max] == '-' {
		return s[:max]
	}
	s = s[:max]
	if i := strings.LastIndexByte(s, '-'); i > max/2 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}

// Fingerprint returns a short hex digest of the source link
func Fingerprint(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// For returns the slug of one item, before collision handling
func For(title, link string) string {
	return Base(title) + "-" + Fingerprint(link)
}

// Assigner sets Slug and TargetURL on ranked items
type Assigner struct {
	origin   string
	pagesDir string
}

// NewAssigner creates an assigner publishing pages under origin/pagesDir
func NewAssigner(origin, pagesDir string) *Assigner {
	return &Assigner{
		origin:   strings.TrimRight(origin, "/"),
		pagesDir: strings.Trim(pagesDir, "/"),
	}
}

// Assign returns a copy of items with unique slugs. Slugs that still collide
// after the fingerprint get "-2", "-3", ... in the order items are given.
func (a *Assigner) Assign(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		s := For(item.Title, item.SourceLink)
		if _, taken := seen[s]; taken {
			for n := 2; ; n++ {
				candidate := s + "-" + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					s = candidate
					break
				}
			}
		}
		seen[s] = struct{}{}

		item.Slug = s
		item.TargetURL = a.TargetURL(s)
		out[i] = item
	}

	return out
}

// PagePath is the page location relative to the site root
func (a *Assigner) PagePath(slug string) string {
	if a.pagesDir == "" {
		return slug + ".html"
	}
	return a.pagesDir + "/" + slug + ".html"
}

// TargetURL is the public address of the page for slug
func (a *Assigner) TargetURL(slug string) string {
	return a.origin + "/" + a.PagePath(slug)
}

// FromTargetURL recovers the slug from a page URL built by TargetURL
func FromTargetURL(target string) string {
	p := target
	if u, err := url.Parse(target); err == nil {
		p = u.Path
	}
	return strings.TrimSuffix(path.Base(p), ".html")
}
