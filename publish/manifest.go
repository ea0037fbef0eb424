package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"ptfeed/models"
)

// WriteManifest writes a JSON object mapping each source link to its page URL
func WriteManifest(path string, items []models.Item) error {
	m := lo.SliceToMap(items, func(item models.Item) (string, string) {
		return item.SourceLink, item.TargetURL
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Map keys are sorted by the encoder
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// Tidy removes pages in dir whose slug is not in keep and returns the removed
// file names in sorted order. Files other than *.html are left alone.
func Tidy(dir string, keep []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list pages in %s: %w", dir, err)
	}

	wanted := lo.SliceToMap(keep, func(slug string) (string, struct{}) {
		return slug, struct{}{}
	})

	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".html") {
			continue
		}
		if _, ok := wanted[strings.TrimSuffix(name, ".html")]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove orphaned page %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)

	if len(removed) > 0 {
		log.WithFields(log.Fields{
			"dir":     dir,
			"removed": len(removed),
		}).Info("Removed orphaned pages")
	}

	return removed, nil
}
