package feeds

import (
	"fmt"
	"sort"

	"ptfeed/models"
)

// MergePolicy decides which item survives when two entries share a source link
type MergePolicy interface {
	// Name is the value used in configuration
	Name() string
	// Replace reports whether next, processed after current, takes its place
	Replace(current, next models.Item) bool
}

// LastWriteWins keeps the entry processed last, regardless of its date
type LastWriteWins struct{}

func (LastWriteWins) Name() string { return "last" }

func (LastWriteWins) Replace(current, next models.Item) bool { return true }

// NewestWins keeps the entry with the later publish date. On equal dates the
// earlier processed entry stays.
type NewestWins struct{}

func (NewestWins) Name() string { return "newest" }

func (NewestWins) Replace(current, next models.Item) bool {
	return next.PublishedAt.After(current.PublishedAt)
}

var _ MergePolicy = LastWriteWins{}
var _ MergePolicy = NewestWins{}

// PolicyByName maps a configured name to its policy. Empty means LastWriteWins.
func PolicyByName(name string) (MergePolicy, error) {
	switch name {
	case "", "last":
		return LastWriteWins{}, nil
	case "newest":
		return NewestWins{}, nil
	}
	return nil, fmt.Errorf("unknown merge policy %q", name)
}

// Merge deduplicates items by SourceLink in the given order. Each link keeps
// the position where it first appeared; its value is decided by policy.
func Merge(items []models.Item, policy MergePolicy) []models.Item {
	if policy == nil {
		policy = LastWriteWins{}
	}

	index := make(map[string]int, len(items))
	merged := make([]models.Item, 0, len(items))

	for _, item := range items {
		if i, ok := index[item.SourceLink]; ok {
			if policy.Replace(merged[i], item) {
				merged[i] = item
			}
			continue
		}
		index[item.SourceLink] = len(merged)
		merged = append(merged, item)
	}

	return merged
}

// Rank sorts by PublishedAt descending, keeping input order on ties, and
// truncates to limit when limit > 0
func Rank(items []models.Item, limit int) []models.Item {
	ranked := make([]models.Item, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
