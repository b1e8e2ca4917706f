package render

import (
	"math"
	"sort"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

const (
	DefaultCloudSize = 60
	minFontSize      = 12
	maxFontSize      = 48
)

type WordCloudEntry struct {
	Name     string
	Count    int
	Rank     int
	FontSize int
}

// KeywordFrequencies counts keyword occurrences across all entries of the partition
// and returns the limit most frequent, ranked from 1. Ties are broken alphabetically.
func KeywordFrequencies(partition cluster.Partition, limit int) []WordCloudEntry {
	counts := make(map[string]int)
	for _, cl := range partition {
		for _, entry := range cl.Members {
			for _, kw := range entry.Keywords {
				counts[kw]++
			}
		}
	}

	words := make([]WordCloudEntry, 0, len(counts))
	for name, count := range counts {
		words = append(words, WordCloudEntry{Name: name, Count: count})
	}

	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Name < words[j].Name
	})

	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	if len(words) == 0 {
		return words
	}

	most := words[0].Count
	least := words[len(words)-1].Count
	for i := range words {
		words[i].Rank = i + 1
		words[i].FontSize = fontSize(words[i].Count, least, most)
	}

	return words
}

// fontSize scales logarithmically between minFontSize and maxFontSize
func fontSize(count, least, most int) int {
	if most == least {
		return (minFontSize + maxFontSize) / 2
	}

	ratio := (math.Log(float64(count)) - math.Log(float64(least))) /
		(math.Log(float64(most)) - math.Log(float64(least)))

	return minFontSize + int(math.Round(ratio*float64(maxFontSize-minFontSize)))
}
