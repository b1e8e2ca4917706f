package feed

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/lysyi3m/rss-clusters/app/keywords"
)

const LeadRunes = 280

// Tagger attaches keyword sets to items using the feed's language
type Tagger struct {
	registry *keywords.Registry
}

func NewTagger(registry *keywords.Registry) *Tagger {
	return &Tagger{registry: registry}
}

// Run sets Keywords on every visible item from its title. Filtered items are never
// clustered, so they are left untagged.
func (t *Tagger) Run(items []Item, feedConfig *Config, feedLanguage string) ([]Item, error) {
	extractor, err := t.registry.Get(cmp.Or(feedConfig.Settings.Language, feedLanguage))
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword extractor: %w", err)
	}

	tagged := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.IsFiltered {
			item.Keywords = extractor.Extract(item.Title)
		}
		tagged = append(tagged, item)
	}

	return tagged, nil
}

// Tag extracts keywords from a title and, when given, the lead of the article text
func (t *Tagger) Tag(title, content, language string) ([]string, error) {
	extractor, err := t.registry.Get(language)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword extractor: %w", err)
	}

	text := title
	if content = strings.TrimSpace(content); content != "" {
		text = title + "\n" + Lead(content, LeadRunes)
	}

	return extractor.Extract(text), nil
}
