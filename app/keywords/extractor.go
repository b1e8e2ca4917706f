// Package keywords turns headline text into ordered, deduplicated keyword sets.
package keywords

import (
	"fmt"
	"strings"
	"sync"
)

// Extractor returns the keyword set of a text: lemmas of content words, deduplicated,
// in order of first occurrence. Empty or content-free text yields an empty set.
type Extractor interface {
	Extract(text string) []string
}

const DefaultLanguage = "ru"

// New returns the extractor for a language code ("en", "ru", "ja")
func New(lang string) (Extractor, error) {
	switch normalizeLanguage(lang) {
	case "en":
		return NewStemExtractor("english", englishStopWords), nil
	case "ru":
		return NewStemExtractor("russian", russianStopWords), nil
	case "ja":
		e, err := NewKagomeExtractor()
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported keyword language: %q", lang)
	}
}

// normalizeLanguage maps feed language tags like "ru-RU" or "en_us" to a base code
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return DefaultLanguage
	}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// Registry lazily builds and shares one extractor per language.
// The Japanese tokenizer loads a dictionary, so it is only built on first use.
type Registry struct {
	mu         sync.Mutex
	extractors map[string]Extractor
	fallback   string
}

func NewRegistry(fallback string) *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
		fallback:   normalizeLanguage(fallback),
	}
}

// Get returns the extractor for lang, falling back to the registry default
// when lang is empty or not supported.
func (r *Registry) Get(lang string) (Extractor, error) {
	code := r.fallback
	if strings.TrimSpace(lang) != "" {
		code = normalizeLanguage(lang)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.extractors[code]; ok {
		return e, nil
	}

	e, err := New(code)
	if err != nil {
		if code == r.fallback {
			return nil, err
		}
		code = r.fallback
		if e, ok := r.extractors[code]; ok {
			return e, nil
		}
		e, err = New(code)
		if err != nil {
			return nil, err
		}
	}

	r.extractors[code] = e
	return e, nil
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	result := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		result = append(result, w)
	}
	return result
}
