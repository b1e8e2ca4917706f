package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const minTokenRunes = 2

// StemExtractor approximates lemmatization with a Snowball stemmer.
// Stop words stand in for part-of-speech filtering.
type StemExtractor struct {
	language  string
	stopWords map[string]struct{}
	folder    cases.Caser
}

func NewStemExtractor(language string, stopWords []string) *StemExtractor {
	e := &StemExtractor{
		language:  language,
		stopWords: make(map[string]struct{}, len(stopWords)),
		folder:    cases.Fold(),
	}
	for _, w := range stopWords {
		e.stopWords[w] = struct{}{}
	}
	return e
}

func (e *StemExtractor) Extract(text string) []string {
	tokens := e.tokenize(text)
	words := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if !e.isContentWord(token) {
			continue
		}

		stem, err := snowball.Stem(token, e.language, true)
		if err != nil || stem == "" {
			stem = token
		}
		words = append(words, stem)
	}

	return dedupe(words)
}

// tokenize normalizes width and case and splits on anything that is not a letter or digit
func (e *StemExtractor) tokenize(text string) []string {
	text = norm.NFKC.String(text)
	text = e.folder.String(text)
	text = strings.ReplaceAll(text, "ё", "е")

	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (e *StemExtractor) isContentWord(token string) bool {
	if utf8.RuneCountInString(token) < minTokenRunes {
		return false
	}
	if _, ok := e.stopWords[token]; ok {
		return false
	}

	hasLetter := false
	for _, r := range token {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter
}
