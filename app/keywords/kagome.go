package keywords

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"golang.org/x/text/unicode/norm"
)

const (
	posNoun = "名詞"
	posVerb = "動詞"
)

// noun subclasses that carry no topic on their own
var skippedNounClasses = map[string]bool{
	"非自立":  true,
	"代名詞":  true,
	"数":    true,
	"接尾":   true,
	"副詞可能": true,
}

// light verbs that follow almost every verbal noun
var skippedVerbs = map[string]bool{
	"する":  true,
	"ある":  true,
	"いる":  true,
	"なる":  true,
	"できる": true,
}

// KagomeExtractor keeps nouns and independent verbs from a morphological analysis
// and emits their dictionary forms.
type KagomeExtractor struct {
	tokenizer *tokenizer.Tokenizer
}

func NewKagomeExtractor() (*KagomeExtractor, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return &KagomeExtractor{tokenizer: t}, nil
}

func (e *KagomeExtractor) Extract(text string) []string {
	text = norm.NFKC.String(text)
	tokens := e.tokenizer.Tokenize(text)

	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !keepToken(token.POS()) {
			continue
		}

		word, ok := token.BaseForm()
		if !ok || word == "" || word == "*" {
			word = token.Surface
		}
		if !isWord(word) || skippedVerbs[word] {
			continue
		}
		words = append(words, word)
	}

	return dedupe(words)
}

func keepToken(pos []string) bool {
	if len(pos) == 0 {
		return false
	}

	switch pos[0] {
	case posNoun:
		return len(pos) < 2 || !skippedNounClasses[pos[1]]
	case posVerb:
		return len(pos) > 1 && pos[1] == "自立"
	default:
		return false
	}
}

func isWord(s string) bool {
	if utf8.RuneCountInString(s) == 0 {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
