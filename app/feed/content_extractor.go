package feed

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ContentExtractor turns article pages into plain text
type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run returns the readable text of an HTML page with whitespace collapsed. pageURL
// resolves relative links and may be empty.
func (e *ContentExtractor) Run(page []byte, pageURL string) (string, error) {
	if len(page) == 0 {
		return "", errors.New("empty page")
	}

	base, err := baseURL(pageURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(page), base)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := collapseSpaces(article.TextContent)
	if text == "" {
		return "", errors.New("page has no readable content")
	}
	return text, nil
}

func baseURL(pageURL string) (*url.URL, error) {
	if pageURL == "" {
		return nil, nil
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	return u, nil
}

// Lead returns the first maxRunes runes of text, cut back to a word boundary
func Lead(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	lead := string(runes[:maxRunes])
	if i := strings.LastIndexAny(lead, " \t\n"); i > 0 {
		lead = lead[:i]
	}
	return lead
}
