package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Parser reads RSS, Atom and JSON feeds
type Parser struct {
	fp *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{fp: gofeed.NewParser()}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	parsed, err := p.fp.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, src := range parsed.Items {
		if src != nil {
			items = append(items, toItem(src))
		}
	}

	return feedMetadata(parsed), items, nil
}

func feedMetadata(parsed *gofeed.Feed) *Metadata {
	metadata := &Metadata{
		Title:           cleanText(parsed.Title),
		Link:            strings.TrimSpace(parsed.Link),
		Description:     parsed.Description,
		Language:        strings.TrimSpace(parsed.Language),
		FeedPublishedAt: parsed.PublishedParsed,
	}
	if parsed.Image != nil {
		metadata.ImageURL = parsed.Image.URL
	}
	return metadata
}

// toItem normalizes a feed entry. Headlines are what gets clustered, so the title is
// unescaped and whitespace-folded; the GUID falls back to link, then title.
func toItem(src *gofeed.Item) Item {
	title := cleanText(src.Title)
	link := strings.TrimSpace(src.Link)

	item := Item{
		GUID:        strings.TrimSpace(cmp.Or(src.GUID, src.Link, src.Title)),
		Title:       title,
		Link:        link,
		Description: src.Description,
		Content:     src.Content,
		UpdatedAt:   src.UpdatedParsed,
		Authors:     itemAuthors(src),
		Categories:  src.Categories,
		ContentHash: contentHash(title, link),
	}

	switch {
	case src.PublishedParsed != nil:
		item.PublishedAt = *src.PublishedParsed
	case src.UpdatedParsed != nil:
		item.PublishedAt = *src.UpdatedParsed
	}

	return item
}

func itemAuthors(src *gofeed.Item) []string {
	people := src.Authors
	if len(people) == 0 && src.Author != nil {
		people = []*gofeed.Person{src.Author}
	}

	var authors []string
	for _, person := range people {
		if person == nil {
			continue
		}
		if author := formatAuthor(person.Name, person.Email); author != "" {
			authors = append(authors, author)
		}
	}
	return authors
}

// formatAuthor renders "email (name)", "name" or "email"
func formatAuthor(name, email string) string {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	switch {
	case name != "" && email != "":
		return email + " (" + name + ")"
	default:
		return cmp.Or(name, email)
	}
}

// contentHash identifies a headline for duplicate detection. Case changes of the
// title do not make it a new headline.
func contentHash(title, link string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(title) + "|" + link))
	return hex.EncodeToString(sum[:])
}

// cleanText decodes entities left over from double-escaped feeds and folds runs of
// whitespace, including newlines inside titles
func cleanText(s string) string {
	return collapseSpaces(html.UnescapeString(s))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
