package render

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

const maxItemCategories = 5

// RSS writes one feed item per cluster: the first headline is the item title,
// every member headline goes into the description.
type RSS struct{}

func NewRSS() *RSS {
	return &RSS{}
}

func (g *RSS) Run(channel Channel, snapshot Snapshot) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(channel.Title, "News clusters"), 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	g.writeElement(&buf, "description",
		fmt.Sprintf("%d headlines grouped into %d clusters",
			snapshot.Partition.EntryCount(), len(snapshot.Partition)), 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := cmp.Or(snapshot.GeneratedAt, time.Now())
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.In(time.Local).Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Clusters/%s", cmp.Or(channel.Version, "dev")), 4)
	g.writeElement(&buf, "language", channel.Language, 4)

	for _, cl := range snapshot.Partition.Clusters() {
		g.writeItem(&buf, snapshot, cl)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *RSS) writeItem(buf *bytes.Buffer, snapshot Snapshot, cl cluster.Cluster) {
	if cl.Size() == 0 {
		return
	}
	lead := cl.Members[0]

	buf.WriteString("    <item>\n")

	guid := fmt.Sprintf("%s#%d", cmp.Or(snapshot.ID, "latest"), cl.Label)
	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(guid))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", lead.Title, 6)
	if g.isURL(lead.Link) {
		g.writeElement(buf, "link", lead.Link, 6)
	}

	titles := make([]string, 0, cl.Size())
	for _, entry := range cl.Members {
		titles = append(titles, entry.Title)
	}
	g.writeElement(buf, "description", strings.Join(titles, "\n"), 6)

	if !snapshot.GeneratedAt.IsZero() {
		g.writeElement(buf, "pubDate", snapshot.GeneratedAt.In(time.Local).Format(time.RFC1123Z), 6)
	}

	single := cluster.Partition{cl.Label: cl}
	for _, word := range KeywordFrequencies(single, maxItemCategories) {
		g.writeElement(buf, "category", word.Name, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *RSS) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *RSS) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
