package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

// Snapshot is one clustering result as presented to readers
type Snapshot struct {
	ID          string
	GeneratedAt time.Time
	Partition   cluster.Partition
}

// Channel describes where a rendered snapshot is published
type Channel struct {
	Title    string
	Link     string
	SelfLink string
	Language string
	Version  string
}

type HTML struct {
	tmpl      *template.Template
	cloudSize int
}

func NewHTML(cloudSize int) *HTML {
	if cloudSize <= 0 {
		cloudSize = DefaultCloudSize
	}
	return &HTML{
		tmpl:      template.Must(template.New("clusters").Parse(pageTemplate)),
		cloudSize: cloudSize,
	}
}

type pageData struct {
	Channel     Channel
	GeneratedAt string
	EntryCount  int
	Clusters    []cluster.Cluster
	Cloud       []WordCloudEntry
}

func (h *HTML) Render(w io.Writer, channel Channel, snapshot Snapshot) error {
	data := pageData{
		Channel:    channel,
		EntryCount: snapshot.Partition.EntryCount(),
		Clusters:   snapshot.Partition.Clusters(),
		Cloud:      KeywordFrequencies(snapshot.Partition, h.cloudSize),
	}
	if !snapshot.GeneratedAt.IsZero() {
		data.GeneratedAt = snapshot.GeneratedAt.In(time.Local).Format(time.RFC1123)
	}

	if err := h.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML page: %w", err)
	}
	return nil
}

const pageTemplate = `<!DOCTYPE html>
<html{{with .Channel.Language}} lang="{{.}}"{{end}}>
<head>
<meta charset="utf-8">
<title>{{.Channel.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
.cloud { line-height: 2.2; margin-bottom: 2rem; }
.cloud span { margin-right: .6rem; white-space: nowrap; }
.cluster { border-top: 1px solid #ddd; padding: .5rem 0; }
.label { color: #1f5fbf; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Channel.Title}}</h1>
<p>{{.EntryCount}} headlines in {{len .Clusters}} clusters{{with .GeneratedAt}}, generated {{.}}{{end}}</p>
{{if .Cloud}}<div class="cloud">
{{range .Cloud}}<span style="font-size: {{.FontSize}}px" title="{{.Count}}">{{.Name}}</span>
{{end}}</div>
{{end}}{{range .Clusters}}<div class="cluster" id="cluster-{{.Label}}">
<span class="label">[{{.Label}}]</span>
<ul>
{{range .Members}}<li>{{if .Link}}<a href="{{.Link}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</li>
{{end}}</ul>
</div>
{{end}}</body>
</html>
`
