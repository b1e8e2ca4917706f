package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

func samplePartition() cluster.Partition {
	return cluster.Partition{
		7: {
			Label: 7,
			Members: []cluster.Entry{
				{Title: "Storm hits coast", Link: "https://news.example.com/storm", Keywords: []string{"storm", "coast"}},
			},
			Indices: []int{2},
		},
		1: {
			Label: 1,
			Members: []cluster.Entry{
				{Title: "Bank raises rate", Link: "https://news.example.com/rate", Keywords: []string{"bank", "rate"}},
				{Title: "Rate hike & markets <fall>", Keywords: []string{"rate", "market"}},
			},
			Indices: []int{0, 1},
		},
	}
}

func TestConsoleRender(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf, false)

	if err := console.Render(samplePartition()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := "[1] Bank raises rate\n" +
		"[1] Rate hike & markets <fall>\n" +
		"\n" +
		"[7] Storm hits coast\n"

	if buf.String() != expected {
		t.Errorf("Expected output:\n%q\ngot:\n%q", expected, buf.String())
	}
}

func TestConsoleRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsole(&buf, false).Render(cluster.Partition{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output for empty partition, got %q", buf.String())
	}
}

func TestConsoleRenderWithColors(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsole(&buf, true).Render(samplePartition()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("Expected ANSI escape codes when colors are enabled")
	}
	if !strings.Contains(buf.String(), "Storm hits coast") {
		t.Error("Expected titles in colored output")
	}
}

func TestKeywordFrequencies(t *testing.T) {
	words := KeywordFrequencies(samplePartition(), 0)

	if len(words) != 5 {
		t.Fatalf("Expected 5 distinct keywords, got %d", len(words))
	}
	if words[0].Name != "rate" || words[0].Count != 2 || words[0].Rank != 1 {
		t.Errorf("Expected rate with count 2 first, got %+v", words[0])
	}
	if words[0].FontSize != maxFontSize {
		t.Errorf("Expected top keyword at max font size %d, got %d", maxFontSize, words[0].FontSize)
	}
	if words[1].Name != "bank" {
		t.Errorf("Expected ties broken alphabetically, got %s second", words[1].Name)
	}
	if words[4].FontSize != minFontSize {
		t.Errorf("Expected least frequent at min font size %d, got %d", minFontSize, words[4].FontSize)
	}

	limited := KeywordFrequencies(samplePartition(), 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit to apply, got %d words", len(limited))
	}

	if len(KeywordFrequencies(cluster.Partition{}, 10)) != 0 {
		t.Error("Expected no keywords for empty partition")
	}
}

func TestHTMLRender(t *testing.T) {
	var buf bytes.Buffer
	page := NewHTML(10)

	snapshot := Snapshot{
		ID:          "run-1",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Partition:   samplePartition(),
	}

	if err := page.Render(&buf, Channel{Title: "Today's clusters", Language: "en"}, snapshot); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	out := buf.String()
	checks := []string{
		`<html lang="en">`,
		"<title>Today&#39;s clusters</title>",
		"3 headlines in 2 clusters",
		`<a href="https://news.example.com/rate">Bank raises rate</a>`,
		"Rate hike &amp; markets &lt;fall&gt;",
		`id="cluster-7"`,
		`class="cloud"`,
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("Expected HTML to contain %q", check)
		}
	}

	if strings.Index(out, "cluster-1") > strings.Index(out, "cluster-7") {
		t.Error("Expected clusters ordered by label")
	}
}

func TestRSSRun(t *testing.T) {
	generator := NewRSS()
	snapshot := Snapshot{
		ID:          "run-1",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Partition:   samplePartition(),
	}
	channel := Channel{
		Title:    "Clusters",
		Link:     "https://clusters.example.com",
		SelfLink: "https://clusters.example.com/clusters.rss",
		Version:  "1.2.3",
	}

	rss, err := generator.Run(channel, snapshot)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	checks := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<title>Clusters</title>",
		`<atom:link href="https://clusters.example.com/clusters.rss" rel="self" type="application/rss+xml" />`,
		"<generator>RSS-Clusters/1.2.3</generator>",
		`<guid isPermaLink="false">run-1#1</guid>`,
		`<guid isPermaLink="false">run-1#7</guid>`,
		"<title>Bank raises rate</title>",
		"<link>https://news.example.com/rate</link>",
		"Rate hike &amp; markets &lt;fall&gt;",
		"<category>rate</category>",
		"<description>3 headlines grouped into 2 clusters</description>",
	}
	for _, check := range checks {
		if !strings.Contains(rss, check) {
			t.Errorf("Expected RSS to contain %q", check)
		}
	}

	if strings.Count(rss, "<item>") != 2 {
		t.Errorf("Expected 2 items, got %d", strings.Count(rss, "<item>"))
	}
}

func TestRSSRunEmpty(t *testing.T) {
	rss, err := NewRSS().Run(Channel{}, Snapshot{Partition: cluster.Partition{}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rss, "<item>") {
		t.Error("Expected no items for empty snapshot")
	}
	if !strings.Contains(rss, "<title>News clusters</title>") {
		t.Error("Expected default channel title")
	}
	if !strings.Contains(rss, "<generator>RSS-Clusters/dev</generator>") {
		t.Error("Expected default generator version")
	}
}

func TestRSSIsURL(t *testing.T) {
	g := NewRSS()
	tests := []struct {
		input    string
		expected bool
	}{
		{"https://example.com", true},
		{"http://example.com", true},
		{"example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := g.isURL(tt.input); got != tt.expected {
			t.Errorf("Expected isURL(%q) = %v, got %v", tt.input, tt.expected, got)
		}
	}
}
