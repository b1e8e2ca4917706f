package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cfg"
	"github.com/lysyi3m/rss-clusters/app/cluster"
	"github.com/lysyi3m/rss-clusters/app/feed"
	"github.com/lysyi3m/rss-clusters/app/render"
	"github.com/lysyi3m/rss-clusters/app/similarity"
	"golang.org/x/sync/errgroup"
)

// runOnce fetches every enabled feed, clusters the headlines and prints them.
// Nothing is persisted.
func runOnce(c *cfg.Cfg) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cs, err := buildComponents(ctx, c)
	if err != nil {
		return err
	}
	defer cs.Close()

	return cs.clusterFeeds(ctx, os.Stdout, !c.NoColor)
}

func (cs *components) clusterFeeds(ctx context.Context, out io.Writer, useColors bool) error {
	entries, err := cs.collectEntries(ctx, cs.configCache.GetEnabledConfigs())
	if err != nil {
		return err
	}

	if w, ok := cs.oracle.(similarity.Warmer); ok {
		sets := make([][]string, len(entries))
		for i, entry := range entries {
			sets[i] = entry.Keywords
		}
		if err := w.Warm(ctx, sets); err != nil {
			return fmt.Errorf("failed to warm similarity oracle: %w", err)
		}
	}

	partition, err := cs.clusterer.Run(ctx, entries)
	if err != nil {
		return fmt.Errorf("failed to cluster headlines: %w", err)
	}

	slog.Info("Clustering completed", "entries", len(entries), "clusters", len(partition))

	return render.NewConsole(out, useColors).Render(partition)
}

// collectEntries fetches the feeds concurrently and returns their visible headlines,
// grouped by feed name in ascending order so that runs are reproducible. Failing feeds
// are skipped; the call fails only when every feed failed.
func (cs *components) collectEntries(ctx context.Context, configs map[string]*feed.Config) ([]cluster.Entry, error) {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	perFeed := make([][]cluster.Entry, len(names))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	if cs.fetchLimit > 0 {
		g.SetLimit(cs.fetchLimit)
	}
	for i, name := range names {
		g.Go(func() error {
			entries, err := cs.feedEntries(gctx, configs[name])
			if err != nil {
				slog.Warn("Skipping feed", "feed", name, "error", err)
				failed.Add(1)
				return nil
			}
			perFeed[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(names) > 0 && int(failed.Load()) == len(names) {
		return nil, fmt.Errorf("failed to fetch any of %d feeds", len(names))
	}

	var entries []cluster.Entry
	for _, feedEntries := range perFeed {
		entries = append(entries, feedEntries...)
	}

	return entries, nil
}

func (cs *components) feedEntries(ctx context.Context, feedConfig *feed.Config) ([]cluster.Entry, error) {
	data, err := cs.fetcher.FetchFeed(ctx, feedConfig.URL, time.Duration(feedConfig.Settings.Timeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := cs.parser.Run(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	if limit := feedConfig.Settings.MaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	items = cs.filterer.Run(items, feedConfig)

	items, err = cs.tagger.Run(items, feedConfig, metadata.Language)
	if err != nil {
		return nil, err
	}

	visible := feed.Visible(items)
	entries := make([]cluster.Entry, len(visible))
	for i, item := range visible {
		entries[i] = cluster.Entry{
			Title:    item.Title,
			Link:     item.Link,
			Keywords: item.Keywords,
		}
	}

	slog.Debug("Feed fetched", "feed", feedConfig.Name, "items", len(items), "visible", len(entries))

	return entries, nil
}
