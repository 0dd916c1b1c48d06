package racepub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/racepub/github"
)

// indexFetchLimit bounds concurrent metadata downloads while building the index.
const indexFetchLimit = 4

// BuildIndex reads every gare-sorgenti/*.json record on PublishBranch and
// returns one entry per race, newest first. Records that cannot be decoded
// or have no slug are skipped. A missing directory yields an empty index.
func BuildIndex(ctx context.Context, store ContentStore, logger *slog.Logger) ([]IndexEntry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	files, err := store.ListDir(ctx, metaDir, PublishBranch)
	if errors.Is(err, github.ErrNotFound) {
		return []IndexEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range files {
		if f.Type == "file" && strings.HasSuffix(f.Name, ".json") {
			paths = append(paths, f.Path)
		}
	}

	results := make([]*IndexEntry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexFetchLimit)
	for i, p := range paths {
		g.Go(func() error {
			entry, err := fetchEntry(gctx, store, p, logger)
			if err != nil {
				return err
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Data != entries[j].Data {
			return entries[i].Data > entries[j].Data
		}
		return entries[i].Slug < entries[j].Slug
	})
	return entries, nil
}

// fetchEntry reads one metadata record. Unreadable records and records
// without a slug are logged and yield a nil entry; only store errors are
// returned.
func fetchEntry(ctx context.Context, store ContentStore, path string, logger *slog.Logger) (*IndexEntry, error) {
	f, err := store.GetFile(ctx, path, PublishBranch)
	if err != nil {
		return nil, err
	}
	raw, err := f.Decode()
	if err != nil {
		logger.Warn("index: unreadable record", "path", path, "err", err)
		return nil, nil
	}
	var meta RaceMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.Warn("index: unreadable record", "path", path, "err", err)
		return nil, nil
	}
	slug := meta.String("slug")
	if slug == "" {
		logger.Warn("index: record without slug", "path", path)
		return nil, nil
	}
	data := meta.String("data")
	return &IndexEntry{
		Slug:       slug,
		Titolo:     meta.String("titolo"),
		Data:       data,
		Year:       yearOf(data),
		RaceSeries: meta.String("race_series"),
	}, nil
}

// FilterByYear returns the entries whose year equals year.
func FilterByYear(entries []IndexEntry, year string) []IndexEntry {
	if year == "" {
		return entries
	}
	filtered := []IndexEntry{}
	for _, e := range entries {
		if e.Year == year {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
