package dataset

import (
	"log/slog"
	"strings"

	"github.com/reelmatch/reelmatch/internal/catalog"
)

// MergeStats counts what Merge did to the input rows
type MergeStats struct {
	InputRows         int
	DroppedDuplicates int
	DuplicateTitles   []string
	SkippedUntitled   int
	WithoutCredits    int
	EmptyDescriptions int
}

// Merge left-joins movies with credits on title and keeps the first row of
// each title. Movies without credits keep empty credit fields. The row order
// of the result follows the movies table.
func Merge(movies []RawMovie, credits []RawCredit) ([]catalog.MovieRecord, MergeStats) {
	stats := MergeStats{InputRows: len(movies)}

	byTitle := make(map[string]RawCredit, len(credits))
	for _, c := range credits {
		if _, seen := byTitle[c.Title]; !seen {
			byTitle[c.Title] = c
		}
	}

	seen := make(map[string]struct{}, len(movies))
	records := make([]catalog.MovieRecord, 0, len(movies))
	for _, m := range movies {
		if strings.TrimSpace(m.Title) == "" {
			stats.SkippedUntitled++
			continue
		}
		if _, dup := seen[m.Title]; dup {
			stats.DroppedDuplicates++
			stats.DuplicateTitles = append(stats.DuplicateTitles, m.Title)
			continue
		}
		seen[m.Title] = struct{}{}

		rec := catalog.MovieRecord{
			Title:       m.Title,
			ExternalID:  m.ID,
			Year:        ParseYear(m.ReleaseDate),
			Rating:      m.VoteAverage,
			Description: m.Overview,
			PosterPath:  m.PosterPath,
		}
		if c, ok := byTitle[m.Title]; ok {
			if rec.ExternalID == 0 {
				rec.ExternalID = c.MovieID
			}
			rec.Cast = c.CastNames()
		} else {
			stats.WithoutCredits++
		}
		if strings.TrimSpace(rec.Description) == "" {
			stats.EmptyDescriptions++
		}
		records = append(records, rec)
	}

	if stats.DroppedDuplicates > 0 {
		slog.Warn("Dropped duplicate titles, first occurrence kept",
			"dropped", stats.DroppedDuplicates,
			"titles", stats.DuplicateTitles)
	}
	if stats.SkippedUntitled > 0 {
		slog.Warn("Skipped rows without a title", "count", stats.SkippedUntitled)
	}
	slog.Debug("Merged movie tables",
		"input_rows", stats.InputRows,
		"records", len(records),
		"without_credits", stats.WithoutCredits,
		"empty_descriptions", stats.EmptyDescriptions)

	return records, stats
}
