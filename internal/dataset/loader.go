package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// Loader reads raw tables from CSV, JSONL or Parquet files. The format is
// chosen by file extension.
type Loader struct {
	moviesPath  string
	creditsPath string
}

// NewLoader creates a loader for a movies table and an optional credits
// table (empty path means no credits).
func NewLoader(moviesPath, creditsPath string) *Loader {
	return &Loader{
		moviesPath:  moviesPath,
		creditsPath: creditsPath,
	}
}

// LoadMovies reads the movies table
func (l *Loader) LoadMovies() ([]RawMovie, error) {
	return load(l.moviesPath, func(row map[string]string) RawMovie {
		return RawMovie{
			ID:          parseInt(row["id"]),
			Title:       row["title"],
			Overview:    row["overview"],
			PosterPath:  row["poster_path"],
			ReleaseDate: row["release_date"],
			VoteAverage: parseFloat(row["vote_average"]),
		}
	})
}

// LoadCredits reads the credits table. Without a credits path it returns
// no rows.
func (l *Loader) LoadCredits() ([]RawCredit, error) {
	if l.creditsPath == "" {
		slog.Debug("No credits table configured")
		return nil, nil
	}
	return load(l.creditsPath, func(row map[string]string) RawCredit {
		return RawCredit{
			MovieID: parseInt(row["movie_id"]),
			Title:   row["title"],
			Cast:    row["cast"],
		}
	})
}

func load[T any](path string, fromCSV func(map[string]string) T) ([]T, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		return loadCSV(path, fromCSV)
	case ".jsonl", ".json":
		return loadJSONL[T](path)
	case ".parquet":
		return loadParquet[T](path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .jsonl, .parquet)", ext)
	}
}

func loadCSV[T any](path string, fromCSV func(map[string]string) T) ([]T, error) {
	slog.Debug("Opening CSV file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(bufio.NewReader(file))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var records []T
	line := 1
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV at line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		records = append(records, fromCSV(row))
	}

	slog.Debug("Finished reading CSV file", "path", path, "total_records", len(records))
	return records, nil
}

func loadJSONL[T any](path string) ([]T, error) {
	slog.Debug("Opening JSONL file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var records []T
	scanner := bufio.NewScanner(file)

	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "path", path, "total_records", len(records))
	return records, nil
}

func loadParquet[T any](path string) ([]T, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	records := make([]T, 0, pf.NumRows())
	rows := make([]T, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "path", path, "total_records", len(records))
	return records, nil
}
