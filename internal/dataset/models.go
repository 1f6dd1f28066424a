// Package dataset reads the raw TMDb movie and credits tables and merges
// them into catalog records.
package dataset

import (
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// MaxCast is the number of billed cast members kept per movie.
const MaxCast = 5

// RawMovie is one row of the movies table (tmdb_5000_movies layout)
type RawMovie struct {
	ID          int      `json:"id" parquet:"id"`
	Title       string   `json:"title" parquet:"title"`
	Overview    string   `json:"overview" parquet:"overview"`
	PosterPath  string   `json:"poster_path" parquet:"poster_path"`
	ReleaseDate string   `json:"release_date" parquet:"release_date"`
	VoteAverage *float64 `json:"vote_average" parquet:"vote_average,optional"`
}

// RawCredit is one row of the credits table (tmdb_5000_credits layout).
// Cast holds the JSON encoded cast list as published in the dataset.
type RawCredit struct {
	MovieID int    `json:"movie_id" parquet:"movie_id"`
	Title   string `json:"title" parquet:"title"`
	Cast    string `json:"cast" parquet:"cast"`
}

// CastMember is an entry of the credits cast list
type CastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// CastNames returns the first MaxCast names by billing order. A malformed
// cast column yields no names.
func (c RawCredit) CastNames() []string {
	raw := strings.TrimSpace(c.Cast)
	if raw == "" {
		return nil
	}
	var members []CastMember
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Order < members[j].Order
	})
	names := make([]string, 0, MaxCast)
	for _, m := range members {
		if m.Name == "" {
			continue
		}
		names = append(names, m.Name)
		if len(names) == MaxCast {
			break
		}
	}
	return names
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", "2006-01", "2006"}

// ParseYear extracts the release year from a date string. Unparseable
// dates give nil.
func ParseYear(date string) *int {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			y := t.Year()
			return &y
		}
	}
	return nil
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	// ids exported through spreadsheets sometimes carry a ".0"
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
