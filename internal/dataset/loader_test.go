package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/parquet-go/parquet-go"
)

const moviesCSV = `budget,id,overview,poster_path,release_date,title,vote_average
237000000,19995,"In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora.",/avatar.jpg,2009-12-10,Avatar,7.2
0,0,,,,Untitled Project,
160000000,27205,"Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets.",/inception.jpg,2010-07-15,Inception,8.1
1,99,"A remake nobody asked for.",,not a date,Avatar,3.0
`

const creditsCSV = `movie_id,title,cast,crew
19995,Avatar,"[{""cast_id"": 242, ""character"": ""Jake Sully"", ""name"": ""Sam Worthington"", ""order"": 0}, {""cast_id"": 3, ""character"": ""Neytiri"", ""name"": ""Zoe Saldana"", ""order"": 1}]",[]
27205,Inception,not json,[]
555,Untitled Project,[],[]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSVAndMerge(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(writeFile(t, dir, "movies.csv", moviesCSV), writeFile(t, dir, "credits.csv", creditsCSV))

	movies, err := loader.LoadMovies()
	if err != nil {
		t.Fatalf("LoadMovies failed: %v", err)
	}
	if len(movies) != 4 {
		t.Fatalf("expected 4 movies, got %d", len(movies))
	}
	credits, err := loader.LoadCredits()
	if err != nil {
		t.Fatalf("LoadCredits failed: %v", err)
	}
	if len(credits) != 3 {
		t.Fatalf("expected 3 credits, got %d", len(credits))
	}

	records, stats := Merge(movies, credits)
	if len(records) != 3 {
		t.Fatalf("expected 3 records after dedup, got %d", len(records))
	}
	if stats.DroppedDuplicates != 1 || !reflect.DeepEqual(stats.DuplicateTitles, []string{"Avatar"}) {
		t.Errorf("unexpected duplicate stats: %+v", stats)
	}
	if stats.EmptyDescriptions != 1 {
		t.Errorf("expected 1 empty description, got %d", stats.EmptyDescriptions)
	}

	avatar := records[0]
	if avatar.Title != "Avatar" || avatar.ExternalID != 19995 {
		t.Errorf("first occurrence should win, got %+v", avatar)
	}
	if avatar.Year == nil || *avatar.Year != 2009 {
		t.Errorf("expected year 2009, got %v", avatar.Year)
	}
	if avatar.Rating == nil || *avatar.Rating != 7.2 {
		t.Errorf("expected rating 7.2, got %v", avatar.Rating)
	}
	if !reflect.DeepEqual(avatar.Cast, []string{"Sam Worthington", "Zoe Saldana"}) {
		t.Errorf("unexpected cast %v", avatar.Cast)
	}

	untitled := records[1]
	if untitled.ExternalID != 555 {
		t.Errorf("expected credits movie_id fallback 555, got %d", untitled.ExternalID)
	}
	if untitled.Rating != nil || untitled.Year != nil {
		t.Errorf("expected missing year and rating, got %v %v", untitled.Year, untitled.Rating)
	}

	if records[2].Cast != nil {
		t.Errorf("malformed cast should give no names, got %v", records[2].Cast)
	}
}

func TestMergeLeftJoinKeepsMoviesWithoutCredits(t *testing.T) {
	records, stats := Merge([]RawMovie{
		{ID: 1, Title: "Alone", Overview: "no credits here"},
		{ID: 2, Title: ""},
	}, nil)
	if len(records) != 1 || records[0].Title != "Alone" || records[0].Cast != nil {
		t.Fatalf("unexpected records %+v", records)
	}
	if stats.WithoutCredits != 1 || stats.SkippedUntitled != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCastNamesOrderAndLimit(t *testing.T) {
	c := RawCredit{Cast: `[
		{"name": "F", "order": 5}, {"name": "B", "order": 1}, {"name": "A", "order": 0},
		{"name": "D", "order": 3}, {"name": "C", "order": 2}, {"name": "E", "order": 4}]`}
	want := []string{"A", "B", "C", "D", "E"}
	if got := c.CastNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2009-12-10", 2009, true},
		{"1994", 1994, true},
		{"", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got := ParseYear(tt.in)
		if (got != nil) != tt.ok || (got != nil && *got != tt.want) {
			t.Errorf("ParseYear(%q) = %v, want %d (ok=%v)", tt.in, got, tt.want, tt.ok)
		}
	}
}

func TestLoadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "movies.jsonl", `{"id": 680, "title": "Pulp Fiction", "overview": "crime", "vote_average": 8.3}

{"id": 550, "title": "Fight Club", "overview": "soap"}
`)
	movies, err := NewLoader(path, "").LoadMovies()
	if err != nil {
		t.Fatalf("LoadMovies failed: %v", err)
	}
	if len(movies) != 2 || movies[1].Title != "Fight Club" || movies[1].VoteAverage != nil {
		t.Errorf("unexpected movies %+v", movies)
	}
	if movies[0].VoteAverage == nil || *movies[0].VoteAverage != 8.3 {
		t.Errorf("expected vote average 8.3")
	}
}

func TestLoadParquet(t *testing.T) {
	rating := 8.6
	want := []RawMovie{
		{ID: 157336, Title: "Interstellar", Overview: "space", VoteAverage: &rating},
		{ID: 155, Title: "The Dark Knight", Overview: "joker"},
	}
	path := filepath.Join(t.TempDir(), "movies.parquet")
	if err := parquet.WriteFile(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := NewLoader(path, "").LoadMovies()
	if err != nil {
		t.Fatalf("LoadMovies failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Interstellar" || got[1].ID != 155 {
		t.Errorf("unexpected movies %+v", got)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("movies.xlsx", "").LoadMovies(); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
