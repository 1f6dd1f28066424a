package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/reelmatch/reelmatch/internal/recommend"
)

const moviesCSV = `id,title,overview,poster_path,release_date,vote_average
27205,Inception,"A thief enters dreams to plant an idea in a mind.",/inception.jpg,2010-07-15,8.3
157336,Interstellar,"Explorers travel through a wormhole in space to save humanity.",,2014-11-05,8.1
155,The Dark Knight,"Batman fights the Joker in Gotham.",,2008-07-16,8.2
680,Pulp Fiction,"Crime stories in Los Angeles intertwine.",,1994-09-10,8.3
2,Dream Thieves,"Thieves steal a secret idea from dreams.",,2001-01-01,5.0
`

const creditsCSV = `movie_id,title,cast
27205,Inception,"[{""name"": ""Leonardo DiCaprio"", ""order"": 0}]"
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("reelmatch %s failed: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func writeInputs(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	movies := filepath.Join(dir, "movies.csv")
	credits := filepath.Join(dir, "credits.csv")
	if err := os.WriteFile(movies, []byte(moviesCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(credits, []byte(creditsCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return movies, credits, filepath.Join(dir, "catalog")
}

func TestBuildInspectRecommend(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	movies, credits, out := writeInputs(t)

	summary := run(t, "build", "--movies", movies, "--credits", credits, "--out", out)
	if !strings.Contains(summary, "Movies:              5") {
		t.Errorf("build summary missing movie count:\n%s", summary)
	}

	inspect := run(t, "inspect", "--dir", out, "--title", "Inception", "-k", "2")
	if !strings.Contains(inspect, "5 movies, matrix 5x5") {
		t.Errorf("inspect missing shape line:\n%s", inspect)
	}
	if !strings.Contains(inspect, "Dream Thieves") {
		t.Errorf("inspect missing Inception neighbor:\n%s", inspect)
	}

	t.Setenv("RM_CATALOG_DIR", out)
	raw := run(t, "recommend", "Inception", "--json")
	var got []recommend.EnrichedMovie
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("recommend output is not JSON: %v\n%s", err, raw)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 recommendations, got %d", len(got))
	}
	if got[0].Title != "Dream Thieves" {
		t.Errorf("expected Dream Thieves first, got %q", got[0].Title)
	}
	for _, m := range got {
		if m.Title == "Inception" {
			t.Error("recommendations must not include the query title")
		}
		if m.Poster != recommend.PlaceholderPoster {
			t.Errorf("%s: expected placeholder poster without an API key, got %q", m.Title, m.Poster)
		}
	}
}

func TestRecommendFallsBackToSample(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("RM_CATALOG_DIR", filepath.Join(t.TempDir(), "missing"))

	out := run(t, "recommend", "Inception")
	if !strings.Contains(out, " 1. Interstellar") {
		t.Errorf("expected Interstellar first from the sample catalog:\n%s", out)
	}

	out = run(t, "recommend", "Nope")
	if !strings.Contains(out, `No movie titled "Nope"`) {
		t.Errorf("unexpected output for unknown title:\n%s", out)
	}
}

func TestDetailsWithoutAPIKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("RM_CATALOG_DIR", filepath.Join(t.TempDir(), "missing"))

	raw := run(t, "details", "27205", "--json")
	var d recommend.Details
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("details output is not JSON: %v\n%s", err, raw)
	}
	if d.Title != recommend.UnknownTitle || d.Year != recommend.NotAvailable || d.Status != recommend.StatusUnavailable {
		t.Errorf("expected sentinel details, got %+v", d)
	}
}

func TestBuildRejectsUnknownVectorizer(t *testing.T) {
	movies, credits, out := writeInputs(t)
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"build", "--movies", movies, "--credits", credits, "--out", out, "--features", "word2vec"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for unsupported vectorizer")
	}
}
