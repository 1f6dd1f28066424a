package builder

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/dataset"
	"github.com/reelmatch/reelmatch/internal/features"
)

func rawMovies() []dataset.RawMovie {
	return []dataset.RawMovie{
		{ID: 27205, Title: "Inception", Overview: "A thief enters dreams to plant an idea in a mind.", ReleaseDate: "2010-07-15"},
		{ID: 157336, Title: "Interstellar", Overview: "Explorers travel through a wormhole in space to save humanity."},
		{ID: 155, Title: "The Dark Knight", Overview: "Batman fights the Joker in Gotham."},
		{ID: 680, Title: "Pulp Fiction", Overview: "Crime stories in Los Angeles intertwine."},
		{ID: 999, Title: "Inception", Overview: "A duplicate row that must be dropped."},
		{ID: 1, Title: "Blank", Overview: ""},
		{ID: 2, Title: "Dream Thieves", Overview: "Thieves steal a secret idea from dreams."},
	}
}

func TestFromRaw(t *testing.T) {
	c, err := FromRaw(context.Background(), rawMovies(), nil, nil)
	if err != nil {
		t.Fatalf("FromRaw failed: %v", err)
	}
	if c.Len() != 6 {
		t.Fatalf("expected 6 records, got %d", c.Len())
	}
	if c.Manifest.DroppedDuplicates != 1 || c.Manifest.EmptyDescriptions != 1 {
		t.Errorf("unexpected manifest counts %+v", c.Manifest)
	}
	if c.Manifest.Features.Vectorizer != "tfidf" || c.Manifest.Features.MaxFeatures != features.DefaultMaxFeatures {
		t.Errorf("unexpected feature info %+v", c.Manifest.Features)
	}
	if c.Records[0].ExternalID != 27205 {
		t.Errorf("first Inception row should win, got id %d", c.Records[0].ExternalID)
	}

	// Blank description row is all zeros off the diagonal.
	blank := 4
	for j := 0; j < c.Len(); j++ {
		want := 0.0
		if j == blank {
			want = 1.0
		}
		if got := c.Matrix.At(blank, j); got != want {
			t.Errorf("blank row at %d: expected %v, got %v", j, want, got)
		}
	}

	// Inception shares dreams/idea/thief with Dream Thieves.
	neighbors := c.Matrix.Neighbors(0, 5)
	if got := c.Records[neighbors[0].Index].Title; got != "Dream Thieves" {
		t.Errorf("expected Dream Thieves closest to Inception, got %q", got)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	a, err := FromRaw(ctx, rawMovies(), nil, features.NewTFIDF(10))
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromRaw(ctx, rawMovies(), nil, features.NewTFIDF(10))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Matrix.Data(), b.Matrix.Data()) {
		t.Fatal("rebuild produced a different matrix")
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	if err := catalog.Save(dirA, a); err != nil {
		t.Fatal(err)
	}
	if err := catalog.Save(dirB, b); err != nil {
		t.Fatal(err)
	}
	ma, err := catalog.LoadManifest(filepath.Join(dirA, catalog.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	mb, err := catalog.LoadManifest(filepath.Join(dirB, catalog.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if ma.MatrixChecksum != mb.MatrixChecksum {
		t.Errorf("matrix checksums differ: %s vs %s", ma.MatrixChecksum, mb.MatrixChecksum)
	}
}

func TestBuildFromFiles(t *testing.T) {
	dir := t.TempDir()
	movies := filepath.Join(dir, "movies.csv")
	credits := filepath.Join(dir, "credits.csv")
	if err := os.WriteFile(movies, []byte("id,title,overview,release_date,vote_average,poster_path\n"+
		"1,Alpha,space travel adventure,2001-01-01,7.5,/a.jpg\n"+
		"2,Beta,space station drama,2002-02-02,6.0,\n"+
		"3,Gamma,,,,\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(credits, []byte("movie_id,title,cast\n"+
		"1,Alpha,\"[{\"\"name\"\": \"\"Ann\"\", \"\"order\"\": 0}]\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Build(context.Background(), Options{MoviesPath: movies, CreditsPath: credits})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", c.Len())
	}
	if !reflect.DeepEqual(c.Records[0].Cast, []string{"Ann"}) {
		t.Errorf("expected cast [Ann], got %v", c.Records[0].Cast)
	}
	if c.Manifest.Sources.Movies != movies {
		t.Errorf("expected sources recorded, got %+v", c.Manifest.Sources)
	}
	if c.Matrix.At(0, 1) <= 0 {
		t.Errorf("expected Alpha and Beta to share space, got %v", c.Matrix.At(0, 1))
	}
}

func TestFromRawCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FromRaw(ctx, rawMovies(), nil, nil); err == nil {
		t.Fatal("expected cancellation error")
	}
}
