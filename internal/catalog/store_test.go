package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/reelmatch/reelmatch/internal/similarity"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	year := 2010
	rating := 8.8
	m, err := similarity.FromRows([][]float32{
		{1, 0.25, 0},
		{0.25, 1, 0.5},
		{0, 0.5, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := New([]MovieRecord{
		{Title: "Inception", ExternalID: 27205, Year: &year, Rating: &rating, Description: "dreams", PosterPath: "/inception.jpg", Cast: []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt"}},
		{Title: "Avatar", ExternalID: 19995, Description: "blue aliens"},
		{Title: "Untitled", ExternalID: 0, Description: ""},
	}, m)
	if err != nil {
		t.Fatal(err)
	}
	c.Manifest = NewManifest()
	return c
}

func TestNewRejectsShapeMismatch(t *testing.T) {
	m := similarity.NewMatrix(2)
	_, err := New([]MovieRecord{{Title: "a"}, {Title: "b"}, {Title: "c"}}, m)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}

	_, err = New([]MovieRecord{{Title: "a"}}, nil)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for nil matrix, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testCatalog(t)

	if err := Save(dir, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Len() != want.Len() {
		t.Fatalf("expected %d records, got %d", want.Len(), got.Len())
	}
	for i := range want.Records {
		w, g := want.Records[i], got.Records[i]
		if w.Title != g.Title || w.ExternalID != g.ExternalID || w.Description != g.Description || w.PosterPath != g.PosterPath {
			t.Errorf("record %d: expected %+v, got %+v", i, w, g)
		}
		if (w.Year == nil) != (g.Year == nil) || (w.Year != nil && *w.Year != *g.Year) {
			t.Errorf("record %d: year mismatch", i)
		}
		if (w.Rating == nil) != (g.Rating == nil) || (w.Rating != nil && *w.Rating != *g.Rating) {
			t.Errorf("record %d: rating mismatch", i)
		}
		if len(w.Cast) != len(g.Cast) {
			t.Errorf("record %d: expected cast %v, got %v", i, w.Cast, g.Cast)
		}
	}
	if !reflect.DeepEqual(got.Matrix.Data(), want.Matrix.Data()) {
		t.Errorf("matrix changed across save/load")
	}
	if got.Manifest == nil || got.Manifest.BuildID != want.Manifest.BuildID {
		t.Errorf("manifest not restored: %+v", got.Manifest)
	}
	if got.Manifest.Movies != 3 {
		t.Errorf("expected manifest movies 3, got %d", got.Manifest.Movies)
	}
}

func TestLoadDetectsManifestChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, testCatalog(t)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, ManifestFile)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	m.MatrixChecksum = "deadbeef"
	if err := SaveManifest(path, m); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestLoadDetectsRowCountMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, testCatalog(t)); err != nil {
		t.Fatal(err)
	}

	// Replace the movie table with one that has fewer rows.
	short := testCatalog(t)
	short.Records = short.Records[:2]
	f, err := os.Create(filepath.Join(dir, MoviesFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := writeRecords(f, short.Records); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := Load(dir); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestLoadRejectsCorruptMatrix(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, testCatalog(t)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, MatrixFile), []byte("not a matrix"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for corrupt matrix")
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, testCatalog(t)); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, ManifestFile)); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load without manifest failed: %v", err)
	}
	if c.Manifest != nil {
		t.Errorf("expected nil manifest, got %+v", c.Manifest)
	}
}

func TestLoadOrSample(t *testing.T) {
	c, err := LoadOrSample(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected load error to be reported")
	}
	if c.Len() != 5 {
		t.Fatalf("expected sample catalog of 5, got %d", c.Len())
	}
}

func TestSampleIsDeterministic(t *testing.T) {
	a, b := Sample(), Sample()
	if err := a.Validate(); err != nil {
		t.Fatalf("sample invalid: %v", err)
	}
	if !reflect.DeepEqual(a.Matrix.Data(), b.Matrix.Data()) {
		t.Fatal("sample matrix differs between calls")
	}

	neighbors := a.Matrix.Neighbors(0, 5)
	if a.Records[0].Title != "Inception" {
		t.Fatalf("expected Inception first, got %q", a.Records[0].Title)
	}
	if got := a.Records[neighbors[0].Index].Title; got != "Interstellar" {
		t.Errorf("expected Interstellar closest to Inception, got %q", got)
	}
	if got := a.Records[neighbors[len(neighbors)-1].Index].Title; got != "Pulp Fiction" {
		t.Errorf("expected Pulp Fiction furthest from Inception, got %q", got)
	}
}

func TestIsSample(t *testing.T) {
	if !Sample().IsSample() {
		t.Error("expected sample catalog to report IsSample")
	}
	if testCatalog(t).IsSample() {
		t.Error("built catalog must not report IsSample")
	}
}
