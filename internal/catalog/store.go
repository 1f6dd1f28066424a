package catalog

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/reelmatch/reelmatch/internal/similarity"
)

// Artifact file names inside a catalog directory.
const (
	MoviesFile   = "movies.parquet"
	MatrixFile   = "similarity.gob.gz"
	ManifestFile = "manifest.yaml"
)

// matrixState is the gob payload of the matrix artifact.
type matrixState struct {
	N    int
	Data []float32
}

// MatrixMetadata describes a stored matrix.
type MatrixMetadata struct {
	Rows      int
	Checksum  string // SHA-256 of the uncompressed gob payload
	SizeBytes int64
	SavedAt   time.Time
}

// storedMatrix is the on-disk format of the matrix artifact.
type storedMatrix struct {
	Metadata       MatrixMetadata
	CompressedData []byte
}

// Save writes the catalog artifacts into dir. The manifest, when present,
// is updated with the matrix checksum.
func Save(dir string, c *Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, MoviesFile), func(w io.Writer) error {
		return writeRecords(w, c.Records)
	}); err != nil {
		return fmt.Errorf("failed to write movie table: %w", err)
	}

	var meta MatrixMetadata
	if err := writeAtomic(filepath.Join(dir, MatrixFile), func(w io.Writer) error {
		var err error
		meta, err = writeMatrix(w, c.Matrix)
		return err
	}); err != nil {
		return fmt.Errorf("failed to write similarity matrix: %w", err)
	}

	manifest := c.Manifest
	if manifest == nil {
		manifest = &Manifest{}
	}
	manifest.Movies = len(c.Records)
	manifest.MatrixChecksum = meta.Checksum
	if err := SaveManifest(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return err
	}

	slog.Info("Catalog saved", "dir", dir, "movies", len(c.Records), "matrix_bytes", meta.SizeBytes)
	return nil
}

// Load reads the catalog artifacts from dir and validates them. A missing
// manifest is tolerated; a present one must agree with the matrix checksum.
func Load(dir string) (*Catalog, error) {
	records, err := readRecords(filepath.Join(dir, MoviesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read movie table: %w", err)
	}

	matrix, meta, err := readMatrix(filepath.Join(dir, MatrixFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read similarity matrix: %w", err)
	}

	var manifest *Manifest
	manifestPath := filepath.Join(dir, ManifestFile)
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		manifest, err = LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		if manifest.MatrixChecksum != "" && manifest.MatrixChecksum != meta.Checksum {
			return nil, fmt.Errorf("%w: manifest expects %s, matrix has %s",
				ErrChecksumMismatch, manifest.MatrixChecksum, meta.Checksum)
		}
	} else {
		slog.Warn("Catalog manifest missing", "path", manifestPath)
	}

	c, err := New(records, matrix)
	if err != nil {
		return nil, err
	}
	c.Manifest = manifest
	return c, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeRecords(w io.Writer, records []MovieRecord) error {
	writer := parquet.NewGenericWriter[MovieRecord](w)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return writer.Close()
}

func readRecords(path string) ([]MovieRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
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

	reader := parquet.NewGenericReader[MovieRecord](pf)
	defer reader.Close()

	records := make([]MovieRecord, 0, pf.NumRows())
	rows := make([]MovieRecord, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
	}
	return records, nil
}

func writeMatrix(w io.Writer, m *similarity.Matrix) (MatrixMetadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(matrixState{N: m.Len(), Data: m.Data()}); err != nil {
		return MatrixMetadata{}, fmt.Errorf("encode matrix: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return MatrixMetadata{}, fmt.Errorf("compress matrix: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return MatrixMetadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta := MatrixMetadata{
		Rows:      m.Len(),
		Checksum:  hex.EncodeToString(hash[:]),
		SizeBytes: int64(compressed.Len()),
		SavedAt:   time.Now(),
	}
	if err := gob.NewEncoder(w).Encode(storedMatrix{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return MatrixMetadata{}, fmt.Errorf("write matrix file: %w", err)
	}
	return meta, nil
}

func readMatrix(path string) (*similarity.Matrix, MatrixMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, MatrixMetadata{}, err
	}
	defer f.Close()

	var sm storedMatrix
	if err := gob.NewDecoder(f).Decode(&sm); err != nil {
		return nil, MatrixMetadata{}, fmt.Errorf("read matrix file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sm.CompressedData))
	if err != nil {
		return nil, sm.Metadata, fmt.Errorf("decompress matrix: %w", err)
	}
	defer gzr.Close()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, sm.Metadata, fmt.Errorf("read decompressed matrix: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sm.Metadata.Checksum {
		return nil, sm.Metadata, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, sm.Metadata.Checksum, checksum)
	}

	var state matrixState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return nil, sm.Metadata, fmt.Errorf("decode matrix: %w", err)
	}
	m, err := similarity.FromData(state.N, state.Data)
	if err != nil {
		return nil, sm.Metadata, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return m, sm.Metadata, nil
}

// LoadOrSample loads the catalog in dir, falling back to Sample when the
// artifacts are missing or fail validation. The load error, if any, is
// returned alongside the sample so callers can report degraded mode.
func LoadOrSample(dir string) (*Catalog, error) {
	c, err := Load(dir)
	if err != nil {
		slog.Error("Failed to load catalog, using built-in sample", "dir", dir, "err", err)
		return Sample(), err
	}
	return c, nil
}
