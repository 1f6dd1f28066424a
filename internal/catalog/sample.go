package catalog

import "github.com/reelmatch/reelmatch/internal/similarity"

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// Sample returns the built-in five movie catalog used when the primary
// artifacts cannot be loaded. Its matrix is fixed, not random, so degraded
// mode answers the same way on every start.
func Sample() *Catalog {
	records := []MovieRecord{
		{Title: "Inception", ExternalID: 27205, Year: intPtr(2010), Rating: floatPtr(8.8), Description: "Mind-bending dream sequences."},
		{Title: "The Dark Knight", ExternalID: 155, Year: intPtr(2008), Rating: floatPtr(8.5), Description: "Batman faces the Joker."},
		{Title: "Interstellar", ExternalID: 157336, Year: intPtr(2014), Rating: floatPtr(8.6), Description: "A mission beyond our solar system."},
		{Title: "Pulp Fiction", ExternalID: 680, Year: intPtr(1994), Rating: floatPtr(8.9), Description: "Intertwining tales of LA crime."},
		{Title: "Fight Club", ExternalID: 550, Year: intPtr(1999), Rating: floatPtr(8.7), Description: "The first rule about Fight Club is..."},
	}
	matrix, err := similarity.FromRows([][]float32{
		{1.0, 0.6, 0.9, 0.1, 0.3},
		{0.6, 1.0, 0.5, 0.4, 0.5},
		{0.9, 0.5, 1.0, 0.1, 0.2},
		{0.1, 0.4, 0.1, 1.0, 0.7},
		{0.3, 0.5, 0.2, 0.7, 1.0},
	})
	if err != nil {
		panic(err)
	}
	return &Catalog{
		Records:  records,
		Matrix:   matrix,
		Manifest: &Manifest{BuildID: SampleBuildID, Movies: len(records), Sources: SourceInfo{Movies: "builtin"}},
	}
}

// SampleBuildID marks the manifest of the built-in sample catalog.
const SampleBuildID = "sample"

// IsSample reports whether c is the built-in fallback catalog.
func (c *Catalog) IsSample() bool {
	return c.Manifest != nil && c.Manifest.BuildID == SampleBuildID
}
