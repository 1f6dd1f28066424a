package features

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/reelmatch/reelmatch/internal/providers"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "lowercases and splits on punctuation",
			text:     "A Mind-bending DREAM, sequence!",
			expected: []string{"mind", "bending", "dream", "sequence"},
		},
		{
			name:     "drops single rune tokens",
			text:     "I x 42 b2",
			expected: []string{"42", "b2"},
		},
		{
			name:     "keeps accented letters",
			text:     "Amélie café",
			expected: []string{"amélie", "café"},
		},
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Tokenize(tt.text)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestTFIDFRemovesStopWords(t *testing.T) {
	v := NewTFIDF(0)
	_, err := v.FitTransform(context.Background(), []string{"The first rule about the club"})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	vocab := v.Vocabulary()
	for _, stop := range []string{"the", "first", "about"} {
		if _, ok := vocab[stop]; ok {
			t.Errorf("Stop word %q should not be in vocabulary", stop)
		}
	}
	for _, kept := range []string{"rule", "club"} {
		if _, ok := vocab[kept]; !ok {
			t.Errorf("Expected %q in vocabulary", kept)
		}
	}
}

func TestTFIDFMaxFeatures(t *testing.T) {
	v := NewTFIDF(2)
	docs := []string{"space space space dream", "dream heist", "space heist crime"}
	if _, err := v.FitTransform(context.Background(), docs); err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if v.Dimensions() != 2 {
		t.Fatalf("Expected 2 dimensions, got %d", v.Dimensions())
	}
	// space=4, dream=2, heist=2 -> dream wins the tie alphabetically
	for _, term := range []string{"space", "dream"} {
		if _, ok := v.Vocabulary()[term]; !ok {
			t.Errorf("Expected %q to survive the cap", term)
		}
	}
}

func TestTFIDFEmptyDescription(t *testing.T) {
	v := NewTFIDF(0)
	vectors, err := v.FitTransform(context.Background(), []string{"batman joker", "", "   "})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("Expected 3 vectors, got %d", len(vectors))
	}
	if !vectors[1].IsZero() || !vectors[2].IsZero() {
		t.Error("Expected zero vectors for blank descriptions")
	}
	if math.Abs(vectors[0].Norm()-1) > 1e-9 {
		t.Errorf("Expected unit norm, got %f", vectors[0].Norm())
	}
}

func TestTFIDFIdfWeighting(t *testing.T) {
	v := NewTFIDF(0)
	vectors, err := v.FitTransform(context.Background(), []string{"crime crime heist", "crime drama"})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	vocab := v.Vocabulary()
	weights := map[int]float64{}
	for k, col := range vectors[0].Indices {
		weights[col] = vectors[0].Values[k]
	}
	// crime: tf=2 idf=1 ; heist: tf=1 idf=ln(3/2)+1
	crime, heist := 2.0, math.Log(1.5)+1
	norm := math.Sqrt(crime*crime + heist*heist)
	if got := weights[vocab["crime"]]; math.Abs(got-crime/norm) > 1e-9 {
		t.Errorf("crime weight: expected %f, got %f", crime/norm, got)
	}
	if got := weights[vocab["heist"]]; math.Abs(got-heist/norm) > 1e-9 {
		t.Errorf("heist weight: expected %f, got %f", heist/norm, got)
	}
}

func TestTFIDFCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTFIDF(0).FitTransform(ctx, []string{"a b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

type fakeEmbedder struct {
	calls int
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, _ providers.Config, texts []string) ([][]float32, error) {
	f.calls++
	f.texts = append(f.texts, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{3, 4}
	}
	return out, nil
}

func TestEmbeddingSkipsBlankDocs(t *testing.T) {
	fake := &fakeEmbedder{}
	e := NewEmbedding("fake", fake, providers.Config{Model: "m", BatchSize: 2})
	vectors, err := e.FitTransform(context.Background(), []string{"one", "", "two", "three"})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("Expected 2 batches, got %d", fake.calls)
	}
	if !reflect.DeepEqual(fake.texts, []string{"one", "two", "three"}) {
		t.Errorf("Unexpected texts sent to provider: %v", fake.texts)
	}
	if !vectors[1].IsZero() {
		t.Error("Expected zero vector for blank doc")
	}
	if math.Abs(vectors[0].Values[0]-0.6) > 1e-6 || math.Abs(vectors[0].Values[1]-0.8) > 1e-6 {
		t.Errorf("Expected normalized vector, got %v", vectors[0].Values)
	}
	if e.Dimensions() != 2 {
		t.Errorf("Expected 2 dimensions, got %d", e.Dimensions())
	}
}
