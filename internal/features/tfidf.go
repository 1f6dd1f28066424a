package features

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxFeatures caps the vocabulary when no explicit limit is given.
const DefaultMaxFeatures = 20000

// TFIDF is a term-frequency / inverse-document-frequency vectorizer.
//
// Terms are lowercased runs of letters, digits and underscores at least two
// runes long. The vocabulary keeps the MaxFeatures terms with the highest
// corpus frequency (ties broken alphabetically). IDF is smoothed:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// and each document vector is L2-normalized, so the dot product of two
// vectors is their cosine similarity.
type TFIDF struct {
	MaxFeatures int
	StopWords   map[string]struct{}

	vocabulary map[string]int
	idf        []float64
}

// NewTFIDF returns a vectorizer with English stop words removed.
func NewTFIDF(maxFeatures int) *TFIDF {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDF{
		MaxFeatures: maxFeatures,
		StopWords:   EnglishStopWords(),
	}
}

// Name identifies the vectorizer in build manifests.
func (t *TFIDF) Name() string { return "tfidf" }

// Dimensions returns the fitted vocabulary size.
func (t *TFIDF) Dimensions() int { return len(t.vocabulary) }

// Vocabulary returns the fitted term -> column mapping.
func (t *TFIDF) Vocabulary() map[string]int { return t.vocabulary }

// Tokenize splits text into lowercased terms.
func Tokenize(text string) []string {
	var tokens []string
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := text[start:end]
		if utf8.RuneCountInString(tok) >= 2 {
			tokens = append(tokens, strings.ToLower(tok))
		}
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

func (t *TFIDF) terms(doc string) []string {
	tokens := Tokenize(doc)
	out := tokens[:0]
	for _, tok := range tokens {
		if _, stop := t.StopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// FitTransform learns the vocabulary and idf weights from docs and returns
// one normalized vector per document. Empty documents yield zero vectors.
func (t *TFIDF) FitTransform(ctx context.Context, docs []string) ([]Vector, error) {
	counts := make([]map[string]int, len(docs))
	corpusFreq := make(map[string]int)
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := make(map[string]int)
		for _, term := range t.terms(doc) {
			c[term]++
			corpusFreq[term]++
		}
		counts[i] = c
	}

	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		fi, fj := corpusFreq[terms[i]], corpusFreq[terms[j]]
		if fi != fj {
			return fi > fj
		}
		return terms[i] < terms[j]
	})
	if t.MaxFeatures > 0 && len(terms) > t.MaxFeatures {
		slog.Debug("Capping vocabulary", "terms", len(terms), "max_features", t.MaxFeatures)
		terms = terms[:t.MaxFeatures]
	}
	sort.Strings(terms)

	t.vocabulary = make(map[string]int, len(terms))
	for i, term := range terms {
		t.vocabulary[term] = i
	}

	df := make([]int, len(terms))
	for _, c := range counts {
		for term := range c {
			if col, ok := t.vocabulary[term]; ok {
				df[col]++
			}
		}
	}
	n := float64(len(docs))
	t.idf = make([]float64, len(terms))
	for col, d := range df {
		t.idf[col] = math.Log((1+n)/(1+float64(d))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, c := range counts {
		cols := make([]int, 0, len(c))
		for term := range c {
			if col, ok := t.vocabulary[term]; ok {
				cols = append(cols, col)
			}
		}
		sort.Ints(cols)
		v := Vector{Indices: cols, Values: make([]float64, len(cols))}
		for k, col := range cols {
			v.Values[k] = float64(c[terms[col]]) * t.idf[col]
		}
		v.Normalize()
		vectors[i] = v
	}
	return vectors, nil
}
