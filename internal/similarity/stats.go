package similarity

import "sort"

// Summary describes the distribution of each row's best non-self score.
type Summary struct {
	Rows             int     `yaml:"rows" json:"rows"`
	IsolatedRows     int     `yaml:"isolated_rows" json:"isolated_rows"`
	MeanBestScore    float64 `yaml:"mean_best_score" json:"mean_best_score"`
	MedianBestScore  float64 `yaml:"median_best_score" json:"median_best_score"`
	MinBestScore     float64 `yaml:"min_best_score" json:"min_best_score"`
	MaxBestScore     float64 `yaml:"max_best_score" json:"max_best_score"`
	SymmetryMaxDelta float64 `yaml:"symmetry_max_delta" json:"symmetry_max_delta"`
}

// Summarize scans the matrix once. Rows whose best neighbor scores zero
// are counted as isolated (typically blank descriptions).
func Summarize(m *Matrix) Summary {
	summary := Summary{Rows: m.Len()}
	if m.Len() < 2 {
		return summary
	}

	best := make([]float64, 0, m.Len())
	for i := 0; i < m.Len(); i++ {
		top := -1.0
		first := true
		for j := 0; j < m.Len(); j++ {
			if i == j {
				continue
			}
			s := m.At(i, j)
			if first || s > top {
				top = s
				first = false
			}
			if d := s - m.At(j, i); d > summary.SymmetryMaxDelta {
				summary.SymmetryMaxDelta = d
			}
		}
		if top <= 0 {
			summary.IsolatedRows++
		}
		best = append(best, top)
	}

	var total float64
	for _, s := range best {
		total += s
	}
	summary.MeanBestScore = total / float64(len(best))

	sort.Float64s(best)
	mid := len(best) / 2
	if len(best)%2 == 0 {
		summary.MedianBestScore = (best[mid-1] + best[mid]) / 2
	} else {
		summary.MedianBestScore = best[mid]
	}
	summary.MinBestScore = best[0]
	summary.MaxBestScore = best[len(best)-1]

	return summary
}
