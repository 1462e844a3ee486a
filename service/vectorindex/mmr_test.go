package vectorindex

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled vectors", []float32{2, 0}, []float32{5, 0}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMMRSelectsMostRelevantFirst(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},         // 无关
		{1, 0},         // 完全相关
		{0.9, 0.4359},  // 较相关
	}

	selected := maximalMarginalRelevance(query, candidates, 0.5, 2)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selected))
	}
	if selected[0] != 1 {
		t.Fatalf("first selection must be the most relevant candidate, got %d", selected[0])
	}
}

func TestMMRPenalizesRedundancy(t *testing.T) {
	query := []float32{1, 0, 0}

	// 候选0和1几乎相同，第二个名额应让给多样的候选2
	candidates := [][]float32{
		{0.9, 0.1, 0},
		{0.9, 0.11, 0},
		{0.8, 0, 0.6},
	}

	selected := maximalMarginalRelevance(query, candidates, 0.5, 2)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selected))
	}
	if selected[0] != 0 {
		t.Fatalf("first selection must be the most relevant candidate, got %d", selected[0])
	}
	if selected[1] != 2 {
		t.Fatalf("second selection should prefer the diverse candidate, got %d", selected[1])
	}
}

func TestMMRKLargerThanCandidates(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},
		{0, 1},
	}

	selected := maximalMarginalRelevance(query, candidates, 0.5, 10)
	if len(selected) != 2 {
		t.Fatalf("expected all candidates when k exceeds candidate count, got %d", len(selected))
	}
}

func TestMMREmptyCandidates(t *testing.T) {
	selected := maximalMarginalRelevance([]float32{1, 0}, nil, 0.5, 5)
	if len(selected) != 0 {
		t.Fatalf("expected no selections for empty candidates, got %d", len(selected))
	}
}

func TestMMRLambdaOnePicksPureRelevance(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0.9, 0.4359},
		{1, 0},
		{0.999, 0.001},
	}

	// lambda=1 退化为纯相关性排序
	selected := maximalMarginalRelevance(query, candidates, 1, 3)
	if selected[0] != 1 {
		t.Fatalf("expected most relevant candidate first, got %v", selected)
	}
	if selected[1] != 2 {
		t.Fatalf("pure relevance must ignore redundancy, got %v", selected)
	}
}
