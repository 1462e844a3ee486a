package vectorindex

import "math"

// maximalMarginalRelevance 从候选向量中选出k个与查询相关且彼此多样的结果
// 返回候选的下标序列，按选中顺序排列
// lambda越大越偏向相关性，越小越偏向多样性
func maximalMarginalRelevance(query []float32, candidates [][]float32, lambda float64, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	querySim := make([]float64, len(candidates))
	for i, c := range candidates {
		querySim[i] = cosineSimilarity(query, c)
	}

	selected := make([]int, 0, k)
	remaining := make(map[int]bool, len(candidates))
	for i := range candidates {
		remaining[i] = true
	}

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)

		for i := range remaining {
			// 与已选结果的最大相似度作为冗余惩罚
			redundancy := 0.0
			for _, j := range selected {
				if sim := cosineSimilarity(candidates[i], candidates[j]); sim > redundancy {
					redundancy = sim
				}
			}

			score := lambda*querySim[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		selected = append(selected, best)
		delete(remaining, best)
	}

	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
