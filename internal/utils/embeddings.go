package utils

import (
	"fmt"
	"math"
	"sort"
)

// dotProduct calculates the dot product of two vectors.
func dotProduct(vec1, vec2 []float32) (float32, error) {
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vectors must have the same dimension")
	}
	var product float32
	for i := range vec1 {
		product += vec1[i] * vec2[i]
	}
	return product, nil
}

// magnitude calculates the L2 norm of a vector.
func magnitude(vec []float32) float32 {
	var sumOfSquares float32
	for _, val := range vec {
		sumOfSquares += val * val
	}
	return float32(math.Sqrt(float64(sumOfSquares)))
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(vec1, vec2 []float32) (float32, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	product, err := dotProduct(vec1, vec2)
	if err != nil {
		return 0, err
	}

	mag1 := magnitude(vec1)
	mag2 := magnitude(vec2)
	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}
	return product / (mag1 * mag2), nil
}

type Scored[T any] struct {
	Item  T
	Score float32
}

// TopK ranks items by similarity of their vectors to query, keeping at most k
// items scoring at least threshold. Items whose vector is missing or has a
// different dimension are skipped.
func TopK[T any](query []float32, items []T, vector func(T) []float32, threshold float32, k int) []Scored[T] {
	scored := make([]Scored[T], 0, len(items))
	for _, item := range items {
		sim, err := CosineSimilarity(query, vector(item))
		if err != nil || sim < threshold {
			continue
		}
		scored = append(scored, Scored[T]{Item: item, Score: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
