// Package clustering groups a user's saved content within one category into
// semantically similar clusters using average-linkage agglomerative
// clustering over cosine distance.
package clustering

import (
	"fmt"
)

// MinItemsForClustering is the minimum number of saves in a category before
// clustering runs at all.
const MinItemsForClustering = 3

// MinClusterSize is the minimum number of members a cluster must have to
// survive; smaller groups are dropped rather than surfaced as singletons.
const MinClusterSize = 2

// Result is one cluster produced by Cluster: the ids it groups and the
// index (within the input slice) of its most representative member.
type Result struct {
	Ids        []string
	CentroidAt int
}

// Cluster groups ids by the similarity of their embeddings using average-
// linkage agglomerative clustering, filters out clusters smaller than
// MinClusterSize, and returns the survivors in no particular order. Returns
// nil if there are fewer than MinItemsForClustering items.
func Cluster(ids []string, embeddings [][]float64) ([]Result, error) {
	n := len(ids)
	if n != len(embeddings) {
		return nil, fmt.Errorf("ids and embeddings length mismatch: %d vs %d", n, len(embeddings))
	}
	if n < MinItemsForClustering {
		return nil, nil
	}

	distances := DistanceMatrix(embeddings, CosineDistance)
	k := targetClusterCount(n)

	assignments := agglomerativeAverageLinkage(distances, k)

	groups := make(map[int][]int, k)
	for idx, label := range assignments {
		groups[label] = append(groups[label], idx)
	}

	var results []Result
	for _, indices := range groups {
		if len(indices) < MinClusterSize {
			continue
		}

		memberIds := make([]string, len(indices))
		for i, idx := range indices {
			memberIds[i] = ids[idx]
		}

		results = append(results, Result{
			Ids:        memberIds,
			CentroidAt: centroidIndex(indices, distances),
		})
	}

	return results, nil
}

// targetClusterCount picks the number of clusters to form: sqrt(n), clamped
// to at least 1 and at most n/2.
func targetClusterCount(n int) int {
	k := isqrt(n)
	if half := n / 2; k > half {
		k = half
	}
	if k < 1 {
		k = 1
	}
	return k
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// centroidIndex returns the index (into the original embeddings slice) of
// the member with the lowest average distance to the rest of its cluster.
func centroidIndex(indices []int, distances [][]float64) int {
	if len(indices) == 1 {
		return indices[0]
	}

	best := indices[0]
	bestAvg := averageDistanceTo(indices[0], indices, distances)
	for _, idx := range indices[1:] {
		avg := averageDistanceTo(idx, indices, distances)
		if avg < bestAvg {
			bestAvg = avg
			best = idx
		}
	}
	return best
}

func averageDistanceTo(point int, indices []int, distances [][]float64) float64 {
	var sum float64
	var count int
	for _, other := range indices {
		if other == point {
			continue
		}
		sum += distances[point][other]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// agglomerativeAverageLinkage merges the n singleton clusters pairwise,
// using average linkage, until exactly k clusters remain. Returns a slice
// mapping each original point to its final cluster label.
func agglomerativeAverageLinkage(distances [][]float64, k int) []int {
	n := len(distances)
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}
	numActive := n

	for numActive > k {
		bestI, bestJ := -1, -1
		bestDist := 0.0
		found := false

		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				d := averageLinkageDistance(clusters[i], clusters[j], distances)
				if !found || d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
					found = true
				}
			}
		}

		if !found {
			break
		}

		clusters[bestI] = append(clusters[bestI], clusters[bestJ]...)
		clusters[bestJ] = nil
		active[bestJ] = false
		numActive--
	}

	assignments := make([]int, n)
	label := 0
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		for _, member := range clusters[i] {
			assignments[member] = label
		}
		label++
	}
	return assignments
}

// averageLinkageDistance is the mean pairwise distance between two clusters'
// members.
func averageLinkageDistance(a, b []int, distances [][]float64) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += distances[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}
