package clustering

import "testing"

func TestClusterBelowMinItemsReturnsNil(t *testing.T) {
	results, err := Cluster([]string{"a", "b"}, [][]float64{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results below MinItemsForClustering, got %v", results)
	}
}

func TestClusterGroupsSimilarEmbeddings(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	embeddings := [][]float64{
		{1, 0, 0},
		{0.95, 0.05, 0},
		{0, 1, 0},
		{0, 0.95, 0.05},
	}

	results, err := Cluster(ids, embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %+v", len(results), results)
	}

	for _, r := range results {
		if len(r.Ids) < MinClusterSize {
			t.Errorf("cluster below MinClusterSize survived: %+v", r)
		}
	}
}

func TestClusterMismatchedLengths(t *testing.T) {
	_, err := Cluster([]string{"a", "b", "c"}, [][]float64{{1, 0}})
	if err == nil {
		t.Errorf("expected error for mismatched lengths")
	}
}

func TestTargetClusterCount(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{3, 1},
		{4, 2},
		{9, 3},
		{16, 4},
		{2, 1},
	}
	for _, c := range cases {
		if got := targetClusterCount(c.n); got != c.want {
			t.Errorf("targetClusterCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestCentroidIndexSingleMember(t *testing.T) {
	distances := [][]float64{{0}}
	if got := centroidIndex([]int{0}, distances); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
