package index

import (
	"math"
	"sort"

	"github.com/blevesearch/bleve"
)

// Diverse runs maximal-marginal-relevance selection: the query's poolSize
// nearest chunks are re-ranked so each pick trades relevance against
// similarity to what was already picked (lambda 1.0 = pure relevance,
// 0.0 = pure diversity).
func (idx *Index) Diverse(query []float32, k, poolSize int, lambda float64) []Chunk {
	if idx == nil || len(idx.chunks) == 0 || k <= 0 {
		return nil
	}
	pool := idx.nearest(query, poolSize)
	if len(pool) == 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}

	selected := make([]int, 0, k)
	remaining := make([]scored, len(pool))
	copy(remaining, pool)

	for len(selected) < k && len(remaining) > 0 {
		best := -1
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			penalty := 0.0
			for _, s := range selected {
				if sim := cosine(idx.vectors[cand.i], idx.vectors[s]); sim > penalty {
					penalty = sim
				}
			}
			score := lambda*cand.score - (1-lambda)*penalty
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		selected = append(selected, remaining[best].i)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	out := make([]Chunk, len(selected))
	for i, s := range selected {
		out[i] = idx.chunks[s]
	}
	return out
}

// Similar returns up to k chunks whose cosine similarity to the query meets
// the threshold, most similar first.
func (idx *Index) Similar(query []float32, k int, threshold float64) []Chunk {
	if idx == nil || len(idx.chunks) == 0 || k <= 0 {
		return nil
	}
	var out []Chunk
	for _, s := range idx.nearest(query, k) {
		if s.score < threshold {
			break
		}
		out = append(out, idx.chunks[s.i])
	}
	return out
}

// Keyword performs a full-text query over the corpus. It serves operator
// inspection and is not part of the answer pipeline.
func (idx *Index) Keyword(q string, k int) ([]Chunk, error) {
	if idx == nil || idx.keyword == nil || k <= 0 {
		return nil, nil
	}
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := idx.keyword.Search(req)
	if err != nil {
		return nil, err
	}
	var out []Chunk
	for _, hit := range res.Hits {
		if i, ok := idx.byID[hit.ID]; ok {
			out = append(out, idx.chunks[i])
		}
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

type scored struct {
	i     int
	score float64
}

// nearest ranks all chunks by cosine similarity and returns the top n.
func (idx *Index) nearest(query []float32, n int) []scored {
	if n <= 0 {
		return nil
	}
	scoreds := make([]scored, len(idx.vectors))
	for i, v := range idx.vectors {
		scoreds[i] = scored{i: i, score: cosine(query, v)}
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].score > scoreds[b].score })
	if n > len(scoreds) {
		n = len(scoreds)
	}
	return scoreds[:n]
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
